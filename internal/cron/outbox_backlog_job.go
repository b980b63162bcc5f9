package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/midlandoil/storefront/pkg/logger"
	"github.com/midlandoil/storefront/pkg/outbox"
)

const defaultBacklogWarnAge = 15 * time.Minute

type backlogReader interface {
	Backlog(ctx context.Context) (outbox.Backlog, error)
}

type backlogGauge interface {
	SetOutboxBacklog(pending, terminal int64, oldestAge time.Duration)
}

type OutboxBacklogJobParams struct {
	Logger     *logger.Logger
	Repository backlogReader
	Metrics    backlogGauge
	WarnAge    time.Duration
}

// NewOutboxBacklogJob reports how many order events are still waiting to be
// published and how many were abandoned.
func NewOutboxBacklogJob(params OutboxBacklogJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	warnAge := params.WarnAge
	if warnAge <= 0 {
		warnAge = defaultBacklogWarnAge
	}
	return &outboxBacklogJob{
		logg:    params.Logger,
		repo:    params.Repository,
		metrics: params.Metrics,
		warnAge: warnAge,
		now:     time.Now,
	}, nil
}

type outboxBacklogJob struct {
	logg    *logger.Logger
	repo    backlogReader
	metrics backlogGauge
	warnAge time.Duration
	now     func() time.Time
}

func (j *outboxBacklogJob) Name() string { return "outbox-backlog" }

func (j *outboxBacklogJob) Run(ctx context.Context) error {
	backlog, err := j.repo.Backlog(ctx)
	if err != nil {
		return fmt.Errorf("outbox backlog: %w", err)
	}

	var oldestAge time.Duration
	if backlog.OldestPending != nil {
		oldestAge = j.now().Sub(*backlog.OldestPending)
	}
	if j.metrics != nil {
		j.metrics.SetOutboxBacklog(backlog.Pending, backlog.Terminal, oldestAge)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"pending":            backlog.Pending,
		"terminal":           backlog.Terminal,
		"oldest_pending_sec": int64(oldestAge.Seconds()),
	})
	switch {
	case backlog.Terminal > 0:
		j.logg.Warn(logCtx, "outbox has abandoned order events")
	case oldestAge > j.warnAge:
		j.logg.Warn(logCtx, "outbox publishing is lagging")
	default:
		j.logg.Info(logCtx, "outbox backlog checked")
	}
	return nil
}
