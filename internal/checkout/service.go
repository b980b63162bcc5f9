package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/midlandoil/storefront/internal/catalog"
	pkgerrors "github.com/midlandoil/storefront/pkg/errors"
	"github.com/midlandoil/storefront/pkg/logger"
	"github.com/midlandoil/storefront/pkg/metrics"
)

const (
	defaultSubmitTimeout = 20 * time.Second
	// submitStaleGrace is added to the submit timeout before an unrecorded
	// in-flight submission is released for retry.
	submitStaleGrace = 30 * time.Second
)

type sizeResolver interface {
	Sizes(ctx context.Context, slug string) (*catalog.ProductSizes, error)
}

type recorder interface {
	SessionCreated()
	SubmissionFinished(outcome string, elapsed time.Duration)
}

// Service drives checkout sessions: it loads a session, applies one
// transition under a per-session lock and saves it back.
type Service interface {
	Create(ctx context.Context, productSlug string) (*Session, error)
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Open(ctx context.Context, id uuid.UUID) (*Session, error)
	Close(ctx context.Context, id uuid.UUID) (*Session, error)
	ChooseSize(ctx context.Context, id uuid.UUID, label string) (*Session, error)
	SetPendingQuantity(ctx context.Context, id uuid.UUID, qty int) (*Session, error)
	ConfirmAdd(ctx context.Context, id uuid.UUID) (*Session, error)
	ViewBasket(ctx context.Context, id uuid.UUID) (*Session, error)
	AddAnother(ctx context.Context, id uuid.UUID) (*Session, error)
	UpdateLineQuantity(ctx context.Context, id uuid.UUID, label string, qty int) (*Session, error)
	RemoveLine(ctx context.Context, id uuid.UUID, label string) (*Session, error)
	Continue(ctx context.Context, id uuid.UUID) (*Session, error)
	Back(ctx context.Context, id uuid.UUID) (*Session, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, details CustomerDetails) (*Session, error)
	Submit(ctx context.Context, id uuid.UUID) (*Session, error)
}

// Options carries the optional collaborators of the service.
type Options struct {
	SubmitTimeout time.Duration
	Metrics       *metrics.CheckoutMetrics
	Now           func() time.Time
}

type service struct {
	sizes   sizeResolver
	store   Store
	sink    OrderSink
	logg    *logger.Logger
	metrics recorder
	timeout time.Duration
	now     func() time.Time
	locks   *keyedMutex
}

// NewService builds the checkout service. The sink is called outside the
// session lock with opts.SubmitTimeout as its deadline.
func NewService(sizes sizeResolver, store Store, sink OrderSink, logg *logger.Logger, opts Options) (Service, error) {
	if sizes == nil {
		return nil, fmt.Errorf("size resolver required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if sink == nil {
		return nil, fmt.Errorf("order sink required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := opts.SubmitTimeout
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		sizes:   sizes,
		store:   store,
		sink:    sink,
		logg:    logg,
		metrics: opts.Metrics,
		timeout: timeout,
		now:     now,
		locks:   newKeyedMutex(),
	}, nil
}

func (s *service) sessionCtx(ctx context.Context, sess *Session) context.Context {
	ctx = s.logg.WithSessionID(ctx, sess.ID.String())
	return s.logg.WithProductSlug(ctx, sess.ProductSlug)
}

func (s *service) Create(ctx context.Context, productSlug string) (*Session, error) {
	product, err := s.sizes.Sizes(ctx, productSlug)
	if err != nil {
		return nil, err
	}
	sess := NewSession(uuid.New(), *product, s.now().UTC())
	sess.Open()
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	s.metrics.SessionCreated()
	s.logg.Info(s.sessionCtx(ctx, sess), "checkout.session.created")
	return sess, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.releaseStale(ctx, sess)
	return sess, nil
}

// releaseStale clears a submission flag left behind when the outcome of a
// sink call could not be saved.
func (s *service) releaseStale(ctx context.Context, sess *Session) {
	if sess.ReleaseStaleSubmission(s.now().UTC(), s.timeout+submitStaleGrace) {
		s.logg.Warn(s.sessionCtx(ctx, sess), "checkout.submission.released")
	}
}

// Delete tears the session down. A submission still in flight completes
// against the sink but its outcome is discarded.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *service) mutate(ctx context.Context, id uuid.UUID, fn func(*Session) error) (*Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.releaseStale(ctx, sess)
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now().UTC()
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *service) Open(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Open()
		return nil
	})
}

func (s *service) Close(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Close()
		return nil
	})
}

func (s *service) ChooseSize(ctx context.Context, id uuid.UUID, label string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		return sess.ChooseSize(label)
	})
}

func (s *service) SetPendingQuantity(ctx context.Context, id uuid.UUID, qty int) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		return sess.SetPendingQuantity(qty)
	})
}

func (s *service) ConfirmAdd(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.mutate(ctx, id, (*Session).ConfirmAdd)
}

func (s *service) ViewBasket(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.mutate(ctx, id, (*Session).ViewBasket)
}

func (s *service) AddAnother(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.mutate(ctx, id, (*Session).AddAnother)
}

func (s *service) UpdateLineQuantity(ctx context.Context, id uuid.UUID, label string, qty int) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		return sess.UpdateLineQuantity(label, qty)
	})
}

func (s *service) RemoveLine(ctx context.Context, id uuid.UUID, label string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		return sess.RemoveLine(label)
	})
}

func (s *service) Continue(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.mutate(ctx, id, (*Session).Continue)
}

func (s *service) Back(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.mutate(ctx, id, (*Session).Back)
}

func (s *service) UpdateDetails(ctx context.Context, id uuid.UUID, details CustomerDetails) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		return sess.UpdateDetails(details)
	})
}

// Submit sends the basket to the order sink. A sink failure is a workflow
// outcome: the returned session carries the public error message and no error
// is returned.
func (s *service) Submit(ctx context.Context, id uuid.UUID) (*Session, error) {
	var sub Submission
	var logCtx context.Context
	if _, err := s.mutate(ctx, id, func(sess *Session) error {
		var beginErr error
		sub, beginErr = sess.BeginSubmit(s.now().UTC())
		logCtx = s.sessionCtx(ctx, sess)
		return beginErr
	}); err != nil {
		return nil, err
	}

	start := s.now()
	sinkErr := s.callSink(ctx, sub.Request)
	elapsed := s.now().Sub(start)

	var applied bool
	sess, err := s.mutate(ctx, id, func(sess *Session) error {
		applied = sess.CompleteSubmit(sub, sinkErr)
		return nil
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.metrics.SubmissionFinished(metrics.OutcomeStale, elapsed)
			s.logg.Warn(logCtx, "checkout.submission.stale")
			return nil, err
		}
		s.logg.Error(s.logg.WithField(logCtx, "sink_error", errString(sinkErr)), "checkout.submission.unrecorded", err)
		return nil, err
	}

	if !applied {
		s.metrics.SubmissionFinished(metrics.OutcomeStale, elapsed)
		s.logg.Warn(s.logg.WithField(logCtx, "sink_error", errString(sinkErr)), "checkout.submission.stale")
		return sess, nil
	}

	outcome := outcomeFor(sinkErr)
	s.metrics.SubmissionFinished(outcome, elapsed)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"idempotency_key": sub.Request.IdempotencyKey,
		"quantity":        sub.Request.Quantity,
		"lines":           len(sub.Request.Lines),
		"outcome":         outcome,
		"duration_ms":     elapsed.Milliseconds(),
	})
	if sinkErr != nil {
		s.logg.Error(logCtx, "checkout.order.failed", sinkErr)
		return sess, nil
	}
	s.logg.Info(logCtx, "checkout.order.submitted")
	return sess, nil
}

// callSink runs the sink with its own deadline. The visitor's request context
// only contributes values so a dropped connection cannot abort an order.
func (s *service) callSink(ctx context.Context, req OrderRequest) error {
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	err := s.sink.Submit(sinkCtx, req)
	if err != nil && errors.Is(sinkCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = multierr.Append(context.DeadlineExceeded, err)
	}
	return err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
