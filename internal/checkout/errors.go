package checkout

import (
	"context"
	"errors"

	"github.com/midlandoil/storefront/pkg/metrics"
)

// ErrSinkUnconfigured is returned by order sinks that have no backing service.
var ErrSinkUnconfigured = errors.New("order sink is not configured")

// Messages shown to the visitor when a submission fails. Raw sink errors are
// only ever logged.
const (
	MessageUnconfigured = "Order service is not configured yet. Please call us directly."
	MessageRejected     = "Couldn't submit right now. Please call us directly."
	MessageTimeout      = "The order service is taking too long to respond. Please try again."
	MessageUnconfirmed  = "We couldn't confirm your last submission. Please try again."
)

// PublicMessage maps a sink error to the message shown on the details form.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSinkUnconfigured):
		return MessageUnconfigured
	case errors.Is(err, context.DeadlineExceeded):
		return MessageTimeout
	default:
		return MessageRejected
	}
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrSinkUnconfigured):
		return metrics.OutcomeUnconfigured
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeRejected
	}
}
