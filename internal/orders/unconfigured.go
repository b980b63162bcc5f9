package orders

import (
	"context"

	"github.com/midlandoil/storefront/internal/checkout"
)

// UnconfiguredSink is wired when no database is configured. Every submission
// fails with checkout.ErrSinkUnconfigured.
type UnconfiguredSink struct{}

func (UnconfiguredSink) Submit(context.Context, checkout.OrderRequest) error {
	return checkout.ErrSinkUnconfigured
}
