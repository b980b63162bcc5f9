package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/midlandoil/storefront/internal/checkout"
	"github.com/midlandoil/storefront/pkg/db"
	"github.com/midlandoil/storefront/pkg/db/models"
	"github.com/midlandoil/storefront/pkg/enums"
	pkgerrors "github.com/midlandoil/storefront/pkg/errors"
	"github.com/midlandoil/storefront/pkg/logger"
	"github.com/midlandoil/storefront/pkg/outbox"
	"github.com/midlandoil/storefront/pkg/outbox/payloads"
)

const idempotencyConstraint = "idempotency_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Repository is the database-backed order sink. Each accepted request becomes
// one orders row plus an order.received outbox event, written together.
type Repository struct {
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

var _ checkout.OrderSink = (*Repository)(nil)

// NewRepository builds the order sink.
func NewRepository(tx txRunner, outbox outboxPublisher, logg *logger.Logger) (*Repository, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Repository{tx: tx, outbox: outbox, logg: logg}, nil
}

// Submit stores the order. A request whose idempotency key was already stored
// is acknowledged without writing anything.
func (r *Repository) Submit(ctx context.Context, req checkout.OrderRequest) error {
	if req.IdempotencyKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "idempotency key required")
	}
	order, err := orderFromRequest(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode basket items")
	}

	err = r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return r.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderReceived,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data:          receivedEvent(order, req),
			OccurredAt:    order.CreatedAt,
		})
	})
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"session_id":      req.SessionID.String(),
		"idempotency_key": req.IdempotencyKey,
	})
	if err != nil {
		if db.IsUniqueViolation(err, idempotencyConstraint) {
			r.logg.Warn(logCtx, "orders.duplicate_ignored")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store order")
	}
	r.logg.Info(r.logg.WithField(logCtx, "order_id", order.ID.String()), "orders.stored")
	return nil
}

func orderFromRequest(req checkout.OrderRequest) (*models.Order, error) {
	items, err := json.Marshal(req.Lines)
	if err != nil {
		return nil, err
	}
	c := req.Customer
	return &models.Order{
		CreatedAt:            time.Now().UTC(),
		Status:               enums.OrderStatusNew,
		IdempotencyKey:       req.IdempotencyKey,
		SessionID:            req.SessionID,
		ProductTitle:         req.ProductTitle,
		ProductSlug:          req.ProductSlug,
		SizeLabel:            req.SizeLabel,
		SKU:                  req.SKU,
		Quantity:             req.Quantity,
		BasketItems:          string(items),
		CustomerName:         c.Name,
		CustomerCompany:      optional(c.Company),
		CustomerEmail:        c.Email,
		CustomerPhone:        c.Phone,
		DeliveryAddressLine1: c.AddressLine1,
		DeliveryAddressLine2: optional(c.AddressLine2),
		DeliveryTown:         c.Town,
		DeliveryCounty:       optional(c.County),
		DeliveryPostcode:     c.Postcode,
		Notes:                optional(c.Notes),
	}, nil
}

func receivedEvent(order *models.Order, req checkout.OrderRequest) payloads.OrderReceivedEvent {
	lines := make([]payloads.OrderLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, payloads.OrderLine{Size: line.Size, SKU: line.SKU, Qty: line.Qty})
	}
	return payloads.OrderReceivedEvent{
		OrderID:          order.ID,
		ReceivedAt:       order.CreatedAt,
		ProductTitle:     order.ProductTitle,
		ProductSlug:      order.ProductSlug,
		SizeLabel:        order.SizeLabel,
		SKU:              order.SKU,
		Quantity:         order.Quantity,
		Lines:            lines,
		CustomerName:     order.CustomerName,
		CustomerCompany:  order.CustomerCompany,
		CustomerEmail:    order.CustomerEmail,
		CustomerPhone:    order.CustomerPhone,
		DeliveryTown:     order.DeliveryTown,
		DeliveryPostcode: order.DeliveryPostcode,
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
