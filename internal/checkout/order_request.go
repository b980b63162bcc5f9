package checkout

import (
	"context"

	"github.com/google/uuid"
)

// OrderLine is one basket line as sent to the order sink.
type OrderLine struct {
	Size string  `json:"size"`
	SKU  *string `json:"sku"`
	Qty  int     `json:"qty"`
}

// OrderRequest is the finalized snapshot handed to the order sink. It is built
// once per submission attempt and never modified afterwards.
type OrderRequest struct {
	SessionID      uuid.UUID       `json:"sessionId"`
	IdempotencyKey string          `json:"idempotencyKey"`
	ProductTitle   string          `json:"productTitle"`
	ProductSlug    string          `json:"productSlug"`
	SizeLabel      string          `json:"sizeLabel"`
	SKU            *string         `json:"sku"`
	Quantity       int             `json:"quantity"`
	Lines          []OrderLine     `json:"lines"`
	Customer       CustomerDetails `json:"customer"`
}

// OrderSink accepts finalized order requests.
type OrderSink interface {
	Submit(ctx context.Context, req OrderRequest) error
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func buildOrderRequest(s *Session, idempotencyKey string) OrderRequest {
	lines := s.Basket.Lines()
	out := make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, OrderLine{
			Size: line.Size.Label,
			SKU:  optionalString(line.Size.SKU),
			Qty:  line.Quantity,
		})
	}

	var sku *string
	if len(lines) == 1 {
		sku = optionalString(lines[0].Size.SKU)
	}

	return OrderRequest{
		SessionID:      s.ID,
		IdempotencyKey: idempotencyKey,
		ProductTitle:   s.ProductTitle,
		ProductSlug:    s.ProductSlug,
		SizeLabel:      s.Basket.SizeSummaryLabel(),
		SKU:            sku,
		Quantity:       s.Basket.TotalQuantity(),
		Lines:          out,
		Customer:       s.Details.Normalize(),
	}
}
