package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OrderLine mirrors one basket line of a received order.
type OrderLine struct {
	Size string  `json:"size"`
	SKU  *string `json:"sku"`
	Qty  int     `json:"qty"`
}

// OrderReceivedEvent tells the sales team a delivery quote request arrived.
type OrderReceivedEvent struct {
	OrderID          uuid.UUID   `json:"order_id"`
	ReceivedAt       time.Time   `json:"received_at"`
	ProductTitle     string      `json:"product_title"`
	ProductSlug      string      `json:"product_slug"`
	SizeLabel        string      `json:"size_label"`
	SKU              *string     `json:"sku,omitempty"`
	Quantity         int         `json:"quantity"`
	Lines            []OrderLine `json:"lines"`
	CustomerName     string      `json:"customer_name"`
	CustomerCompany  *string     `json:"customer_company,omitempty"`
	CustomerEmail    string      `json:"customer_email"`
	CustomerPhone    string      `json:"customer_phone"`
	DeliveryTown     string      `json:"delivery_town"`
	DeliveryPostcode string      `json:"delivery_postcode"`
}
