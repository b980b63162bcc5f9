package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/midlandoil/storefront/pkg/enums"
)

// Order is the single row written per successful checkout submission. Column
// names follow the orders table the sales team already reads from.
type Order struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	Status               enums.OrderStatus `gorm:"column:status;type:text;not null"`
	IdempotencyKey       string            `gorm:"column:idempotency_key;not null;uniqueIndex:ux_orders_idempotency_key"`
	SessionID            uuid.UUID         `gorm:"column:session_id;type:uuid;not null"`
	ProductTitle         string            `gorm:"column:product_title;not null"`
	ProductSlug          string            `gorm:"column:product_slug;not null"`
	SizeLabel            string            `gorm:"column:size_label;not null"`
	SKU                  *string           `gorm:"column:sku"`
	Quantity             int               `gorm:"column:quantity;not null"`
	BasketItems          string            `gorm:"column:basket_items;type:text"`
	CustomerName         string            `gorm:"column:customer_name;not null"`
	CustomerCompany      *string           `gorm:"column:customer_company"`
	CustomerEmail        string            `gorm:"column:customer_email;not null"`
	CustomerPhone        string            `gorm:"column:customer_phone;not null"`
	DeliveryAddressLine1 string            `gorm:"column:delivery_address_line1;not null"`
	DeliveryAddressLine2 *string           `gorm:"column:delivery_address_line2"`
	DeliveryTown         string            `gorm:"column:delivery_town;not null"`
	DeliveryCounty       *string           `gorm:"column:delivery_county"`
	DeliveryPostcode     string            `gorm:"column:delivery_postcode;not null"`
	Notes                *string           `gorm:"column:notes"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = enums.OrderStatusNew
	}
	return nil
}
