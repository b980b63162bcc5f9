package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/midlandoil/storefront/pkg/types"
)

// Product is the content-source record a product page and its checkout read from.
type Product struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Slug                 string            `gorm:"column:slug;not null;uniqueIndex"`
	Title                string            `gorm:"column:title;not null"`
	UnavailablePackSizes types.StringList  `gorm:"column:unavailable_pack_sizes;type:jsonb;not null"`
	PackSizes            []ProductPackSize `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductPackSize is one size override authored in the CMS. Position keeps the
// editor's ordering, which is the order non-canonical sizes are displayed in.
type ProductPackSize struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Position  int       `gorm:"column:position;not null;default:0"`
	Label     string    `gorm:"column:label;not null"`
	SKU       *string   `gorm:"column:sku"`
	Price     *string   `gorm:"column:price"`
	LeadTime  *string   `gorm:"column:lead_time"`
	MOQ       *string   `gorm:"column:moq"`
	Notes     *string   `gorm:"column:notes"`
	ImageURL  *string   `gorm:"column:image_url"`
}

func (p *ProductPackSize) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
