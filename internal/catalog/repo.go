package catalog

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/midlandoil/storefront/pkg/db/models"
	pkgerrors "github.com/midlandoil/storefront/pkg/errors"
)

// Product is what the purchase workflow needs from the content source.
type Product struct {
	Slug        string
	Title       string
	Offers      []PackSizeOffer
	Unavailable []string
}

// ContentSource loads product content by slug. Implementations return a
// NOT_FOUND error for unknown slugs.
type ContentSource interface {
	ProductBySlug(ctx context.Context, slug string) (*Product, error)
}

// Repository reads products and their pack size overrides with GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ProductBySlug implements ContentSource.
func (r *Repository) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required")
	}

	var row models.Product
	err := r.db.WithContext(ctx).
		Preload("PackSizes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("slug = ?", slug).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	return productFromModel(row), nil
}

func productFromModel(row models.Product) *Product {
	offers := make([]PackSizeOffer, 0, len(row.PackSizes))
	for _, ps := range row.PackSizes {
		offers = append(offers, PackSizeOffer{
			Label:    ps.Label,
			SKU:      deref(ps.SKU),
			Price:    deref(ps.Price),
			LeadTime: deref(ps.LeadTime),
			MOQ:      deref(ps.MOQ),
			Notes:    deref(ps.Notes),
			ImageURL: deref(ps.ImageURL),
		})
	}
	unavailable := make([]string, len(row.UnavailablePackSizes))
	copy(unavailable, row.UnavailablePackSizes)
	return &Product{
		Slug:        row.Slug,
		Title:       row.Title,
		Offers:      offers,
		Unavailable: unavailable,
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

// UnconfiguredSource answers every lookup with NOT_FOUND. The API uses it when
// no database is configured.
type UnconfiguredSource struct{}

func (UnconfiguredSource) ProductBySlug(context.Context, string) (*Product, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}
