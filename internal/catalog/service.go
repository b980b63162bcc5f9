package catalog

import (
	"context"
	"fmt"
)

// ProductSizes is the resolved size picker for one product.
type ProductSizes struct {
	Slug     string          `json:"slug"`
	Title    string          `json:"title"`
	Sizes    []PackSizeOffer `json:"sizes"`
	SizeHint string          `json:"sizeHint"`
}

// Service resolves the sizes a product can be ordered in.
type Service interface {
	Sizes(ctx context.Context, slug string) (*ProductSizes, error)
}

type service struct {
	source ContentSource
}

// NewService builds a catalog service on top of a content source.
func NewService(source ContentSource) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("content source required")
	}
	return &service{source: source}, nil
}

func (s *service) Sizes(ctx context.Context, slug string) (*ProductSizes, error) {
	product, err := s.source.ProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	sizes := ResolveSizes(product.Offers, product.Unavailable)
	return &ProductSizes{
		Slug:     product.Slug,
		Title:    product.Title,
		Sizes:    sizes,
		SizeHint: SizeHint(sizes),
	}, nil
}
