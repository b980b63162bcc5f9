package controllers

import (
	"net/http"

	"github.com/midlandoil/storefront/api/responses"
	"github.com/midlandoil/storefront/api/validators"
	"github.com/midlandoil/storefront/internal/catalog"
	pkgerrors "github.com/midlandoil/storefront/pkg/errors"
	"github.com/midlandoil/storefront/pkg/logger"
)

const maxSlugLen = 200

type productSizesResponse struct {
	Product  productRef              `json:"product"`
	Sizes    []catalog.PackSizeOffer `json:"sizes"`
	SizeHint string                  `json:"sizeHint"`
}

type productRef struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// ProductSizes returns the resolved pack sizes for a product page.
func ProductSizes(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		slug, err := validators.ParseStringParam(r, "slug", maxSlugLen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Sizes(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productSizesResponse{
			Product:  productRef{Title: product.Title, Slug: product.Slug},
			Sizes:    product.Sizes,
			SizeHint: product.SizeHint,
		})
	}
}
