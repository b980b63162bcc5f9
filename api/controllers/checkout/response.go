package checkout

import (
	"github.com/google/uuid"

	"github.com/midlandoil/storefront/internal/catalog"
	checkoutsvc "github.com/midlandoil/storefront/internal/checkout"
	"github.com/midlandoil/storefront/pkg/enums"
)

type sessionView struct {
	ID           uuid.UUID                   `json:"id"`
	Open         bool                        `json:"open"`
	Step         enums.CheckoutStep          `json:"step"`
	Header       string                      `json:"header"`
	CanGoBack    bool                        `json:"canGoBack"`
	Product      productView                 `json:"product"`
	Sizes        []catalog.PackSizeOffer     `json:"sizes"`
	Pending      pendingView                 `json:"pending"`
	Basket       basketView                  `json:"basket"`
	Details      checkoutsvc.CustomerDetails `json:"details"`
	Submitting   bool                        `json:"submitting"`
	ErrorMessage string                      `json:"errorMessage,omitempty"`
	Actions      actionsView                 `json:"actions"`
}

type productView struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type pendingView struct {
	Label    string `json:"label,omitempty"`
	Quantity int    `json:"quantity"`
}

type basketView struct {
	Lines         []basketLineView `json:"lines"`
	TotalQuantity int              `json:"totalQuantity"`
	SizeSummary   string           `json:"sizeSummary"`
}

type basketLineView struct {
	Label    string `json:"label"`
	SKU      string `json:"sku,omitempty"`
	Price    string `json:"price,omitempty"`
	Quantity int    `json:"quantity"`
}

type actionsView struct {
	CanConfirmAdd bool `json:"canConfirmAdd"`
	CanViewBasket bool `json:"canViewBasket"`
	CanContinue   bool `json:"canContinue"`
	CanSubmit     bool `json:"canSubmit"`
}

func newSessionView(s *checkoutsvc.Session) sessionView {
	actions := s.Actions()

	basket := basketView{Lines: []basketLineView{}}
	if s.Basket != nil {
		for _, line := range s.Basket.Lines() {
			basket.Lines = append(basket.Lines, basketLineView{
				Label:    line.Size.Label,
				SKU:      line.Size.SKU,
				Price:    line.Size.Price,
				Quantity: line.Quantity,
			})
		}
		basket.TotalQuantity = s.Basket.TotalQuantity()
		basket.SizeSummary = s.Basket.SizeSummaryLabel()
	}

	sizes := s.Sizes
	if sizes == nil {
		sizes = []catalog.PackSizeOffer{}
	}

	return sessionView{
		ID:           s.ID,
		Open:         s.Active,
		Step:         s.Step,
		Header:       s.Header(),
		CanGoBack:    actions.CanGoBack,
		Product:      productView{Title: s.ProductTitle, Slug: s.ProductSlug},
		Sizes:        sizes,
		Pending:      pendingView{Label: s.PendingLabel, Quantity: s.PendingQuantity},
		Basket:       basket,
		Details:      s.Details,
		Submitting:   s.Submitting,
		ErrorMessage: s.ErrorMessage,
		Actions: actionsView{
			CanConfirmAdd: actions.CanConfirmAdd,
			CanViewBasket: actions.CanViewBasket,
			CanContinue:   actions.CanContinue,
			CanSubmit:     actions.CanSubmit,
		},
	}
}
