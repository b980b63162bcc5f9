package checkout

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/midlandoil/storefront/internal/basket"
	"github.com/midlandoil/storefront/internal/catalog"
	"github.com/midlandoil/storefront/pkg/enums"
	pkgerrors "github.com/midlandoil/storefront/pkg/errors"
)

// Session is one visitor's purchase wizard for a single product. Every
// transition is a plain method with no I/O; the Service persists the result.
//
// Step is only meaningful while Active is true. Closing keeps the step so that
// reopening after a completed order can start from a clean basket.
type Session struct {
	ID           uuid.UUID               `json:"id"`
	ProductSlug  string                  `json:"productSlug"`
	ProductTitle string                  `json:"productTitle"`
	Sizes        []catalog.PackSizeOffer `json:"sizes"`

	Active          bool               `json:"open"`
	Step            enums.CheckoutStep `json:"step"`
	PendingLabel    string             `json:"pendingLabel,omitempty"`
	PendingQuantity int                `json:"pendingQuantity"`
	Basket          *basket.Basket     `json:"basket"`
	Details         CustomerDetails    `json:"details"`

	Submitting      bool   `json:"submitting"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
	Generation      int64  `json:"generation"`
	SubmissionNonce string `json:"submissionNonce,omitempty"`

	SubmitStartedAt time.Time `json:"submitStartedAt,omitzero"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Submission is the ticket returned by BeginSubmit. Its outcome only applies
// to the session if the generation still matches when it comes back.
type Submission struct {
	SessionID  uuid.UUID
	Generation int64
	Request    OrderRequest
}

// NewSession builds a closed session for the resolved product.
func NewSession(id uuid.UUID, product catalog.ProductSizes, now time.Time) *Session {
	sizes := make([]catalog.PackSizeOffer, len(product.Sizes))
	copy(sizes, product.Sizes)
	return &Session{
		ID:              id,
		ProductSlug:     product.Slug,
		ProductTitle:    product.Title,
		Sizes:           sizes,
		Step:            enums.CheckoutStepSelectSize,
		PendingQuantity: 1,
		Basket:          basket.New(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func stateConflict(action string, s *Session) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s now", action)).
		WithDetails(map[string]any{"action": action, "step": s.Step, "open": s.Active, "submitting": s.Submitting})
}

func (s *Session) require(action string, step enums.CheckoutStep) error {
	if !s.Active || s.Step != step {
		return stateConflict(action, s)
	}
	return nil
}

func (s *Session) ensureBasket() {
	if s.Basket == nil {
		s.Basket = basket.New()
	}
}

// invalidateSubmission drops the idempotency nonce after the order contents change.
func (s *Session) invalidateSubmission() {
	s.SubmissionNonce = ""
}

// Open shows the wizard on the size picker. A session reopened after a
// completed order starts with an empty basket and form.
func (s *Session) Open() {
	s.ensureBasket()
	if s.Step == enums.CheckoutStepSuccess {
		s.Basket.Reset()
		s.Details = CustomerDetails{}
		s.invalidateSubmission()
	}
	s.Active = true
	s.Step = enums.CheckoutStepSelectSize
	s.PendingLabel = ""
	s.PendingQuantity = 1
	s.Submitting = false
	s.SubmitStartedAt = time.Time{}
	s.ErrorMessage = ""
	s.Generation++
}

// Close hides the wizard from any state. The basket survives; an in-flight
// submission is orphaned by the generation bump.
func (s *Session) Close() {
	if !s.Active {
		return
	}
	s.Active = false
	s.Submitting = false
	s.SubmitStartedAt = time.Time{}
	s.ErrorMessage = ""
	s.Generation++
}

func (s *Session) ChooseSize(label string) error {
	if err := s.require("choose a size", enums.CheckoutStepSelectSize); err != nil {
		return err
	}
	if _, ok := catalog.FindSize(s.Sizes, label); !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "size is not offered for this product").
			WithDetails(map[string]any{"label": label})
	}
	s.PendingLabel = label
	return nil
}

func (s *Session) SetPendingQuantity(qty int) error {
	if err := s.require("change the quantity", enums.CheckoutStepSelectSize); err != nil {
		return err
	}
	if qty < 1 || qty > basket.MaxLineQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", basket.MaxLineQuantity))
	}
	s.PendingQuantity = qty
	return nil
}

// ConfirmAdd merges the pending selection into the basket and moves to review.
func (s *Session) ConfirmAdd() error {
	if err := s.require("add to basket", enums.CheckoutStepSelectSize); err != nil {
		return err
	}
	if s.PendingLabel == "" {
		return stateConflict("add to basket without a size", s)
	}
	offer, ok := catalog.FindSize(s.Sizes, s.PendingLabel)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "size is not offered for this product")
	}
	s.ensureBasket()
	if !s.Basket.AddOrMerge(offer, s.PendingQuantity) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("a basket line cannot exceed %d", basket.MaxLineQuantity))
	}
	s.invalidateSubmission()
	s.Step = enums.CheckoutStepBasketReview
	s.PendingLabel = ""
	s.PendingQuantity = 1
	return nil
}

func (s *Session) ViewBasket() error {
	if err := s.require("view the basket", enums.CheckoutStepSelectSize); err != nil {
		return err
	}
	if s.Basket == nil || s.Basket.IsEmpty() {
		return stateConflict("view an empty basket", s)
	}
	s.Step = enums.CheckoutStepBasketReview
	return nil
}

func (s *Session) AddAnother() error {
	if err := s.require("add another size", enums.CheckoutStepBasketReview); err != nil {
		return err
	}
	s.Step = enums.CheckoutStepSelectSize
	s.PendingLabel = ""
	s.PendingQuantity = 1
	return nil
}

func (s *Session) UpdateLineQuantity(label string, qty int) error {
	if err := s.require("update the basket", enums.CheckoutStepBasketReview); err != nil {
		return err
	}
	if qty < 1 || qty > basket.MaxLineQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", basket.MaxLineQuantity))
	}
	s.ensureBasket()
	if _, ok := s.Basket.LineFor(label); !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "basket line not found").WithDetails(map[string]any{"label": label})
	}
	if s.Basket.SetQuantity(label, qty) {
		s.invalidateSubmission()
	}
	return nil
}

func (s *Session) RemoveLine(label string) error {
	if err := s.require("update the basket", enums.CheckoutStepBasketReview); err != nil {
		return err
	}
	s.ensureBasket()
	if !s.Basket.Remove(label) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "basket line not found").WithDetails(map[string]any{"label": label})
	}
	s.invalidateSubmission()
	return nil
}

// Continue moves from the basket to the details form.
func (s *Session) Continue() error {
	if err := s.require("continue", enums.CheckoutStepBasketReview); err != nil {
		return err
	}
	if s.Basket == nil || s.Basket.IsEmpty() {
		return stateConflict("continue with an empty basket", s)
	}
	s.Step = enums.CheckoutStepDetailsForm
	return nil
}

// Back steps to the previous screen. The details form keeps its values.
func (s *Session) Back() error {
	if !s.Active || s.Submitting {
		return stateConflict("go back", s)
	}
	switch s.Step {
	case enums.CheckoutStepDetailsForm:
		s.Step = enums.CheckoutStepBasketReview
	case enums.CheckoutStepBasketReview:
		s.Step = enums.CheckoutStepSelectSize
		s.PendingLabel = ""
		s.PendingQuantity = 1
	default:
		return stateConflict("go back", s)
	}
	return nil
}

func (s *Session) UpdateDetails(details CustomerDetails) error {
	if err := s.require("edit details", enums.CheckoutStepDetailsForm); err != nil {
		return err
	}
	if s.Submitting {
		return stateConflict("edit details while submitting", s)
	}
	details = details.Normalize()
	if details != s.Details {
		s.invalidateSubmission()
	}
	s.Details = details
	return nil
}

// ReleaseStaleSubmission clears an in-flight flag whose outcome was never
// recorded, for example when the session store failed after the sink call.
// The nonce is kept so a retry reuses the idempotency key. The generation bump
// orphans the lost ticket in case it does come back.
func (s *Session) ReleaseStaleSubmission(now time.Time, staleAfter time.Duration) bool {
	if !s.Submitting || s.SubmitStartedAt.IsZero() || now.Sub(s.SubmitStartedAt) <= staleAfter {
		return false
	}
	s.Submitting = false
	s.SubmitStartedAt = time.Time{}
	s.ErrorMessage = MessageUnconfirmed
	s.Generation++
	return true
}

// BeginSubmit freezes the order request and marks the session in flight.
func (s *Session) BeginSubmit(now time.Time) (Submission, error) {
	if err := s.require("submit", enums.CheckoutStepDetailsForm); err != nil {
		return Submission{}, err
	}
	if s.Submitting {
		return Submission{}, stateConflict("submit twice", s)
	}
	if s.Basket == nil || s.Basket.IsEmpty() {
		return Submission{}, stateConflict("submit an empty basket", s)
	}
	if missing := s.Details.Missing(); len(missing) > 0 {
		return Submission{}, pkgerrors.New(pkgerrors.CodeValidation, "please complete the required fields").
			WithDetails(map[string]any{"missing": missing})
	}
	if s.SubmissionNonce == "" {
		s.SubmissionNonce = uuid.NewString()
	}
	s.Submitting = true
	s.SubmitStartedAt = now
	s.ErrorMessage = ""
	return Submission{
		SessionID:  s.ID,
		Generation: s.Generation,
		Request:    buildOrderRequest(s, s.IdempotencyKey()),
	}, nil
}

// CompleteSubmit applies the sink outcome. It reports false and leaves the
// session untouched when the ticket is stale.
func (s *Session) CompleteSubmit(sub Submission, sinkErr error) bool {
	if !s.Active || !s.Submitting || sub.SessionID != s.ID || sub.Generation != s.Generation {
		return false
	}
	s.Submitting = false
	s.SubmitStartedAt = time.Time{}
	if sinkErr != nil {
		s.ErrorMessage = PublicMessage(sinkErr)
		return true
	}
	s.ErrorMessage = ""
	s.Step = enums.CheckoutStepSuccess
	s.invalidateSubmission()
	return true
}

// IdempotencyKey identifies the current order contents across retries.
func (s *Session) IdempotencyKey() string {
	if s.SubmissionNonce == "" {
		return ""
	}
	return s.ID.String() + ":" + s.SubmissionNonce
}

// Header is the title shown above the current screen.
func (s *Session) Header() string {
	switch s.Step {
	case enums.CheckoutStepBasketReview:
		total := 0
		if s.Basket != nil {
			total = s.Basket.TotalQuantity()
		}
		switch total {
		case 0:
			return "Basket"
		case 1:
			return "Basket (1 item)"
		default:
			return fmt.Sprintf("Basket (%d items)", total)
		}
	case enums.CheckoutStepDetailsForm:
		return "Your details"
	case enums.CheckoutStepSuccess:
		return "Order received"
	default:
		return "Add to basket"
	}
}

// Actions reports which controls are enabled.
type Actions struct {
	CanGoBack     bool `json:"canGoBack"`
	CanConfirmAdd bool `json:"canConfirmAdd"`
	CanViewBasket bool `json:"canViewBasket"`
	CanContinue   bool `json:"canContinue"`
	CanSubmit     bool `json:"canSubmit"`
}

func (s *Session) Actions() Actions {
	if !s.Active {
		return Actions{}
	}
	hasLines := s.Basket != nil && !s.Basket.IsEmpty()
	return Actions{
		CanGoBack:     !s.Submitting && (s.Step == enums.CheckoutStepBasketReview || s.Step == enums.CheckoutStepDetailsForm),
		CanConfirmAdd: s.Step == enums.CheckoutStepSelectSize && s.PendingLabel != "",
		CanViewBasket: s.Step == enums.CheckoutStepSelectSize && hasLines,
		CanContinue:   s.Step == enums.CheckoutStepBasketReview && hasLines,
		CanSubmit:     s.Step == enums.CheckoutStepDetailsForm && !s.Submitting && hasLines && s.Details.Complete(),
	}
}
