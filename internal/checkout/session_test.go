package checkout

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/midlandoil/storefront/internal/basket"
	"github.com/midlandoil/storefront/internal/catalog"
	"github.com/midlandoil/storefront/pkg/enums"
	pkgerrors "github.com/midlandoil/storefront/pkg/errors"
)

func testProduct() catalog.ProductSizes {
	offers := []catalog.PackSizeOffer{
		{Label: "5L", SKU: "EO-5"},
		{Label: "20L", SKU: "EO-20"},
	}
	sizes := catalog.ResolveSizes(offers, []string{"Bulk Tanker"})
	return catalog.ProductSizes{Slug: "engine-oil", Title: "Engine Oil", Sizes: sizes, SizeHint: catalog.SizeHint(sizes)}
}

func completeDetails() CustomerDetails {
	return CustomerDetails{
		Name:         "Jo Bloggs",
		Company:      "Bloggs Haulage",
		Email:        "jo@example.com",
		Phone:        "01234 567890",
		AddressLine1: "1 Depot Road",
		Town:         "Leicester",
		Postcode:     "LE1 1AA",
	}
}

func openSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(uuid.New(), testProduct(), time.Now())
	s.Open()
	return s
}

func mustDo(t *testing.T, step string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", step, err)
	}
}

func addSize(t *testing.T, s *Session, label string, qty int) {
	t.Helper()
	mustDo(t, "choose "+label, s.ChooseSize(label))
	mustDo(t, "quantity", s.SetPendingQuantity(qty))
	mustDo(t, "confirm", s.ConfirmAdd())
}

func toDetails(t *testing.T, s *Session) {
	t.Helper()
	mustDo(t, "continue", s.Continue())
	mustDo(t, "details", s.UpdateDetails(completeDetails()))
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if !pkgerrors.IsCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestOpen_StartsOnSizePicker(t *testing.T) {
	s := NewSession(uuid.New(), testProduct(), time.Now())
	if s.Active {
		t.Fatal("new session should start closed")
	}
	s.Open()
	if !s.Active || s.Step != enums.CheckoutStepSelectSize || s.PendingQuantity != 1 || s.PendingLabel != "" {
		t.Fatalf("unexpected opened session %+v", s)
	}
	if s.Header() != "Add to basket" {
		t.Fatalf("unexpected header %q", s.Header())
	}
	if s.Actions().CanGoBack {
		t.Fatal("back should be hidden on the size picker")
	}
}

func TestConfirmAdd_MergesAndResetsSelection(t *testing.T) {
	s := openSession(t)
	addSize(t, s, "5L", 2)

	if s.Step != enums.CheckoutStepBasketReview {
		t.Fatalf("expected basket review, got %s", s.Step)
	}
	if s.PendingLabel != "" || s.PendingQuantity != 1 {
		t.Fatalf("pending selection should reset, got %q/%d", s.PendingLabel, s.PendingQuantity)
	}

	mustDo(t, "add another", s.AddAnother())
	addSize(t, s, "5L", 3)

	if s.Basket.Len() != 1 {
		t.Fatalf("expected merged line, got %+v", s.Basket.Lines())
	}
	if line, _ := s.Basket.LineFor("5L"); line.Quantity != 5 || line.Size.SKU != "EO-5" {
		t.Fatalf("unexpected line %+v", line)
	}
	if s.Header() != "Basket (5 items)" {
		t.Fatalf("unexpected header %q", s.Header())
	}
}

func TestConfirmAdd_RequiresSelection(t *testing.T) {
	s := openSession(t)
	assertCode(t, s.ConfirmAdd(), pkgerrors.CodeStateConflict)
	if s.Actions().CanConfirmAdd {
		t.Fatal("confirm should be disabled without a size")
	}
	assertCode(t, s.ChooseSize("Bulk Tanker"), pkgerrors.CodeValidation)
	assertCode(t, s.SetPendingQuantity(0), pkgerrors.CodeValidation)
	assertCode(t, s.SetPendingQuantity(basket.MaxLineQuantity+1), pkgerrors.CodeValidation)
}

func TestConfirmAdd_LineCap(t *testing.T) {
	s := openSession(t)
	addSize(t, s, "5L", basket.MaxLineQuantity)
	mustDo(t, "add another", s.AddAnother())
	mustDo(t, "choose", s.ChooseSize("5L"))

	assertCode(t, s.ConfirmAdd(), pkgerrors.CodeValidation)
	if s.Step != enums.CheckoutStepSelectSize {
		t.Fatalf("failed add should stay on the picker, got %s", s.Step)
	}
}

func TestHeaderLabels(t *testing.T) {
	s := openSession(t)
	addSize(t, s, "5L", 1)
	if got := s.Header(); got != "Basket (1 item)" {
		t.Fatalf("unexpected header %q", got)
	}
	mustDo(t, "remove", s.RemoveLine("5L"))
	if got := s.Header(); got != "Basket" {
		t.Fatalf("unexpected empty basket header %q", got)
	}
	assertCode(t, s.Continue(), pkgerrors.CodeStateConflict)

	mustDo(t, "add another", s.AddAnother())
	addSize(t, s, "20L", 2)
	mustDo(t, "continue", s.Continue())
	if got := s.Header(); got != "Your details" {
		t.Fatalf("unexpected header %q", got)
	}
}

func TestViewBasket_RequiresLines(t *testing.T) {
	s := openSession(t)
	assertCode(t, s.ViewBasket(), pkgerrors.CodeStateConflict)

	addSize(t, s, "5L", 1)
	mustDo(t, "add another", s.AddAnother())
	if !s.Actions().CanViewBasket {
		t.Fatal("view basket should be enabled once a line exists")
	}
	mustDo(t, "view", s.ViewBasket())
	if s.Step != enums.CheckoutStepBasketReview {
		t.Fatalf("expected basket review, got %s", s.Step)
	}
}

func TestBasketEdits(t *testing.T) {
	s := openSession(t)
	addSize(t, s, "5L", 2)

	mustDo(t, "update", s.UpdateLineQuantity("5L", 4))
	assertCode(t, s.UpdateLineQuantity("5L", 0), pkgerrors.CodeValidation)
	assertCode(t, s.UpdateLineQuantity("20L", 1), pkgerrors.CodeNotFound)
	assertCode(t, s.RemoveLine("20L"), pkgerrors.CodeNotFound)

	if line, _ := s.Basket.LineFor("5L"); line.Quantity != 4 {
		t.Fatalf("expected qty 4, got %d", line.Quantity)
	}
}

func TestBack(t *testing.T) {
	s := openSession(t)
	assertCode(t, s.Back(), pkgerrors.CodeStateConflict)

	addSize(t, s, "5L", 1)
	toDetails(t, s)

	mustDo(t, "back to basket", s.Back())
	if s.Step != enums.CheckoutStepBasketReview {
		t.Fatalf("expected basket review, got %s", s.Step)
	}
	mustDo(t, "continue", s.Continue())
	if s.Details != completeDetails() {
		t.Fatalf("details should survive going back, got %+v", s.Details)
	}

	mustDo(t, "back", s.Back())
	mustDo(t, "back", s.Back())
	if s.Step != enums.CheckoutStepSelectSize {
		t.Fatalf("expected size picker, got %s", s.Step)
	}
}

func TestTransitionsRequireOpenSession(t *testing.T) {
	s := openSession(t)
	addSize(t, s, "5L", 1)
	s.Close()

	assertCode(t, s.AddAnother(), pkgerrors.CodeStateConflict)
	assertCode(t, s.ChooseSize("5L"), pkgerrors.CodeStateConflict)
	if s.Actions() != (Actions{}) {
		t.Fatalf("closed session should expose no actions, got %+v", s.Actions())
	}

	s.Open()
	if s.Basket.TotalQuantity() != 1 {
		t.Fatal("closing should keep the basket")
	}
	if s.Step != enums.CheckoutStepSelectSize {
		t.Fatalf("reopen should land on the picker, got %s", s.Step)
	}
}

func TestBeginSubmit_IncompleteFormIsRejectedWithoutChange(t *testing.T) {
	s := openSession(t)
	addSize(t, s, "5L", 1)
	mustDo(t, "continue", s.Continue())

	partial := completeDetails()
	partial.Phone = "   "
	partial.Postcode = ""
	mustDo(t, "details", s.UpdateDetails(partial))
	if s.Actions().CanSubmit {
		t.Fatal("submit should be disabled with missing fields")
	}

	before := *s
	_, err := s.BeginSubmit(time.Now())
	assertCode(t, err, pkgerrors.CodeValidation)
	typed := pkgerrors.As(err)
	missing := typed.Details().(map[string]any)["missing"]
	if !reflect.DeepEqual(missing, []string{"phone", "postcode"}) {
		t.Fatalf("unexpected missing fields %v", missing)
	}
	if s.Submitting || s.SubmissionNonce != "" || s.Generation != before.Generation {
		t.Fatalf("rejected submit should not touch the session: %+v", s)
	}
}

func TestSubmit_MultipleSizesSuccess(t *testing.T) {
	s := openSession(t)
	addSize(t, s, "5L", 2)
	mustDo(t, "add another", s.AddAnother())
	addSize(t, s, "20L", 1)
	toDetails(t, s)

	sub, err := s.BeginSubmit(time.Now())
	mustDo(t, "begin", err)

	req := sub.Request
	if req.SizeLabel != basket.MultipleSizesLabel || req.Quantity != 3 {
		t.Fatalf("unexpected summary %q/%d", req.SizeLabel, req.Quantity)
	}
	if req.SKU != nil {
		t.Fatalf("multi-line orders carry no top-level sku, got %v", *req.SKU)
	}
	if len(req.Lines) != 2 || req.Lines[0].Size != "5L" || req.Lines[0].Qty != 2 || *req.Lines[1].SKU != "EO-20" {
		t.Fatalf("unexpected lines %+v", req.Lines)
	}
	if req.ProductTitle != "Engine Oil" || req.ProductSlug != "engine-oil" {
		t.Fatalf("unexpected product %+v", req)
	}
	if req.IdempotencyKey != s.ID.String()+":"+s.SubmissionNonce {
		t.Fatalf("unexpected idempotency key %q", req.IdempotencyKey)
	}

	if !s.Submitting || s.Actions().CanSubmit {
		t.Fatal("session should be in flight with submit disabled")
	}
	if _, err := s.BeginSubmit(time.Now()); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("second submit should conflict, got %v", err)
	}
	assertCode(t, s.UpdateDetails(completeDetails()), pkgerrors.CodeStateConflict)
	assertCode(t, s.Back(), pkgerrors.CodeStateConflict)

	if !s.CompleteSubmit(sub, nil) {
		t.Fatal("expected outcome to apply")
	}
	if s.Step != enums.CheckoutStepSuccess || s.Header() != "Order received" || s.Submitting {
		t.Fatalf("unexpected final state %+v", s)
	}
	assertCode(t, s.Back(), pkgerrors.CodeStateConflict)
}

func TestSubmit_SingleLineCarriesSKU(t *testing.T) {
	s := openSession(t)
	addSize(t, s, "20L", 4)
	toDetails(t, s)

	sub, err := s.BeginSubmit(time.Now())
	mustDo(t, "begin", err)
	if sub.Request.SizeLabel != "20L" || sub.Request.SKU == nil || *sub.Request.SKU != "EO-20" {
		t.Fatalf("unexpected single line request %+v", sub.Request)
	}

	s2 := openSession(t)
	addSize(t, s2, "1L", 1)
	toDetails(t, s2)
	sub2, err := s2.BeginSubmit(time.Now())
	mustDo(t, "begin", err)
	if sub2.Request.SKU != nil || sub2.Request.Lines[0].SKU != nil {
		t.Fatal("bare canonical sizes have no sku")
	}
}

func TestSubmit_FailureKeepsForm(t *testing.T) {
	s := openSession(t)
	addSize(t, s, "5L", 1)
	toDetails(t, s)

	sub, err := s.BeginSubmit(time.Now())
	mustDo(t, "begin", err)
	nonce := s.SubmissionNonce

	if !s.CompleteSubmit(sub, errors.New("connection refused")) {
		t.Fatal("expected outcome to apply")
	}
	if s.Step != enums.CheckoutStepDetailsForm {
		t.Fatalf("expected details form, got %s", s.Step)
	}
	if s.ErrorMessage != MessageRejected {
		t.Fatalf("unexpected message %q", s.ErrorMessage)
	}
	if s.Details != completeDetails() {
		t.Fatalf("form should be unchanged, got %+v", s.Details)
	}
	if !s.Actions().CanSubmit {
		t.Fatal("submit should be re-enabled")
	}

	retry, err := s.BeginSubmit(time.Now())
	mustDo(t, "retry", err)
	if s.SubmissionNonce != nonce || retry.Request.IdempotencyKey != sub.Request.IdempotencyKey {
		t.Fatal("a retry of the same order should reuse the idempotency key")
	}
	if s.ErrorMessage != "" {
		t.Fatal("a new attempt clears the previous error")
	}
}

func TestSubmit_ChangedOrderGetsNewKey(t *testing.T) {
	s := openSession(t)
	addSize(t, s, "5L", 1)
	toDetails(t, s)

	first, err := s.BeginSubmit(time.Now())
	mustDo(t, "begin", err)
	s.CompleteSubmit(first, errors.New("boom"))

	changed := completeDetails()
	changed.Notes = "Deliver after 2pm"
	mustDo(t, "edit", s.UpdateDetails(changed))

	second, err := s.BeginSubmit(time.Now())
	mustDo(t, "begin", err)
	if second.Request.IdempotencyKey == first.Request.IdempotencyKey {
		t.Fatal("changed order contents should mint a new key")
	}
}

func TestCompleteSubmit_IgnoresStaleTickets(t *testing.T) {
	s := openSession(t)
	addSize(t, s, "5L", 1)
	toDetails(t, s)

	sub, err := s.BeginSubmit(time.Now())
	mustDo(t, "begin", err)
	s.Close()

	if s.CompleteSubmit(sub, nil) {
		t.Fatal("outcome after close should be ignored")
	}
	s.Open()
	if s.CompleteSubmit(sub, nil) {
		t.Fatal("outcome after reopen should be ignored")
	}
	if s.Step != enums.CheckoutStepSelectSize || s.Submitting {
		t.Fatalf("stale completion changed the session: %+v", s)
	}
	if s.Basket.TotalQuantity() != 1 {
		t.Fatal("basket should survive")
	}
}

func TestReleaseStaleSubmission(t *testing.T) {
	s := openSession(t)
	addSize(t, s, "5L", 2)
	toDetails(t, s)

	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lost, err := s.BeginSubmit(started)
	mustDo(t, "begin", err)
	key := s.IdempotencyKey()

	if s.ReleaseStaleSubmission(started.Add(time.Minute), time.Minute) {
		t.Fatal("submission at the limit should still be in flight")
	}
	if _, err := s.BeginSubmit(started.Add(time.Minute)); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected submit twice conflict, got %v", err)
	}

	if !s.ReleaseStaleSubmission(started.Add(time.Minute+time.Second), time.Minute) {
		t.Fatal("expected stale submission to be released")
	}
	if s.Submitting || !s.SubmitStartedAt.IsZero() {
		t.Fatalf("in-flight flag should be cleared: %+v", s)
	}
	if s.ErrorMessage != MessageUnconfirmed {
		t.Fatalf("unexpected message %q", s.ErrorMessage)
	}
	if !s.Actions().CanSubmit || !s.Actions().CanGoBack {
		t.Fatalf("released session should allow submit and back: %+v", s.Actions())
	}
	if s.CompleteSubmit(lost, nil) {
		t.Fatal("lost ticket should be orphaned")
	}

	retry, err := s.BeginSubmit(started.Add(2 * time.Minute))
	mustDo(t, "retry", err)
	if retry.Request.IdempotencyKey != key {
		t.Fatalf("retry should reuse key %q, got %q", key, retry.Request.IdempotencyKey)
	}
	if s.ReleaseStaleSubmission(started.Add(2*time.Minute), time.Minute) {
		t.Fatal("fresh submission should not be released")
	}
}

func TestReopenAfterSuccessStartsClean(t *testing.T) {
	s := openSession(t)
	addSize(t, s, "5L", 2)
	toDetails(t, s)
	sub, err := s.BeginSubmit(time.Now())
	mustDo(t, "begin", err)
	s.CompleteSubmit(sub, nil)

	s.Close()
	s.Open()

	if !s.Basket.IsEmpty() || s.Details != (CustomerDetails{}) || s.SubmissionNonce != "" {
		t.Fatalf("completed order should not be resurrected: %+v", s)
	}
}

func TestPublicMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: ErrSinkUnconfigured, want: MessageUnconfigured},
		{err: fmt.Errorf("wrap: %w", ErrSinkUnconfigured), want: MessageUnconfigured},
		{err: context.DeadlineExceeded, want: MessageTimeout},
		{err: errors.New("pq: relation does not exist"), want: MessageRejected},
	}
	for _, tc := range cases {
		if got := PublicMessage(tc.err); got != tc.want {
			t.Fatalf("PublicMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestCustomerDetailsMissing(t *testing.T) {
	if missing := (CustomerDetails{}).Missing(); !reflect.DeepEqual(missing, []string{"name", "email", "phone", "addressLine1", "town", "postcode"}) {
		t.Fatalf("unexpected missing list %v", missing)
	}
	if !completeDetails().Complete() {
		t.Fatal("expected complete details")
	}
	d := completeDetails()
	d.Name = "  Jo  "
	if d.Normalize().Name != "Jo" {
		t.Fatal("expected trimmed name")
	}
}
