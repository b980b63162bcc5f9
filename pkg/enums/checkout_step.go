package enums

import "fmt"

// CheckoutStep names the wizard screen a checkout session is on.
type CheckoutStep string

const (
	CheckoutStepSelectSize   CheckoutStep = "select_size"
	CheckoutStepBasketReview CheckoutStep = "basket_review"
	CheckoutStepDetailsForm  CheckoutStep = "details_form"
	CheckoutStepSuccess      CheckoutStep = "success"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepSelectSize,
	CheckoutStepBasketReview,
	CheckoutStepDetailsForm,
	CheckoutStepSuccess,
}

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStep.
func (c CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
