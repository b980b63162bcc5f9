package checkout

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomerDetails is the delivery and contact form collected before an order
// is sent. Fields are stored trimmed.
type CustomerDetails struct {
	Name         string `json:"name" validate:"required"`
	Company      string `json:"company"`
	Email        string `json:"email" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2"`
	Town         string `json:"town" validate:"required"`
	County       string `json:"county"`
	Postcode     string `json:"postcode" validate:"required"`
	Notes        string `json:"notes"`
}

var detailsValidator = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}()

// Normalize returns a copy with surrounding whitespace removed.
func (d CustomerDetails) Normalize() CustomerDetails {
	return CustomerDetails{
		Name:         strings.TrimSpace(d.Name),
		Company:      strings.TrimSpace(d.Company),
		Email:        strings.TrimSpace(d.Email),
		Phone:        strings.TrimSpace(d.Phone),
		AddressLine1: strings.TrimSpace(d.AddressLine1),
		AddressLine2: strings.TrimSpace(d.AddressLine2),
		Town:         strings.TrimSpace(d.Town),
		County:       strings.TrimSpace(d.County),
		Postcode:     strings.TrimSpace(d.Postcode),
		Notes:        strings.TrimSpace(d.Notes),
	}
}

// Missing lists the JSON names of mandatory fields that are blank.
func (d CustomerDetails) Missing() []string {
	err := detailsValidator.Struct(d.Normalize())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return missing
}

func (d CustomerDetails) Complete() bool {
	return len(d.Missing()) == 0
}
