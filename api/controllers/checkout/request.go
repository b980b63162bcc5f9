package checkout

import (
	"github.com/midlandoil/storefront/api/validators"
	checkoutsvc "github.com/midlandoil/storefront/internal/checkout"
)

const (
	maxLabelLen    = 64
	maxNameLen     = 120
	maxEmailLen    = 254
	maxPhoneLen    = 40
	maxAddressLen  = 200
	maxPostcodeLen = 16
	maxNotesLen    = 2000
)

type createSessionRequest struct {
	ProductSlug string `json:"productSlug" validate:"required,max=200"`
}

type chooseSizeRequest struct {
	Label string `json:"label" validate:"required,max=64"`
}

type quantityRequest struct {
	Quantity int `json:"quantity" validate:"min=1,max=9999"`
}

// detailsRequest is the whole details form. Required fields are only
// enforced at submit time so partially filled forms can be saved.
type detailsRequest struct {
	Name         string `json:"name" validate:"max=500"`
	Company      string `json:"company" validate:"max=500"`
	Email        string `json:"email" validate:"omitempty,max=254,email"`
	Phone        string `json:"phone" validate:"max=100"`
	AddressLine1 string `json:"addressLine1" validate:"max=500"`
	AddressLine2 string `json:"addressLine2" validate:"max=500"`
	Town         string `json:"town" validate:"max=500"`
	County       string `json:"county" validate:"max=500"`
	Postcode     string `json:"postcode" validate:"max=100"`
	Notes        string `json:"notes" validate:"max=5000"`
}

func (d detailsRequest) toDetails() checkoutsvc.CustomerDetails {
	return checkoutsvc.CustomerDetails{
		Name:         validators.SanitizeLine(d.Name, maxNameLen),
		Company:      validators.SanitizeLine(d.Company, maxNameLen),
		Email:        validators.SanitizeLine(d.Email, maxEmailLen),
		Phone:        validators.SanitizeLine(d.Phone, maxPhoneLen),
		AddressLine1: validators.SanitizeLine(d.AddressLine1, maxAddressLen),
		AddressLine2: validators.SanitizeLine(d.AddressLine2, maxAddressLen),
		Town:         validators.SanitizeLine(d.Town, maxNameLen),
		County:       validators.SanitizeLine(d.County, maxNameLen),
		Postcode:     validators.SanitizeLine(d.Postcode, maxPostcodeLen),
		Notes:        validators.SanitizeString(d.Notes, maxNotesLen),
	}
}
