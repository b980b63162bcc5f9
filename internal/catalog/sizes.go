package catalog

import (
	"fmt"
	"strings"
)

// PackSizeOffer is one size a product can be ordered in. Label is the identity
// key; the remaining fields are display metadata and may be empty.
type PackSizeOffer struct {
	Label    string `json:"label"`
	SKU      string `json:"sku,omitempty"`
	Price    string `json:"price,omitempty"`
	LeadTime string `json:"leadTime,omitempty"`
	MOQ      string `json:"moq,omitempty"`
	Notes    string `json:"notes,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

var canonicalSizes = [...]string{
	"1L",
	"5L",
	"20L",
	"25L",
	"200L",
	"205L",
	"208L",
	"1000L",
	"Bulk Tanker",
}

// CanonicalSizes returns a copy of the standard size ladder in display order.
func CanonicalSizes() []string {
	out := make([]string, len(canonicalSizes))
	copy(out, canonicalSizes[:])
	return out
}

func isCanonical(label string) bool {
	for _, c := range canonicalSizes {
		if c == label {
			return true
		}
	}
	return false
}

// ResolveSizes merges the canonical size ladder with content-source offers.
//
// Canonical labels come first in ladder order, enriched by the first offer
// carrying the same label. Offers outside the ladder follow in source order.
// Labels in unavailable are dropped everywhere and no label is emitted twice.
// Offers with a blank label are ignored.
func ResolveSizes(offers []PackSizeOffer, unavailable []string) []PackSizeOffer {
	excluded := make(map[string]struct{}, len(unavailable))
	for _, label := range unavailable {
		excluded[label] = struct{}{}
	}

	byLabel := make(map[string]PackSizeOffer, len(offers))
	for _, offer := range offers {
		if strings.TrimSpace(offer.Label) == "" {
			continue
		}
		if _, seen := byLabel[offer.Label]; !seen {
			byLabel[offer.Label] = offer
		}
	}

	resolved := make([]PackSizeOffer, 0, len(canonicalSizes)+len(offers))
	emitted := make(map[string]struct{}, len(canonicalSizes)+len(offers))

	for _, label := range canonicalSizes {
		if _, skip := excluded[label]; skip {
			continue
		}
		offer, ok := byLabel[label]
		if !ok {
			offer = PackSizeOffer{Label: label}
		}
		resolved = append(resolved, offer)
		emitted[label] = struct{}{}
	}

	for _, offer := range offers {
		if strings.TrimSpace(offer.Label) == "" || isCanonical(offer.Label) {
			continue
		}
		if _, skip := excluded[offer.Label]; skip {
			continue
		}
		if _, done := emitted[offer.Label]; done {
			continue
		}
		resolved = append(resolved, offer)
		emitted[offer.Label] = struct{}{}
	}

	return resolved
}

// FindSize returns the resolved offer for label.
func FindSize(sizes []PackSizeOffer, label string) (PackSizeOffer, bool) {
	for _, size := range sizes {
		if size.Label == label {
			return size, true
		}
	}
	return PackSizeOffer{}, false
}

// SizeHint is the one-line summary shown above the size picker.
func SizeHint(sizes []PackSizeOffer) string {
	n := len(sizes)
	if n == 0 {
		return "Size options available on request"
	}
	plural := "s"
	if n == 1 {
		plural = ""
	}
	return fmt.Sprintf("%d pack size%s: %s to %s", n, plural, sizes[0].Label, sizes[n-1].Label)
}
