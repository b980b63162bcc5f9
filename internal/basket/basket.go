// Package basket holds the per-session list of (size, quantity) selections a
// visitor builds before requesting a delivery quote.
package basket

import (
	"encoding/json"
	"strings"

	"github.com/midlandoil/storefront/internal/catalog"
)

// MaxLineQuantity caps a single line. Larger volumes go through a bulk tanker
// enquiry instead.
const MaxLineQuantity = 9999

// MultipleSizesLabel summarises a basket with more than one line.
const MultipleSizesLabel = "Multiple sizes"

// Line is one size in the basket. Quantity is always at least 1.
type Line struct {
	Size     catalog.PackSizeOffer `json:"size"`
	Quantity int                   `json:"quantity"`
}

// Basket is an insertion-ordered set of lines keyed by size label. The zero
// value is an empty basket. It is not safe for concurrent use.
type Basket struct {
	lines []Line
}

// New returns an empty basket.
func New() *Basket {
	return &Basket{}
}

func validQuantity(qty int) bool {
	return qty >= 1 && qty <= MaxLineQuantity
}

func (b *Basket) index(label string) int {
	for i := range b.lines {
		if b.lines[i].Size.Label == label {
			return i
		}
	}
	return -1
}

// AddOrMerge adds qty of size, merging into an existing line with the same
// label. Out-of-range quantities and blank labels are ignored. It reports
// whether the basket changed.
func (b *Basket) AddOrMerge(size catalog.PackSizeOffer, qty int) bool {
	if !validQuantity(qty) || strings.TrimSpace(size.Label) == "" {
		return false
	}
	if i := b.index(size.Label); i >= 0 {
		merged := b.lines[i].Quantity + qty
		if merged > MaxLineQuantity {
			return false
		}
		b.lines[i].Quantity = merged
		return true
	}
	b.lines = append(b.lines, Line{Size: size, Quantity: qty})
	return true
}

// SetQuantity replaces the quantity on an existing line.
func (b *Basket) SetQuantity(label string, qty int) bool {
	if !validQuantity(qty) {
		return false
	}
	i := b.index(label)
	if i < 0 {
		return false
	}
	if b.lines[i].Quantity == qty {
		return false
	}
	b.lines[i].Quantity = qty
	return true
}

// Remove deletes the line for label, keeping the order of the rest.
func (b *Basket) Remove(label string) bool {
	i := b.index(label)
	if i < 0 {
		return false
	}
	b.lines = append(b.lines[:i], b.lines[i+1:]...)
	return true
}

// TotalQuantity sums quantities across lines.
func (b *Basket) TotalQuantity() int {
	total := 0
	for _, line := range b.lines {
		total += line.Quantity
	}
	return total
}

// LineFor returns the line for label, if present.
func (b *Basket) LineFor(label string) (Line, bool) {
	if i := b.index(label); i >= 0 {
		return b.lines[i], true
	}
	return Line{}, false
}

// Lines returns a copy of the lines in insertion order.
func (b *Basket) Lines() []Line {
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

func (b *Basket) Len() int {
	return len(b.lines)
}

func (b *Basket) IsEmpty() bool {
	return len(b.lines) == 0
}

// SizeSummaryLabel is the single line's label, or MultipleSizesLabel. An empty
// basket has no summary.
func (b *Basket) SizeSummaryLabel() string {
	switch len(b.lines) {
	case 0:
		return ""
	case 1:
		return b.lines[0].Size.Label
	default:
		return MultipleSizesLabel
	}
}

// Clone returns an independent copy.
func (b *Basket) Clone() *Basket {
	return &Basket{lines: b.Lines()}
}

// Reset empties the basket.
func (b *Basket) Reset() {
	b.lines = nil
}

func (b *Basket) MarshalJSON() ([]byte, error) {
	lines := b.lines
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}

// UnmarshalJSON rebuilds the basket through AddOrMerge so a stored snapshot
// can never violate the line invariants.
func (b *Basket) UnmarshalJSON(data []byte) error {
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	b.lines = nil
	for _, line := range lines {
		b.AddOrMerge(line.Size, line.Quantity)
	}
	return nil
}
