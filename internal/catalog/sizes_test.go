package catalog

import (
	"reflect"
	"testing"
)

func labels(sizes []PackSizeOffer) []string {
	out := make([]string, 0, len(sizes))
	for _, s := range sizes {
		out = append(out, s.Label)
	}
	return out
}

func TestResolveSizes_EnrichesCanonicalOffer(t *testing.T) {
	offers := []PackSizeOffer{{Label: "5L", SKU: "MO-5", Price: "£42.00", LeadTime: "2 days"}}

	got := ResolveSizes(offers, nil)

	want := []string{"1L", "5L", "20L", "25L", "200L", "205L", "208L", "1000L", "Bulk Tanker"}
	if !reflect.DeepEqual(labels(got), want) {
		t.Fatalf("unexpected labels %v", labels(got))
	}
	if got[1] != offers[0] {
		t.Fatalf("expected 5L to carry offer fields, got %+v", got[1])
	}
	for i, size := range got {
		if i == 1 {
			continue
		}
		if size != (PackSizeOffer{Label: size.Label}) {
			t.Fatalf("expected bare placeholder for %s, got %+v", size.Label, size)
		}
	}
}

func TestResolveSizes_DropsUnavailable(t *testing.T) {
	got := ResolveSizes(nil, []string{"1L", "Bulk Tanker"})

	want := []string{"5L", "20L", "25L", "200L", "205L", "208L", "1000L"}
	if !reflect.DeepEqual(labels(got), want) {
		t.Fatalf("unexpected labels %v", labels(got))
	}
}

func TestResolveSizes_AppendsCustomOffersInSourceOrder(t *testing.T) {
	offers := []PackSizeOffer{
		{Label: "Pallet", SKU: "P-1"},
		{Label: "20L", SKU: "T-20"},
		{Label: "IBC", SKU: "I-1"},
		{Label: "Sample"},
	}

	got := ResolveSizes(offers, []string{"Sample", "1000L"})

	want := []string{"1L", "5L", "20L", "25L", "200L", "205L", "208L", "Bulk Tanker", "Pallet", "IBC"}
	if !reflect.DeepEqual(labels(got), want) {
		t.Fatalf("unexpected labels %v", labels(got))
	}
	if got[2].SKU != "T-20" {
		t.Fatalf("expected 20L enriched, got %+v", got[2])
	}
}

func TestResolveSizes_FirstOfferWinsAndNoDuplicates(t *testing.T) {
	offers := []PackSizeOffer{
		{Label: "5L", SKU: "first"},
		{Label: "5L", SKU: "second"},
		{Label: "Drum", SKU: "d1"},
		{Label: "Drum", SKU: "d2"},
		{Label: "  "},
		{Label: ""},
	}

	got := ResolveSizes(offers, nil)

	seen := map[string]int{}
	for _, size := range got {
		seen[size.Label]++
	}
	for label, n := range seen {
		if n != 1 {
			t.Fatalf("label %q emitted %d times", label, n)
		}
	}
	if size, _ := FindSize(got, "5L"); size.SKU != "first" {
		t.Fatalf("expected first 5L offer to win, got %+v", size)
	}
	if size, _ := FindSize(got, "Drum"); size.SKU != "d1" {
		t.Fatalf("expected first Drum offer to win, got %+v", size)
	}
	if len(got) != len(canonicalSizes)+1 {
		t.Fatalf("expected blank labels to be skipped, got %v", labels(got))
	}
}

func TestResolveSizes_Idempotent(t *testing.T) {
	offers := []PackSizeOffer{{Label: "Pallet"}, {Label: "25L", Price: "£90"}}
	unavailable := []string{"205L"}

	once := ResolveSizes(offers, unavailable)
	twice := ResolveSizes(once, unavailable)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("resolving twice changed the list:\n%v\n%v", once, twice)
	}
}

func TestResolveSizes_EverythingExcluded(t *testing.T) {
	got := ResolveSizes([]PackSizeOffer{{Label: "Pallet"}}, append(CanonicalSizes(), "Pallet"))
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %v", labels(got))
	}
}

func TestCanonicalSizes_ReturnsCopy(t *testing.T) {
	sizes := CanonicalSizes()
	sizes[0] = "mutated"
	if CanonicalSizes()[0] != "1L" {
		t.Fatal("canonical list must not be mutable through the accessor")
	}
}

func TestSizeHint(t *testing.T) {
	cases := []struct {
		name  string
		sizes []PackSizeOffer
		want  string
	}{
		{name: "empty", want: "Size options available on request"},
		{name: "single", sizes: []PackSizeOffer{{Label: "5L"}}, want: "1 pack size: 5L to 5L"},
		{name: "many", sizes: ResolveSizes(nil, nil), want: "9 pack sizes: 1L to Bulk Tanker"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SizeHint(tc.sizes); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
