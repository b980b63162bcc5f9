package instance

import "testing"

func TestGetIDPrefersExplicitID(t *testing.T) {
	t.Setenv("HOSTNAME", "pod-7")
	t.Setenv("STOREFRONT_INSTANCE_ID", "publisher-1")
	if got := GetID(); got != "publisher-1" {
		t.Fatalf("expected publisher-1, got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv("STOREFRONT_INSTANCE_ID", "")
	t.Setenv("HOSTNAME", "pod-7")
	if got := GetID(); got != "pod-7" {
		t.Fatalf("expected hostname, got %q", got)
	}
	t.Setenv("HOSTNAME", "")
	if got := GetID(); got != "local" {
		t.Fatalf("expected local, got %q", got)
	}
}
