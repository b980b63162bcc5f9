package main

import "testing"

func TestLockKey(t *testing.T) {
	if got := lockKey(""); got != "sf:housekeeping:lock:local" {
		t.Fatalf("unexpected default key %q", got)
	}
	if got := lockKey("prod"); got != "sf:housekeeping:lock:prod" {
		t.Fatalf("unexpected key %q", got)
	}
}
