package types

import "testing"

func TestStringListScanAndValue(t *testing.T) {
	list := StringList{"1L", "Bulk Tanker"}
	raw, err := list.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if raw != `["1L","Bulk Tanker"]` {
		t.Fatalf("unexpected encoded value %v", raw)
	}

	var decoded StringList
	if err := decoded.Scan([]byte(`["205L"]`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(decoded) != 1 || decoded[0] != "205L" {
		t.Fatalf("unexpected decoded list %v", decoded)
	}

	if err := decoded.Scan(nil); err != nil || decoded != nil {
		t.Fatalf("expected nil scan to clear list, got %v err=%v", decoded, err)
	}
	if err := decoded.Scan(42); err == nil {
		t.Fatalf("expected unsupported scan type to fail")
	}
}

func TestStringListNilValue(t *testing.T) {
	var list StringList
	raw, err := list.Value()
	if err != nil || raw != "[]" {
		t.Fatalf("expected empty array for nil list, got %v err=%v", raw, err)
	}
}
