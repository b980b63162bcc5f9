package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/midlandoil/storefront/pkg/errors"
)

func withParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"  Jane  ", 0, "Jane"},
		{"a\x00b\x07c", 0, "abc"},
		{"line one\nline two", 0, "line one\nline two"},
		{"Ærøskøbing", 3, "Ærø"},
		{"abc   ", 2, "ab"},
	}
	for _, tc := range cases {
		if got := SanitizeString(tc.in, tc.max); got != tc.want {
			t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
	if got := SanitizeLine(" Unit 4\n\tMill   Lane ", 0); got != "Unit 4 Mill Lane" {
		t.Fatalf("SanitizeLine = %q", got)
	}
}

func TestDecodeJSONBody(t *testing.T) {
	type payload struct {
		Quantity int `json:"quantity" validate:"min=1,max=10"`
	}

	var ok payload
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":3}`))
	if err := DecodeJSONBody(req, &ok); err != nil || ok.Quantity != 3 {
		t.Fatalf("decode valid body: %v %+v", err, ok)
	}

	for _, body := range []string{`{"quantity":0}`, `{"quantity":1,"extra":true}`, `not json`, ``, `{"quantity":1}{"quantity":2}`} {
		var p payload
		err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &p)
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("body %s: expected validation error, got %v", body, err)
		}
	}
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	type payload struct {
		Notes string `json:"notes"`
	}
	body := `{"notes":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	var p payload
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body)), &p)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation || typed.Message() != "request body too large" {
		t.Fatalf("expected body too large, got %v", err)
	}
}

func TestParseParams(t *testing.T) {
	id := uuid.New()
	req := withParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.String())
	got, err := ParseUUIDParam(req, "id")
	if err != nil || got != id {
		t.Fatalf("ParseUUIDParam = %v, %v", got, err)
	}

	bad := withParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "nope")
	if _, err := ParseUUIDParam(bad, "id"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	label := withParam(httptest.NewRequest(http.MethodGet, "/", nil), "label", "205L%20drum")
	value, err := ParseStringParam(label, "label", 64)
	if err != nil || value != "205L drum" {
		t.Fatalf("ParseStringParam = %q, %v", value, err)
	}
}
