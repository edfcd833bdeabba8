package web

import (
	"net/http/httptest"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r = AddValueToContext(r, "answer", 42)

	got, ok := GetValueFromContext[int](r, "answer")
	if !ok || got != 42 {
		t.Errorf("GetValueFromContext = %d, %v; want 42, true", got, ok)
	}

	if _, ok := GetValueFromContext[string](r, "answer"); ok {
		t.Error("type mismatch reported ok")
	}
	if _, ok := GetValueFromContext[int](r, "missing"); ok {
		t.Error("missing key reported ok")
	}
}
