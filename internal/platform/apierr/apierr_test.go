package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("toggle: %w", NotFound("", errors.New("content missing")))
	if !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("expected wrapped not-found to match sentinel")
	}
	if errors.Is(err, ErrForbidden) {
		t.Fatalf("not-found must not match forbidden")
	}
}

func TestAsFallsBackToInternal(t *testing.T) {
	ae := As(errors.New("boom"))
	if ae.Status != http.StatusInternalServerError || ae.Code != CodeInternal {
		t.Fatalf("unexpected fallback: %+v", ae)
	}
	if As(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	v := Validation("missing %s", "body")
	if got := As(fmt.Errorf("wrap: %w", v)); got != v {
		t.Fatalf("expected the original *Error back")
	}
}

func TestErrorMessage(t *testing.T) {
	if got := ErrForbidden.Error(); got != CodeForbidden {
		t.Fatalf("unexpected message %q", got)
	}
	if got := (&Error{Status: 418}).Error(); got != "api error (418)" {
		t.Fatalf("unexpected message %q", got)
	}
}
