package validators

import (
	"errors"
	"strings"
	"testing"
)

type feedInput struct {
	Type  string `json:"type" validate:"required,oneof=for-you following"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(&feedInput{Type: "for-you", Limit: 10}); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	err := v.Validate(&feedInput{Type: "trending", Limit: 500})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("expected two field errors, got %v", verr.Fields)
	}
	if !strings.HasPrefix(verr.Fields[0], "type ") {
		t.Fatalf("field should use its json name: %q", verr.Fields[0])
	}
}
