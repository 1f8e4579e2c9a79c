package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	sentinels := []error{ErrInvalidInput, ErrCodeExpired, ErrCodeInvalid}

	for _, target := range sentinels {
		wrapped := fmt.Errorf("exchange: %w", fmt.Errorf("parse code: %w", target))
		for _, other := range sentinels {
			if got, want := errors.Is(wrapped, other), other == target; got != want {
				t.Errorf("errors.Is(%q, %q) = %v, want %v", wrapped, other, got, want)
			}
		}
	}
}

func TestCodeErrorsReadable(t *testing.T) {
	if ErrCodeExpired.Error() == ErrCodeInvalid.Error() {
		t.Fatal("code errors must be distinguishable in logs")
	}
}
