package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestErrorTypesAndStatusCodes(t *testing.T) {
	tests := []struct {
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{NewInvalidInputError("bad", nil), ErrorTypeInvalidInput, http.StatusBadRequest},
		{NewModelUnavailableError("depth", nil), ErrorTypeModelUnavailable, http.StatusServiceUnavailable},
		{NewFitDivergenceError(0.3, 0.18), ErrorTypeFitDivergence, http.StatusUnprocessableEntity},
		{NewDimensionMismatchError("size"), ErrorTypeDimensionMismatch, http.StatusInternalServerError},
		{NewValidationError("bad field", nil), ErrorTypeValidation, http.StatusBadRequest},
		{NewNetworkError("unreachable", nil), ErrorTypeNetwork, http.StatusBadGateway},
	}
	for _, tt := range tests {
		if tt.err.Type != tt.wantType {
			t.Errorf("Expected type %q, got %q", tt.wantType, tt.err.Type)
		}
		if tt.err.StatusCode != tt.wantStatus {
			t.Errorf("%s: expected status %d, got %d", tt.wantType, tt.wantStatus, tt.err.StatusCode)
		}
	}
}

func TestIsRecoverable(t *testing.T) {
	if !IsRecoverable(NewModelUnavailableError("segment", nil)) {
		t.Error("Expected model-unavailable to be recoverable")
	}
	if !IsRecoverable(NewFitDivergenceError(0.5, 0.18)) {
		t.Error("Expected fit-divergence to be recoverable")
	}
	if IsRecoverable(NewInvalidInputError("bad", nil)) {
		t.Error("Expected invalid-input to be fatal")
	}
	if IsRecoverable(NewDimensionMismatchError("size")) {
		t.Error("Expected dimension-mismatch to be fatal")
	}
	if IsRecoverable(errors.New("plain")) {
		t.Error("Expected a plain error to be fatal")
	}
	if IsRecoverable(nil) {
		t.Error("Expected nil to be non-recoverable")
	}
}

func TestIsType(t *testing.T) {
	err := NewFitDivergenceError(0.5, 0.18)
	if !IsType(err, ErrorTypeFitDivergence) {
		t.Error("Expected type match")
	}
	if IsType(err, ErrorTypeNetwork) {
		t.Error("Expected type mismatch")
	}

	// Matching survives wrapping
	wrapped := fmt.Errorf("stage failed: %w", err)
	if !IsType(wrapped, ErrorTypeFitDivergence) {
		t.Error("Expected type match through wrapping")
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewNetworkError("fetch failed", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected Unwrap to expose the cause")
	}
	msg := err.Error()
	if msg == "" || !strings.Contains(msg, "connection reset") {
		t.Errorf("Expected cause in message, got %q", msg)
	}
}

func TestFitDivergenceMessageCarriesResidual(t *testing.T) {
	err := NewFitDivergenceError(0.4217, 0.18)
	if !strings.Contains(err.Message, "0.4217") || !strings.Contains(err.Message, "0.18") {
		t.Errorf("Expected residual and tolerance in message, got %q", err.Message)
	}
}
