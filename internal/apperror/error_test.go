package apperror

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestNew_UsesRegisteredMessage(t *testing.T) {
	err := New(CodeWalletNotConnected)

	if err.Message != "Connect wallet to update blockchain data" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", err.StatusCode)
	}
}

func TestAppError_UnwrapAndIs(t *testing.T) {
	cause := errors.New("execution reverted")
	err := New(CodeSimulationFailed, WithCause(cause), WithContext("increment"))

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if !errors.Is(err, New(CodeSimulationFailed)) {
		t.Error("expected errors.Is to match by code")
	}
	if errors.Is(err, New(CodeContractCallFailed)) {
		t.Error("expected different codes not to match")
	}
	if !strings.Contains(err.Error(), "execution reverted") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestWrap_KeepsExistingAppError(t *testing.T) {
	inner := New(CodeCircuitOpen)
	wrapped := Wrap(inner, CodeContractCallFailed, "retrieve")

	if wrapped != inner {
		t.Error("expected Wrap to return the existing AppError")
	}
	if wrapped.Context != "retrieve" {
		t.Errorf("expected context to be filled, got %q", wrapped.Context)
	}
	if GetCode(errors.New("plain")) != CodeUnknownError {
		t.Error("expected unknown code for plain errors")
	}
	if Wrap(nil, CodeInternalError, "") != nil {
		t.Error("expected nil for nil error")
	}
}
