package errors

import (
	"errors"
	"testing"
)

func TestNewFormatsCodeAndMessage(t *testing.T) {
	err := New(ErrCodeScopeNotFound, "scope %q has no snapshot", "transforms")

	if err.Code != ErrCodeScopeNotFound {
		t.Errorf("Code = %v", err.Code)
	}
	if err.Message != `scope "transforms" has no snapshot` {
		t.Errorf("Message = %q", err.Message)
	}
	if got, want := err.Error(), `SCOPE_NOT_FOUND: scope "transforms" has no snapshot`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "fetch baseline")

	if err.Code != ErrCodeNetwork {
		t.Errorf("Code = %v", err.Code)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want cause", errors.Unwrap(err))
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeTransitionBusy, "enter in flight"), ErrCodeTransitionBusy, true},
		{"different code", New(ErrCodeTransitionBusy, "enter in flight"), ErrCodeNetwork, false},
		{"outer code of a wrapped chain", Wrap(ErrCodeNetwork, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeNetwork, true},
		{"plain error", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"structured error", New(ErrCodeNodeNotFound, "missing"), ErrCodeNodeNotFound},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	structured := New(ErrCodeNotFocusable, "concepts cannot be entered")
	if got := UserMessage(structured); got != "concepts cannot be entered" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestRateLimitedError(t *testing.T) {
	withRetry := &RateLimitedError{RetryAfter: 60}
	if got := withRetry.Error(); got != "rate limited: retry after 60 seconds" {
		t.Errorf("Error() = %q", got)
	}

	bare := &RateLimitedError{}
	if got := bare.Error(); got != "rate limited" {
		t.Errorf("Error() = %q", got)
	}
	if bare.Code() != ErrCodeRateLimited {
		t.Errorf("Code() = %v", bare.Code())
	}
}
