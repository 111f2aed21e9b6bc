package apperror

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew_UsesCatalogMessage(t *testing.T) {
	err := New(CodeMalformedBalance, WithContext("position p tx t"))
	if err.Message != messages[CodeMalformedBalance] {
		t.Fatalf("message = %q", err.Message)
	}
	if !strings.Contains(err.Error(), "position p tx t") {
		t.Fatalf("error string missing context: %s", err.Error())
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	wrapped := Wrap(cause, CodeSubgraphQueryFailed, "pool subgraph")
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected cause to be reachable")
	}
	if GetCode(wrapped) != CodeSubgraphQueryFailed {
		t.Fatalf("code = %s", GetCode(wrapped))
	}

	again := Wrap(fmt.Errorf("outer: %w", wrapped), CodeInternalError, "ignored")
	if again.Code != CodeSubgraphQueryFailed {
		t.Fatalf("rewrapping changed code to %s", again.Code)
	}

	if Wrap(nil, CodeInternalError, "") != nil {
		t.Fatal("wrapping nil should return nil")
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("fetch: %w", New(CodeCircuitOpen))
	if !errors.Is(err, New(CodeCircuitOpen)) {
		t.Fatal("expected code match")
	}
	if errors.Is(err, New(CodeSinkWriteFailed)) {
		t.Fatal("unexpected match")
	}
}

func TestGetCode_PlainError(t *testing.T) {
	if GetCode(errors.New("x")) != CodeUnknownError {
		t.Fatal("expected unknown code")
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{CodeSubgraphQueryFailed, true},
		{CodeCircuitOpen, true},
		{CodeMalformedBalance, false},
		{CodeSinkWriteFailed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New(tt.code).Retryable(); got != tt.want {
				t.Fatalf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("connection reset"), true},
		{"wrapped transient", fmt.Errorf("page 3: %w", New(CodeSubgraphQueryFailed)), true},
		{"malformed data", New(CodeMalformedBalance), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Fatalf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
