package apperror

import (
	"errors"
	"fmt"
)

// AppError carries a Code plus optional context and cause.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.cause }

// Is matches any *AppError with the same Code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

// Retryable reports whether the failure came from a transient remote condition.
func (e *AppError) Retryable() bool {
	switch e.Code {
	case CodeServiceTimeout, CodeServiceUnavailable, CodeRateLimitExceeded,
		CodeSubgraphQueryFailed, CodeEthereumRPCError, CodeCircuitOpen, CodeCircuitHalfOpen:
		return true
	}
	return false
}

// Option configures an AppError.
type Option func(*AppError)

func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

func WithContextf(format string, args ...any) Option {
	return func(e *AppError) { e.Context = fmt.Sprintf(format, args...) }
}

func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// New creates an AppError for code using the catalogue message.
func New(code Code, opts ...Option) *AppError {
	err := &AppError{Code: code, Message: messages[code]}
	if err.Message == "" {
		err.Message = string(code)
	}
	for _, opt := range opts {
		opt(err)
	}
	return err
}

// Validation creates an error for bad input or configuration.
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context))
}

// External creates an error for a failed remote dependency.
func External(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause))
}

// Wrap converts err into an AppError. Existing AppErrors are returned as-is,
// gaining context if they had none.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		if appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}
	return New(code, WithContext(context), WithCause(err))
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

func IsAppError(err error) bool {
	_, ok := As(err)
	return ok
}

// IsRetryable reports whether err wraps a retryable AppError. Errors
// without a code are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := As(err); ok {
		return appErr.Retryable()
	}
	return true
}

// GetCode extracts the Code from err, or CodeUnknownError.
func GetCode(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeUnknownError
}
