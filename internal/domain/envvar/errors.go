package envvar

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeConfiguration          = "CONFIGURATION_ERROR"
	CodeEmptyInput             = "EMPTY_INPUT"
	CodeProviderQuery          = "PROVIDER_QUERY_ERROR"
	CodeProviderMutation       = "PROVIDER_MUTATION_ERROR"
	CodeProviderRemovalWarning = "PROVIDER_REMOVAL_WARNING"
)

// Classification sentinels. Providers wrap these so the reconciler can tell
// remediation-worthy failures apart from plain transport errors.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrScopeNotFound    = errors.New("scope or configuration not found")
	ErrInUse            = errors.New("variable is still referenced by required configuration")
)

// DomainError is the single error shape surfaced to the operator
type DomainError struct {
	Code    string
	Message string
	Hint    string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is a configuration problem the
// operator can fix locally. Empty input counts as one.
func IsConfigurationError(err error) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == CodeConfiguration || de.Code == CodeEmptyInput
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

// HintOf returns the remediation hint attached to err, if any.
func HintOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Hint
	}
	return ""
}

// Predefined domain errors

func ErrConfiguration(message, hint string) *DomainError {
	return &DomainError{
		Code:    CodeConfiguration,
		Message: message,
		Hint:    hint,
	}
}

func ErrEmptyInput() *DomainError {
	return &DomainError{
		Code:    CodeEmptyInput,
		Message: "no environment variables to sync",
		Hint:    "check that the source file or stdin contains at least one KEY=value line",
	}
}

func ErrNoStdinInput() *DomainError {
	return &DomainError{
		Code:    CodeConfiguration,
		Message: "no input received on stdin",
		Hint:    "pipe a .env formatted stream, e.g. `cat .env | envsync vercel --stdin`",
	}
}

func ErrInvalidInput(key string, err error) *DomainError {
	return &DomainError{
		Code:    CodeConfiguration,
		Message: fmt.Sprintf("invalid variable %q", key),
		Err:     err,
	}
}

// ErrProviderQuery classifies a list failure. Authentication and missing
// scope failures become configuration errors with a remediation hint.
func ErrProviderQuery(provider string, err error) *DomainError {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return &DomainError{
			Code:    CodeConfiguration,
			Message: fmt.Sprintf("%s rejected the credentials", provider),
			Hint:    fmt.Sprintf("pass --token or set the %s token environment variable", provider),
			Err:     err,
		}
	case errors.Is(err, ErrScopeNotFound):
		return &DomainError{
			Code:    CodeConfiguration,
			Message: fmt.Sprintf("%s could not find the project or scope", provider),
			Hint:    "check --project, --target and --deployment",
			Err:     err,
		}
	}
	return &DomainError{
		Code:    CodeProviderQuery,
		Message: fmt.Sprintf("failed to list %s environment variables", provider),
		Err:     err,
	}
}

func ErrProviderMutation(key string, err error) *DomainError {
	return &DomainError{
		Code:    CodeProviderMutation,
		Message: fmt.Sprintf("failed to set %s", key),
		Err:     err,
	}
}

func ErrProviderRemoval(key string, err error) *DomainError {
	msg := fmt.Sprintf("could not remove %s", key)
	if errors.Is(err, ErrInUse) {
		msg = fmt.Sprintf("could not remove %s: still in use", key)
	}
	return &DomainError{
		Code:    CodeProviderRemovalWarning,
		Message: msg,
		Err:     err,
	}
}
