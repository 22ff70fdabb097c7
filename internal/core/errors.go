package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation   ErrorCategory = "validation"   // Invalid input
	ErrCatExecution    ErrorCategory = "execution"    // Runtime failure
	ErrCatTimeout      ErrorCategory = "timeout"      // Operation timed out
	ErrCatRateLimit    ErrorCategory = "rate_limit"   // Provider rate limited
	ErrCatAuth         ErrorCategory = "auth"         // Provider authentication failure
	ErrCatState        ErrorCategory = "state"        // Lifecycle or persistence state
	ErrCatNotFound     ErrorCategory = "not_found"    // Resource not found
	ErrCatConflict     ErrorCategory = "conflict"     // Resource already exists
	ErrCatProvider     ErrorCategory = "provider"     // Provider selection failure
	ErrCatWorkflow     ErrorCategory = "workflow"     // Workflow template or iteration failure
	ErrCatOrchestrator ErrorCategory = "orchestrator" // Wrapped internal failure
	ErrCatInternal     ErrorCategory = "internal"     // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      CodeNotFound,
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
	}
}

// ErrAlreadyExists creates a conflict error for duplicate registration.
func ErrAlreadyExists(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatConflict,
		Code:      CodeAlreadyExists,
		Message:   fmt.Sprintf("%s already exists: %s", resource, id),
		Retryable: false,
	}
}

// ErrNoProviderAvailable creates a provider selection error.
func ErrNoProviderAvailable(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatProvider,
		Code:      CodeNoProviderAvailable,
		Message:   message,
		Retryable: true,
	}
}

// ErrNotInitialized creates a lifecycle error for use before setup.
func ErrNotInitialized(component string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      CodeNotInitialized,
		Message:   fmt.Sprintf("%s not initialized: call Setup first", component),
		Retryable: false,
	}
}

// ErrOrchestrator wraps an unexpected or internal failure.
func ErrOrchestrator(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatOrchestrator,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrWorkflow creates a workflow template or iteration error.
func ErrWorkflow(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatWorkflow,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrExecution creates an execution error.
func ErrExecution(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatExecution,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      "TIMEOUT",
		Message:   message,
		Retryable: true,
	}
}

// ErrRateLimit creates a rate limit error.
func ErrRateLimit(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatRateLimit,
		Code:      "RATE_LIMITED",
		Message:   message,
		Retryable: true,
	}
}

// ErrAuth creates an authentication error.
func ErrAuth(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatAuth,
		Code:      "AUTH_FAILED",
		Message:   message,
		Retryable: false,
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeNoProviderAvailable = "NO_PROVIDER_AVAILABLE"
	CodeNotInitialized      = "NOT_INITIALIZED"

	// Validation error codes
	CodeMissingFields   = "MISSING_FIELDS"
	CodeInvalidRole     = "INVALID_ROLE"
	CodeInvalidProvider = "INVALID_PROVIDER"
	CodeInvalidConfig   = "INVALID_CONFIG"
	CodeEmptyName       = "EMPTY_NAME"

	// Workflow error codes
	CodeInvalidTemplate = "INVALID_TEMPLATE"
	CodeEmptyTemplate   = "EMPTY_TEMPLATE"
	CodeWorkflowFailed  = "WORKFLOW_FAILED"

	// Orchestrator error codes
	CodeAgentResolution = "AGENT_RESOLUTION"
	CodeTaskFailed      = "TASK_FAILED"
	CodeSetupFailed     = "SETUP_FAILED"
	CodeNoProviders     = "NO_PROVIDERS_ENABLED"
	CodeNoStorage       = "STORAGE_NOT_CONFIGURED"

	// Execution error codes
	CodeCommandFailed = "COMMAND_FAILED"
	CodeProbeFailed   = "PROBE_FAILED"

	// State error codes
	CodeStoreFailed    = "STORE_FAILED"
	CodeStateCorrupted = "STATE_CORRUPTED"
)
