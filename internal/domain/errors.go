package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"

	// Field level validation errors
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Pipeline errors
	CodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	CodeEmbeddingFailure  ErrorCode = "EMBEDDING_FAILURE"
	CodeDimensionMismatch ErrorCode = "DIMENSION_MISMATCH"
	CodeLLMServiceError   ErrorCode = "LLM_SERVICE_ERROR"

	// Session errors
	CodeNoResource ErrorCode = "NO_RESOURCE"
	CodeNoQuiz     ErrorCode = "NO_QUIZ"
	CodeQuizStale  ErrorCode = "QUIZ_STALE"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Err     error                  `json:"-"`
	Context map[string]interface{} `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithContext attaches a detail that is rendered in HTTP error responses.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Sentinels for errors.Is comparisons. Only the code is compared.
var (
	ErrSourceUnavailable = &DomainError{Code: CodeSourceUnavailable}
	ErrEmbeddingFailure  = &DomainError{Code: CodeEmbeddingFailure}
	ErrDimensionMismatch = &DomainError{Code: CodeDimensionMismatch}
	ErrLLMService        = &DomainError{Code: CodeLLMServiceError}
	ErrInvalidInput      = &DomainError{Code: CodeInvalidInput}
	ErrNotFound          = &DomainError{Code: CodeNotFound}
	ErrQuizStale         = &DomainError{Code: CodeQuizStale}
)

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewSourceUnavailableError(message string, err error) *DomainError {
	return NewError(CodeSourceUnavailable, message, err)
}

func NewEmbeddingFailureError(message string, err error) *DomainError {
	return NewError(CodeEmbeddingFailure, message, err)
}

func NewDimensionMismatchError(want, got int) *DomainError {
	return NewError(CodeDimensionMismatch, fmt.Sprintf("query vector has %d dimensions, index expects %d", got, want), nil).
		WithContext("expected", want).
		WithContext("actual", got)
}

func NewLLMServiceError(err error) *DomainError {
	return NewError(CodeLLMServiceError, "Failed to process with LLM service", err)
}

func NewNoResourceError() *DomainError {
	return NewError(CodeNoResource, "No resource has been ingested in this session", nil)
}

func NewNoQuizError() *DomainError {
	return NewError(CodeNoQuiz, "No quiz has been generated in this session", nil)
}

func NewQuizStaleError(quizID string) *DomainError {
	return NewError(CodeQuizStale, fmt.Sprintf("Quiz %s has been replaced by a newer quiz", quizID), nil).
		WithContext("quiz_id", quizID)
}

// ValidationError describes a single invalid request field.
type ValidationError struct {
	Field   string      `json:"field"`
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every field problem found in one request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, v := range e {
		msgs = append(msgs, v.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeMissingField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeInvalidFormat,
		Message: fmt.Sprintf("%s has an invalid format", field),
		Value:   value,
	}
}

func NewOutOfRangeError(field string, value interface{}, min, max int) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeOutOfRange,
		Message: fmt.Sprintf("%s must be between %d and %d", field, min, max),
		Value:   value,
	}
}
