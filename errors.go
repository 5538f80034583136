package entretien

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeCatalog     ErrorType = "catalog"
	ErrorTypePersistence ErrorType = "persistence"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeInternal    ErrorType = "internal"
)

const (
	ErrCodeSchemaUnavailable = "SCHEMA_UNAVAILABLE"
	ErrCodePersistenceFailed = "PERSISTENCE_FAILED"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeUnknownField      = "UNKNOWN_FIELD"
	ErrCodeRecordNotFound    = "RECORD_NOT_FOUND"
	ErrCodeQueryFailed       = "QUERY_FAILED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Error is the single error shape surfaced by the engine.
type Error struct {
	Type      ErrorType      `json:"type"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Operation string         `json:"operation,omitempty"`
	Table     string         `json:"table,omitempty"`
	Field     string         `json:"field,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Cause     error          `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Operation != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Type, e.Code, e.Operation, msg)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, msg)
	}
	if e.Table != "" {
		return fmt.Sprintf("[%s:%s] table %s: %s", e.Type, e.Code, e.Table, msg)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail to an Error
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to an Error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) WithTable(table string) *Error {
	e.Table = table
	return e
}

func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// NewError creates a new Error
func NewError(errorType ErrorType, code, message string) *Error {
	return &Error{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

// NewCatalogQueryError reports that a table's schema could not be read. Callers
// must stop rendering the form.
func NewCatalogQueryError(table string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeCatalog,
		Code:    ErrCodeSchemaUnavailable,
		Message: "schema unavailable",
		Table:   table,
		Cause:   cause,
	}
}

// NewPersistenceError reports a failed write; operation names the statement
// that failed, e.g. "insert demande #2".
func NewPersistenceError(operation string, cause error) *Error {
	return &Error{
		Type:      ErrorTypePersistence,
		Code:      ErrCodePersistenceFailed,
		Message:   "record not saved",
		Operation: operation,
		Cause:     cause,
	}
}

func NewValidationError(field, message string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeValidationFailed,
		Message: message,
		Field:   field,
	}
}

func NewNotFoundError(table string, key int64) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeRecordNotFound,
		Message: fmt.Sprintf("no record with key %d", key),
		Table:   table,
	}
}

func hasType(err error, t ErrorType) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

// IsSchemaUnavailable reports whether err means a catalog read failed.
func IsSchemaUnavailable(err error) bool { return hasType(err, ErrorTypeCatalog) }

// IsPersistenceFailure reports whether err came from a rolled back write.
func IsPersistenceFailure(err error) bool { return hasType(err, ErrorTypePersistence) }

func IsValidation(err error) bool { return hasType(err, ErrorTypeValidation) }

func IsNotFound(err error) bool { return hasType(err, ErrorTypeNotFound) }
