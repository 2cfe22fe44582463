// Package errors defines the application's error taxonomy.
package errors

import "fmt"

// ErrorType categorizes an AppError by which subsystem raised it.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "VALIDATION"
	ErrorTypeNotFound    ErrorType = "NOT_FOUND"
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeIngest      ErrorType = "INGEST"
	ErrorTypeRetriever   ErrorType = "RETRIEVER"
	ErrorTypeStore       ErrorType = "STORE"
	ErrorTypeMaintenance ErrorType = "MAINTENANCE"
)

// Detail carries a machine-readable reason beyond Type, matching the
// abstract error kinds (IngestError, RetrieverError, StoreError,
// MaintenanceError) named by the detail's own doc comment.
type Detail string

const (
	DetailDuplicate        Detail = "DUPLICATE"
	DetailInvalidInput     Detail = "INVALID_INPUT"
	DetailEmbeddingFailed  Detail = "EMBEDDING_FAILED"
	DetailStoreFailed      Detail = "STORE_FAILED"
	DetailEmptyQuery       Detail = "EMPTY_QUERY"
	DetailQueryTooLong     Detail = "QUERY_TOO_LONG"
	DetailTimeout          Detail = "TIMEOUT"
	DetailNotFound         Detail = "NOT_FOUND"
	DetailIntegrityFailure Detail = "INTEGRITY_VIOLATION"
	DetailIOFailed         Detail = "IO_FAILED"
	DetailVersionOverflow  Detail = "VERSION_OVERFLOW"
	DetailStepFailed       Detail = "STEP_FAILED"
)

// AppError is the application's single error type. Type names the
// subsystem, Detail names the specific condition, and Err carries the
// wrapped cause when there is one.
type AppError struct {
	Type      ErrorType
	Detail    Detail
	Message   string
	ExistingID int64 // set for DetailDuplicate
	Phase      string // set for DetailTimeout, DetailStepFailed
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s/%s: %s: %v", e.Type, e.Detail, e.Message, e.Err)
	}
	return fmt.Sprintf("%s/%s: %s", e.Type, e.Detail, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// NewValidationError creates a generic validation error.
func NewValidationError(message string) error {
	return &AppError{Type: ErrorTypeValidation, Detail: DetailInvalidInput, Message: message}
}

// NewNotFoundError creates a generic not-found error.
func NewNotFoundError(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Detail: DetailNotFound, Message: message}
}

// NewInternalError wraps err as an internal error.
func NewInternalError(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// NewDuplicate builds IngestError::Duplicate(existing_id).
func NewDuplicate(existingID int64) error {
	return &AppError{
		Type:       ErrorTypeIngest,
		Detail:     DetailDuplicate,
		Message:    "near-duplicate content already exists",
		ExistingID: existingID,
	}
}

// NewInvalidInput builds IngestError::InvalidInput(field, reason).
func NewInvalidInput(field, reason string) error {
	return &AppError{
		Type:    ErrorTypeIngest,
		Detail:  DetailInvalidInput,
		Message: fmt.Sprintf("%s: %s", field, reason),
	}
}

// NewEmbeddingFailed builds IngestError::EmbeddingFailed.
func NewEmbeddingFailed(err error) error {
	return &AppError{Type: ErrorTypeIngest, Detail: DetailEmbeddingFailed, Message: "embedding failed", Err: err}
}

// NewStoreFailed builds a StoreFailed error for either IngestError or RetrieverError callers.
func NewStoreFailed(errType ErrorType, err error) error {
	return &AppError{Type: errType, Detail: DetailStoreFailed, Message: "store operation failed", Err: err}
}

// NewEmptyQuery builds RetrieverError::EmptyQuery.
func NewEmptyQuery() error {
	return &AppError{Type: ErrorTypeRetriever, Detail: DetailEmptyQuery, Message: "query must not be empty"}
}

// NewQueryTooLong builds RetrieverError::QueryTooLong(len, max).
func NewQueryTooLong(length, max int) error {
	return &AppError{
		Type:    ErrorTypeRetriever,
		Detail:  DetailQueryTooLong,
		Message: fmt.Sprintf("query length %d exceeds max %d", length, max),
	}
}

// NewTimeout builds a Timeout error for either RetrieverError or MaintenanceError callers.
func NewTimeout(errType ErrorType, phase string) error {
	return &AppError{Type: errType, Detail: DetailTimeout, Phase: phase, Message: fmt.Sprintf("phase %q timed out", phase)}
}

// NewIntegrityViolation builds StoreError::IntegrityViolation(detail).
func NewIntegrityViolation(detail string) error {
	return &AppError{Type: ErrorTypeStore, Detail: DetailIntegrityFailure, Message: detail}
}

// NewIOFailed builds StoreError::IoFailed.
func NewIOFailed(err error) error {
	return &AppError{Type: ErrorTypeStore, Detail: DetailIOFailed, Message: "store i/o failed", Err: err}
}

// NewVersionOverflow builds StoreError::VersionOverflow (handled internally; never surfaced to a caller).
func NewVersionOverflow() error {
	return &AppError{Type: ErrorTypeStore, Detail: DetailVersionOverflow, Message: "version history exceeds cap"}
}

// NewStepFailed builds MaintenanceError::StepFailed(step, cause).
func NewStepFailed(step string, cause error) error {
	return &AppError{Type: ErrorTypeMaintenance, Detail: DetailStepFailed, Phase: step, Message: fmt.Sprintf("maintenance step %q failed", step), Err: cause}
}

// Wrap preserves an existing AppError's Type/Detail while prefixing Message, or
// creates a new internal error when err is not already an AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		wrapped := *appErr
		wrapped.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return &wrapped
	}
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// IsDuplicate reports whether err is an IngestError::Duplicate, returning the existing id.
func IsDuplicate(err error) (int64, bool) {
	appErr, ok := err.(*AppError)
	if !ok || appErr.Detail != DetailDuplicate {
		return 0, false
	}
	return appErr.ExistingID, true
}

// IsNotFound reports whether err is a not-found error of any subsystem.
func IsNotFound(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && (appErr.Type == ErrorTypeNotFound || appErr.Detail == DetailNotFound)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeValidation
}

// IsTimeout reports whether err is a timeout error, returning the phase that timed out.
func IsTimeout(err error) (string, bool) {
	appErr, ok := err.(*AppError)
	if !ok || appErr.Detail != DetailTimeout {
		return "", false
	}
	return appErr.Phase, true
}
