package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientBalance = NewDomainError("INSUFFICIENT_BALANCE", "Insufficient wallet balance")

	ErrDocumentFormat = NewDomainError("DOCUMENT_FORMAT", "File is not a well-formed PDF document")
	ErrComposition    = NewDomainError("COMPOSITION_FAILED", "Failed to compose the output document")
	ErrEnvironment    = NewDomainError("ENVIRONMENT_UNAVAILABLE", "Rendering backend is unavailable")
	ErrInvalidTarget  = NewDomainError("INVALID_TARGET", "Scanned payload does not contain a valid printer URL")
	ErrDispatchFailed = NewDomainError("DISPATCH_FAILED", "Failed to deliver the print job")
)

// CodeOf returns the domain error code for err, or an empty string
// if err is not a DomainError.
func CodeOf(err error) string {
	if de, ok := err.(*DomainError); ok {
		return de.Code
	}
	return ""
}
