package dto

import "net/http"

// Domain error codes surfaced over HTTP.
const (
	CodeInvalidInput          = "INVALID_INPUT"
	CodeInvalidState          = "INVALID_STATE"
	CodeNotFound              = "NOT_FOUND"
	CodeAlreadyExists         = "ALREADY_EXISTS"
	CodeConcurrencyConflict   = "CONCURRENCY_CONFLICT"
	CodeInsufficientBalance   = "INSUFFICIENT_BALANCE"
	CodeInvalidAmount         = "INVALID_AMOUNT"
	CodeGatewayError          = "GATEWAY_ERROR"
	CodeVerificationFailed    = "PAYMENT_VERIFICATION_FAILED"
	CodeDocumentFormat        = "DOCUMENT_FORMAT"
	CodeCompositionFailed     = "COMPOSITION_FAILED"
	CodeEnvironment           = "ENVIRONMENT_UNAVAILABLE"
	CodeInvalidDispatchTarget = "INVALID_TARGET"
	CodeDispatchFailed        = "DISPATCH_FAILED"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeInternal              = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
var errorCodeHTTPStatus = map[string]int{
	CodeInvalidInput:  http.StatusBadRequest,
	CodeInvalidAmount: http.StatusBadRequest,

	CodeUnauthorized: http.StatusUnauthorized,

	CodeNotFound: http.StatusNotFound,

	CodeAlreadyExists:       http.StatusConflict,
	CodeConcurrencyConflict: http.StatusConflict,

	CodeInvalidState:          http.StatusUnprocessableEntity,
	CodeInsufficientBalance:   http.StatusUnprocessableEntity,
	CodeDocumentFormat:        http.StatusUnprocessableEntity,
	CodeInvalidDispatchTarget: http.StatusUnprocessableEntity,

	CodeVerificationFailed: http.StatusBadRequest,

	CodeGatewayError:      http.StatusBadGateway,
	CodeDispatchFailed:    http.StatusBadGateway,
	CodeCompositionFailed: http.StatusInternalServerError,
	CodeEnvironment:       http.StatusServiceUnavailable,
	CodeInternal:          http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status code for a domain error code.
// Unknown codes map to 500.
func HTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the error envelope for every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// NewErrorResponse builds an error envelope from a human-readable message.
func NewErrorResponse(detail string) ErrorResponse {
	return ErrorResponse{Detail: detail}
}
