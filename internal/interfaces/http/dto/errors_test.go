package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeInvalidAmount, http.StatusBadRequest},
		{CodeVerificationFailed, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeConcurrencyConflict, http.StatusConflict},
		{CodeInsufficientBalance, http.StatusUnprocessableEntity},
		{CodeInvalidState, http.StatusUnprocessableEntity},
		{CodeDocumentFormat, http.StatusUnprocessableEntity},
		{CodeGatewayError, http.StatusBadGateway},
		{CodeDispatchFailed, http.StatusBadGateway},
		{CodeEnvironment, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{"SOMETHING_UNMAPPED", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.code), "code %s", tt.code)
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("insufficient balance")
	assert.Equal(t, "insufficient balance", resp.Detail)
}
