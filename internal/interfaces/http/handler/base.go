package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartprint/backend/internal/domain/payment"
	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/interfaces/http/dto"
	"github.com/smartprint/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// identity is the authenticated account behind a request.
type identity struct {
	UID   string
	Email string
	Name  string
	Token string
}

// requireIdentity extracts the authenticated identity set by the JWT
// middleware. A missing identity aborts the request with 401.
func (h *BaseHandler) requireIdentity(c *gin.Context) (identity, bool) {
	id := identity{
		UID:   middleware.GetJWTUID(c),
		Email: middleware.GetJWTEmail(c),
		Name:  middleware.GetJWTName(c),
		Token: middleware.GetJWTRawToken(c),
	}
	if id.UID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			dto.NewErrorResponse("authentication required"))
		return identity{}, false
	}
	return id, true
}

// Success sends a 200 response with the given body.
func (h *BaseHandler) Success(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// BadRequest sends a 400 response.
func (h *BaseHandler) BadRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
}

// HandleError maps a service error onto an HTTP status and the error
// envelope. Gateway sentinels are translated first, then domain errors
// by code; anything else is a 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var gatewayErr *payment.GatewayError
	switch {
	case errors.Is(err, payment.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("amount must be positive"))
		return
	case errors.Is(err, payment.ErrVerificationFields):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("verification payload is incomplete"))
		return
	case errors.Is(err, payment.ErrInvalidSignature):
		c.JSON(dto.HTTPStatus(dto.CodeVerificationFailed),
			dto.NewErrorResponse("payment verification failed"))
		return
	case errors.As(err, &gatewayErr):
		c.JSON(dto.HTTPStatus(dto.CodeGatewayError), dto.NewErrorResponse(gatewayErr.Error()))
		return
	case errors.Is(err, payment.ErrGatewayRequest), errors.Is(err, payment.ErrInvalidResponse):
		c.JSON(dto.HTTPStatus(dto.CodeGatewayError),
			dto.NewErrorResponse("payment gateway is unavailable"))
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.JSON(dto.HTTPStatus(domainErr.Code), dto.NewErrorResponse(domainErr.Message))
		return
	}

	c.JSON(http.StatusInternalServerError,
		dto.NewErrorResponse("an unexpected error occurred"))
}
