package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
	"github.com/snehachy12/campus-event-system-sub002/internal/response"
)

// writeError maps domain errors onto the response envelope. Signature
// mismatches deliberately surface as a generic rejection; the details
// stay in the security log.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSignatureMismatch):
		response.BadRequest(c, "payment confirmation rejected")
	case domain.IsValidation(err):
		response.BadRequest(c, err.Error())
	case domain.IsNotFound(err):
		response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded):
		response.Conflict(c, "CAPACITY_EXCEEDED", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		response.Conflict(c, "INVALID_TRANSITION", err.Error())
	case domain.IsRetryable(err):
		response.ServiceUnavailable(c, "payment gateway unavailable, retry later")
	case errors.Is(err, domain.ErrGatewayRejected):
		response.Error(c, http.StatusBadGateway, "GATEWAY_REJECTED", "payment gateway rejected the request", err.Error())
	default:
		response.InternalError(c, err)
	}
}
