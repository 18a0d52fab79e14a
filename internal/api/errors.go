package api

import (
	"errors"
	"net/http"

	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps a service error onto an HTTP status
func statusFor(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, session.ErrInvalidInput):
		return http.StatusBadRequest

	case errors.Is(err, session.ErrUnauthenticated),
		errors.Is(err, session.ErrTokenRevoked),
		errors.Is(err, session.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCartLineNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrMessageNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrOutOfStock),
		errors.Is(err, service.ErrCheckoutInProgress),
		errors.Is(err, service.ErrStatusConflict),
		errors.Is(err, session.ErrEmailTaken):
		return http.StatusConflict

	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrUnknownStatus):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError writes err with the status it maps to
func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		util.GetLogger().Error(message,
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}
