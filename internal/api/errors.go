package api

import (
	"errors"
	"net/http"

	"storefront/internal/repository"
	"storefront/internal/service"
	v1 "storefront/pkg/api/v1"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, v1.ErrorBody{Message: msg})
}

// abort maps a service error onto the backend's error envelope.
func abort(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Bad credentials")
	case errors.Is(err, service.ErrTokenInvalid), errors.Is(err, service.ErrSessionExpired):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotVerified):
		fail(c, http.StatusForbidden, "Please verify your email before logging in")
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrUserNotFound):
		fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrEmptySelection),
		errors.Is(err, service.ErrNotCancellable):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, err.Error())
}
