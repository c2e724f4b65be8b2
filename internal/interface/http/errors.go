package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"travelog/internal/application"
	"travelog/pkg/response"
	"travelog/pkg/validation"
)

// writeServiceError maps service-level failures onto client-facing status
// codes. Unexpected errors surface as a generic 500 without leaking internals.
func writeServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	var fieldErrs validation.FieldErrors
	if errors.As(err, &fieldErrs) {
		response.Error[any](c, http.StatusBadRequest, "validation failed", fieldErrs)
		return
	}

	switch {
	case errors.Is(err, application.ErrInvalidInput):
		response.Error[any](c, http.StatusBadRequest, "missing or invalid fields", nil)
	case errors.Is(err, application.ErrEmailTaken):
		response.Error[any](c, http.StatusConflict, "email already registered", nil)
	case errors.Is(err, application.ErrUsernameTaken):
		response.Error[any](c, http.StatusConflict, "username already taken", nil)
	case errors.Is(err, application.ErrAlreadyVerified):
		response.Error[any](c, http.StatusBadRequest, "email already verified", nil)
	case errors.Is(err, application.ErrInvalidOTP):
		response.Error[any](c, http.StatusBadRequest, "invalid verification code", nil)
	case errors.Is(err, application.ErrOTPExpired):
		response.Error[any](c, http.StatusBadRequest, "verification code expired", nil)
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
	case errors.Is(err, application.ErrEmailNotVerified):
		response.Error[any](c, http.StatusUnauthorized, "email not verified", nil)
	case errors.Is(err, application.ErrInvalidResetToken):
		response.Error[any](c, http.StatusBadRequest, "invalid or expired reset token", nil)
	case errors.Is(err, application.ErrIncorrectPassword):
		response.Error[any](c, http.StatusBadRequest, "incorrect password", nil)
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, application.ErrTripNotFound):
		response.Error[any](c, http.StatusNotFound, "Trip not found", nil)
	case errors.Is(err, application.ErrInvalidTripID):
		response.Error[any](c, http.StatusBadRequest, "Invalid trip ID", nil)
	case errors.Is(err, application.ErrNotTripOwner):
		response.Error[any](c, http.StatusForbidden, "you do not own this trip", nil)
	case errors.Is(err, application.ErrNoTrips):
		response.Error[any](c, http.StatusNotFound, "no trips found", nil)
	case errors.Is(err, application.ErrUploadFailed):
		response.Error[any](c, http.StatusInternalServerError, "photo upload failed", nil)
	default:
		if logger != nil {
			logger.WithError(err).WithField("path", c.FullPath()).Error("unexpected service error")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}
