package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/meetgrid/backend/internal/auth"
	"github.com/meetgrid/backend/internal/domain"
	"github.com/meetgrid/backend/pkg/response"
)

// writeError maps a domain error to its HTTP status and envelope code.
// Unrecognized errors are logged and reported as 500 without leaking
// internals to the client.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		response.Error(w, http.StatusUnauthorized, "AUTH_REQUIRED", err.Error())
	case errors.Is(err, domain.ErrOnboardingRequired):
		response.Error(w, http.StatusForbidden, "ONBOARDING_REQUIRED", err.Error())
	case errors.Is(err, domain.ErrNotAuthorized):
		response.Error(w, http.StatusForbidden, "NOT_AUTHORIZED", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, domain.ErrDuplicateRequest):
		response.Error(w, http.StatusConflict, "DUPLICATE_REQUEST", err.Error())
	case errors.Is(err, domain.ErrProfileExists):
		response.Error(w, http.StatusConflict, "PROFILE_EXISTS", err.Error())
	case errors.Is(err, domain.ErrInvalidRequest):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, domain.ErrEmptyMessage):
		response.Error(w, http.StatusBadRequest, "EMPTY_MESSAGE", err.Error())
	case errors.Is(err, domain.ErrNotOpen):
		response.Error(w, http.StatusBadRequest, "NOT_OPEN_FOR_CONNECTION", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "resource not found")
	case errors.Is(err, auth.ErrProviderUnavailable):
		response.Error(w, http.StatusBadGateway, "PROVIDER_UNAVAILABLE", "identity provider unavailable")
	default:
		logger.Error("unhandled error", zap.Error(err))
		response.InternalError(w, "something went wrong")
	}
}
