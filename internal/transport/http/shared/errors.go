package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"peopleops/internal/domain/apperr"
	"peopleops/internal/transport/http/api"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrUnauthenticated), errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrInvalidAction), errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrInvalidTransition), errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// FailError writes err as an envelope. Domain errors keep their code and
// message; anything else is logged and reported as fallbackCode.
func FailError(w http.ResponseWriter, err error, fallbackCode, requestID string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "code", fallbackCode, "requestId", requestID, "err", err)
		api.Fail(w, status, fallbackCode, "internal server error", requestID)
		return
	}
	api.Fail(w, status, apperr.Code(err), apperr.Message(err), requestID)
}
