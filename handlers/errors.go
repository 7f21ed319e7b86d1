package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/listingwriter/failure"
	"github.com/a-h/respond"
)

var kindToStatus = map[failure.Kind]int{
	failure.Configuration:         http.StatusInternalServerError,
	failure.Auth:                  http.StatusUnauthorized,
	failure.RateLimit:             http.StatusTooManyRequests,
	failure.Provider:              http.StatusBadGateway,
	failure.CapabilityUnavailable: http.StatusNotImplemented,
	failure.EmptyInput:            http.StatusBadRequest,
}

func StatusCode(err error) int {
	if kind, ok := failure.KindOf(err); ok {
		if status, ok := kindToStatus[kind]; ok {
			return status
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// WriteError responds with the user-visible message of a failure. Errors
// outside the failure taxonomy get a generic message.
func WriteError(w http.ResponseWriter, log *slog.Logger, msg string, err error) {
	status := StatusCode(err)
	log.Error(msg, slog.Any("error", err), slog.Int("status", status))
	if _, ok := failure.KindOf(err); ok {
		respond.WithError(w, err.Error(), status)
		return
	}
	respond.WithError(w, msg, status)
}
