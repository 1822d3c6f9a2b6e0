package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	reporterAuth "github.com/MrEthical07/reporterAuth"
)

const internalErrorMessage = "internal server error"

type errorBody struct {
	Error string `json:"error"`
}

// WriteJSON writes v with status. Encoding failures are ignored; headers are
// already sent by then.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteErrorMessage writes a `{"error": msg}` body.
func WriteErrorMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{Error: msg})
}

// WriteError maps err to its status and public message. Unknown errors become
// 500 and are logged with the request method and path.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, msg := Status(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	WriteErrorMessage(w, status, msg)
}

var statusTable = []struct {
	err    error
	status int
}{
	{reporterAuth.ErrValidation, http.StatusBadRequest},
	{reporterAuth.ErrWeakPassword, http.StatusBadRequest},
	{reporterAuth.ErrDuplicateEmail, http.StatusBadRequest},
	{reporterAuth.ErrInvalidOrExpiredOTP, http.StatusBadRequest},
	{reporterAuth.ErrAlreadyVerified, http.StatusBadRequest},
	{reporterAuth.ErrPasswordReuse, http.StatusBadRequest},
	{reporterAuth.ErrUserNotFound, http.StatusNotFound},
	{reporterAuth.ErrInvalidCredentials, http.StatusUnauthorized},
	{reporterAuth.ErrUnauthorized, http.StatusUnauthorized},
	{reporterAuth.ErrInvalidToken, http.StatusUnauthorized},
	{reporterAuth.ErrEmailNotVerified, http.StatusForbidden},
	{reporterAuth.ErrForbidden, http.StatusForbidden},
	{reporterAuth.ErrCSRFValidation, http.StatusForbidden},
	{reporterAuth.ErrRateLimited, http.StatusTooManyRequests},
	{reporterAuth.ErrDelivery, http.StatusInternalServerError},
}

// Status returns the HTTP status and client-safe message for err.
func Status(err error) (int, string) {
	for _, entry := range statusTable {
		if errors.Is(err, entry.err) {
			return entry.status, entry.err.Error()
		}
	}
	return http.StatusInternalServerError, internalErrorMessage
}
