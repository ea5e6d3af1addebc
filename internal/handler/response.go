package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/faithfast/faithfast-go/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MB

const internalErrorMessage = "Server error. Please try again."

var errInvalidBody = errors.New("invalid request body")

// envelope is the response shape every endpoint shares.
type envelope struct {
	Message string `json:"message"`
	Error   bool   `json:"error"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, envelope{Message: msg, Success: true, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Message: msg, Error: true})
}

// writeError maps a service error to its status. 5xx causes are logged and
// replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
		msg := internalErrorMessage
		switch {
		case errors.Is(err, service.ErrEmailDelivery):
			msg = "Failed to send verification email"
		case errors.Is(err, service.ErrPersistence):
			msg = "Failed to create user"
		}
		writeFailure(w, status, msg)
		return
	}
	writeFailure(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidBody),
		errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrPasswordTooLong),
		errors.Is(err, service.ErrLoginFieldsRequired),
		errors.Is(err, service.ErrCodeRequired),
		errors.Is(err, service.ErrNotRegistered),
		errors.Is(err, service.ErrAccountInactive),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrAlreadyVerified):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrRefreshTokenRequired),
		errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a size-capped JSON body into dst. It writes the error
// response itself and reports whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeFailure(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeFailure(w, http.StatusBadRequest, errInvalidBody.Error())
	return false
}
