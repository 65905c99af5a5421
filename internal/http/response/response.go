// Package response writes enveloped JSON responses for handlers that run
// outside huma (multipart upload, media, middleware rejections).
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/store"
)

// Version is the envelope format version, sent as "v".
const Version = 1

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func write(w http.ResponseWriter, status int, envelope Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(envelope); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// JSON writes data wrapped in a success envelope.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	write(w, status, Envelope{Version: Version, Success: status < 400, Data: data}, logger)
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Created writes a created response (201 Created).
func Created(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusCreated, data, logger)
}

// NoContent writes a no content response (204 No Content).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes an error envelope with the given status code.
func Error(w http.ResponseWriter, status int, code domainerrors.Code, message string, details any, logger *slog.Logger) {
	write(w, status, Envelope{
		Version: Version,
		Success: false,
		Code:    string(code),
		Message: message,
		Details: details,
	}, logger)
}

// BadRequest writes a 400 Bad Request response.
func BadRequest(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusBadRequest, domainerrors.CodeValidation, message, nil, logger)
}

// Unauthorized writes a 401 Unauthorized response.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusUnauthorized, domainerrors.CodeUnauthorized, message, nil, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, domainerrors.CodeNotFound, message, nil, logger)
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, domainerrors.CodeRateLimited, message, nil, logger)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, domainerrors.CodeInternal, message, nil, logger)
}

// HandleError writes an appropriate HTTP response based on the error type.
// Domain and store errors keep their status; unknown errors become 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		Error(w, domainErr.HTTPStatus(), domainErr.Code, domainErr.Message, domainErr.Details, logger)
		return
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		Error(w, storeErr.HTTPCode(), codeForStatus(storeErr.HTTPCode()), storeErr.Message, nil, logger)
		return
	}

	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	InternalError(w, "internal server error", logger)
}

func codeForStatus(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest:
		return domainerrors.CodeValidation
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeAlreadyExists
	default:
		return domainerrors.CodeInternal
	}
}
