// Package httpjson holds the JSON response conventions shared by every
// controller.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/moaz267/furniture/internal/errors"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	TraceID   string                       `json:"traceId"`
	Error     string                       `json:"error"`
	Message   string                       `json:"message"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}

// Trace tags a request with a fresh trace id and returns a logger carrying it.
func Trace(logger *zap.Logger, r *http.Request) (string, *zap.Logger) {
	traceID := uuid.New().String()
	return traceID, logger.With(
		zap.String("traceId", traceID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func Write(w http.ResponseWriter, status int, data any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// Decode reads a JSON body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewValidationError("request body is required", apperrors.ValidationDetail{
				Field:   "body",
				Message: "request body must not be empty",
			})
		}
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
	}
	return nil
}

func WriteValidationError(w http.ResponseWriter, traceID, message string, logger *zap.Logger, details ...apperrors.ValidationDetail) {
	Write(w, http.StatusBadRequest, ErrorResponse{
		TraceID:   traceID,
		Error:     "VALIDATION_ERROR",
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}, logger)
}

// WriteError maps an application error to its HTTP status and error code.
// Unrecognised errors are logged and reported as INTERNAL_ERROR without
// leaking their text.
func WriteError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		WriteValidationError(w, traceID, ve.Message, logger, ve.Details...)
		return
	}

	status, code, message := classify(err)
	switch {
	case status == http.StatusInternalServerError:
		logger.Error("unexpected error", zap.Error(err))
	case status == http.StatusServiceUnavailable:
		logger.Warn("dependency unavailable", zap.Error(err))
	}

	Write(w, status, ErrorResponse{
		TraceID:   traceID,
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}, logger)
}

func classify(err error) (int, string, string) {
	if e, ok := apperrors.IsUnauthorizedError(err); ok {
		return http.StatusUnauthorized, "UNAUTHORIZED", e.Message
	}
	if e, ok := apperrors.IsForbiddenError(err); ok {
		return http.StatusForbidden, "FORBIDDEN", e.Message
	}
	if e, ok := apperrors.IsNotFoundError(err); ok {
		return http.StatusNotFound, "NOT_FOUND", e.Message
	}
	if e, ok := apperrors.IsConflictError(err); ok {
		return http.StatusConflict, "CONFLICT", e.Message
	}
	if e, ok := apperrors.IsDeadlockError(err); ok {
		return http.StatusConflict, "DEADLOCK", e.Message
	}
	if e, ok := apperrors.IsUnavailableError(err); ok {
		return http.StatusServiceUnavailable, "RETRYABLE", e.Message
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred"
}
