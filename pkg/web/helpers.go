package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MaxBodyBytes caps the size of JSON request bodies.
const MaxBodyBytes = 1 << 20

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, map[string]string{"error": message})
}

// RespondValidationError writes a 400 with the failing fields keyed by name.
func RespondValidationError(w http.ResponseWriter, logger *slog.Logger, fields map[string]string) {
	RespondJSON(w, logger, http.StatusBadRequest, map[string]any{
		"error":             "validation failed",
		"validation_errors": fields,
	})
}

// DecodeJSON reads the request body into dst. On failure it writes a 400 and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			RespondError(w, logger, http.StatusBadRequest, "Request body is empty")
			return false
		}
		logger.WarnContext(r.Context(), "Failed to decode request body", "error", err)
		RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// PathParam returns a non-empty chi URL parameter. On failure it writes a 400 and returns false.
func PathParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (string, bool) {
	value := chi.URLParam(r, name)
	if value == "" {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Missing path parameter: %s", name))
		return "", false
	}
	return value, true
}

func MapGrpcToHttpStatus(err error) (statusCode int, message string) {
	st, ok := status.FromError(err)
	if !ok {
		return http.StatusInternalServerError, "Internal server error"
	}
	switch st.Code() {
	case codes.NotFound:
		return http.StatusNotFound, st.Message()
	case codes.AlreadyExists:
		return http.StatusConflict, st.Message()
	case codes.InvalidArgument:
		return http.StatusBadRequest, st.Message()
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout, "The request timed out"
	case codes.Unavailable:
		return http.StatusServiceUnavailable, "Service is temporarily unavailable"
	default:
		return http.StatusInternalServerError, "An unexpected error occurred"
	}
}
