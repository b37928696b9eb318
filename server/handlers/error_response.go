package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ebogdum/kvtable/core"
	"github.com/ebogdum/kvtable/kvstore"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errMissingBucket is returned when a request names no bucket
var errMissingBucket = errors.New("query parameter bucket is required")

// SendErrorResponse sends a standardized JSON error response. Known error
// kinds override defaultStatusCode.
func SendErrorResponse(w http.ResponseWriter, logger *zap.Logger, err error, defaultStatusCode int) {
	w.Header().Set("Content-Type", "application/json")

	statusCode, errorCode := classify(err, defaultStatusCode)
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Code:    errorCode,
		Message: err.Error(),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode error response", zap.Error(err))
		fmt.Fprintf(w, "Internal error occurred")
	}

	logger.Info("Error response sent",
		zap.String("error_code", errorCode),
		zap.Int("status_code", statusCode),
		zap.Error(err))
}

func classify(err error, defaultStatusCode int) (int, string) {
	switch {
	case errors.Is(err, errMissingBucket):
		return http.StatusBadRequest, "BUCKET_REQUIRED"
	case errors.Is(err, core.ErrNoBucket):
		return http.StatusNotFound, "NO_BUCKET"
	case errors.Is(err, kvstore.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, kvstore.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, kvstore.ErrInvalidName):
		return http.StatusUnprocessableEntity, "INVALID_NAME"
	case errors.Is(err, kvstore.ErrInvalidValue):
		return http.StatusUnprocessableEntity, "INVALID_VALUE"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return defaultStatusCode, "INTERNAL_ERROR"
	}
}

// SendJSONResponse sends a JSON response with any data structure
func SendJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"error":"Failed to encode response"}`)
	}
}
