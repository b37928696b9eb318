package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ebogdum/kvtable/auth"
)

type contextKey string

const (
	clientIDKey  contextKey = "clientID"
	RequestIDKey contextKey = "request_id"
)

// V1AuthMiddleware creates middleware for API key authentication
func V1AuthMiddleware(authenticator auth.Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing Authorization header")
				sendErrorResponse(w, logger, "AUTHENTICATION_FAILED", auth.ErrAuthenticationFailed, http.StatusUnauthorized)
				return
			}

			clientID, err := authenticator.Authenticate(r.Context(), authHeader)
			if err != nil {
				logger.Debug("Authentication failed", zap.Error(err))
				sendErrorResponse(w, logger, "AUTHENTICATION_FAILED", auth.ErrAuthenticationFailed, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), clientIDKey, clientID)
			r = r.WithContext(ctx)

			logger.Debug("Client authenticated", zap.String("client_id", clientID))

			next.ServeHTTP(w, r)
		})
	}
}

// V1RequestIDMiddleware adds a unique request ID to each request context
func V1RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := generateRequestID()

			w.Header().Set("X-Request-ID", requestID)

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			r = r.WithContext(ctx)

			next.ServeHTTP(w, r)
		})
	}
}

// generateRequestID creates a random request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GetClientID extracts the authenticated client ID from request context
func GetClientID(ctx context.Context) (string, bool) {
	clientID, ok := ctx.Value(clientIDKey).(string)
	return clientID, ok
}

// GetRequestID extracts the request ID from request context
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(RequestIDKey).(string)
	return requestID
}

// sendErrorResponse sends a JSON error response
func sendErrorResponse(w http.ResponseWriter, logger *zap.Logger, code string, err error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]string{
		"code":    code,
		"message": err.Error(),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}

	logger.Info("Error response sent",
		zap.String("error_code", code),
		zap.Int("status_code", statusCode),
		zap.Error(err))
}
