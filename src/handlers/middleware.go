package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/username/yieldly/backend/src/logger"
)

// RequestLogger tags every request with an id and logs it on completion.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		start := time.Now()

		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r)

		logger.L.Info("Request handled",
			"requestID", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String())
	})
}
