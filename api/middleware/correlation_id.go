package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/orchestraops/planning-service/pkg/logger"
)

// CorrelationHeader carries the correlation id across service boundaries.
// The same value travels on every change event the request produces.
const CorrelationHeader = "X-Correlation-Id"

type correlationIDKey struct{}

// CorrelationID reads the inbound correlation header, minting a fresh id when
// the caller did not supply one, and echoes it back on the response.
func CorrelationID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			correlationID := r.Header.Get(CorrelationHeader)
			if correlationID == "" {
				correlationID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), correlationIDKey{}, correlationID)
			if logg != nil {
				ctx = logg.WithCorrelationID(ctx, correlationID)
			}

			w.Header().Set(CorrelationHeader, correlationID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CorrelationIDFromContext returns the request's correlation id, or "" when
// the middleware did not run.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}
