package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"empdir/internal/platform/logger"
)

const (
	requestIDHeader        = "X-Request-ID"
	ctxKeyRequestID ctxKey = "request_id"
)

// RequestID reuses an inbound X-Request-ID or mints one, echoes it on the
// response and attaches a request-scoped logger to the context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		ctx = logger.WithRequestID(ctx, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return value
	}
	return ""
}
