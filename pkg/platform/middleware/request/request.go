// Package request assigns each inbound HTTP request an identifier that is
// echoed back to the caller and threaded through logs.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"domainreg/pkg/requestcontext"
)

const HeaderRequestID = "X-Request-ID"

// RequestID reuses a caller supplied X-Request-ID or generates one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
