package httpx

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/k1networth/orderflow/internal/shared/requestid"
)

const requestIDHeader = "X-Request-Id"

// RequestID propagates the caller's X-Request-Id or assigns a new one. The id travels with
// every work item the request publishes.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if rid == "" {
			rid = newRequestID()
		}

		w.Header().Set(requestIDHeader, rid)
		next.ServeHTTP(w, r.WithContext(requestid.With(r.Context(), rid)))
	})
}

func newRequestID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}
