// Package request assigns every request a stable identifier for log and
// audit correlation.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"custos/pkg/requestcontext"
)

// Header carries the request ID on both requests and responses.
const Header = "X-Request-Id"

// Middleware adopts the inbound X-Request-Id when a proxy already assigned
// one, otherwise generates a fresh UUID. The ID is stored in the context and
// echoed on the response so clients can report it.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(Header, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
