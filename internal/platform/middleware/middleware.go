// Package middleware holds the HTTP middleware chain shared by every route:
// request ids for log correlation, request-scoped time, and actor propagation.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	id "sglgb/pkg/domain"
	"sglgb/pkg/requestcontext"
)

// RequestID assigns each request a correlation id, preferring one supplied by
// the caller.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestTime captures one timestamp at the start of the request so every
// operation within it sees the same "now". Deadline checks and audit entries
// stay consistent even on slow requests.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Actor propagates the authenticated actor forwarded by the gateway. The
// gateway terminates authentication; this service trusts its X-Actor-ID and
// X-Actor-Role headers.
func Actor(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if header := r.Header.Get("X-Actor-ID"); header != "" {
				actorID, err := id.ParseUserID(header)
				if err != nil {
					logger.WarnContext(ctx, "ignoring malformed actor header", "error", err)
				} else {
					ctx = requestcontext.WithActorID(ctx, actorID)
				}
			}
			if role := r.Header.Get("X-Actor-Role"); role != "" {
				ctx = requestcontext.WithActorRole(ctx, requestcontext.Role(role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
