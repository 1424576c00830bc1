package auth

import (
	"context"
	"net/http"
)

type contextKey int

const userIDKey contextKey = 0

// WithUserID returns a context carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user ID stored in the context, or
// empty when the request was not authenticated.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Middleware enforces bearer authentication on an HTTP handler chain.
// When the service is nil, auth is disabled and every request passes
// through unauthenticated.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if svc == nil {
				next.ServeHTTP(w, r)
				return
			}

			token := TokenFromRequest(r)
			if token == "" {
				unauthorized(w, "Not authenticated")
				return
			}

			claims, err := svc.Validate(token)
			if err != nil {
				unauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.Subject)))
		})
	}
}

// HTTPContextFunc adapts token extraction for the streamable MCP
// handler, which builds tool contexts from the inbound request itself.
// Validation failures leave the context unauthenticated rather than
// rejecting the request; tools decide what anonymity means for them.
func HTTPContextFunc(svc *Service) func(ctx context.Context, r *http.Request) context.Context {
	return func(ctx context.Context, r *http.Request) context.Context {
		if svc == nil {
			return ctx
		}
		token := TokenFromRequest(r)
		if token == "" {
			return ctx
		}
		claims, err := svc.Validate(token)
		if err != nil {
			return ctx
		}
		return WithUserID(ctx, claims.Subject)
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"detail":"` + detail + `"}`))
}
