package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/services/auth"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"

	// SessionCookieName holds the signed session token
	SessionCookieName = "session"
)

// GetIdentity retrieves the authenticated identity from the request context
// Returns nil if nobody is logged in
func GetIdentity(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityContextKey).(*model.Identity)
	return identity
}

// WithIdentity returns a context carrying identity
func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// Auth returns middleware that requires authentication
// Redirects to the identity list if not authenticated
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := getIdentityFromSession(r, authService)
			if identity == nil {
				// Store original URL to redirect back after login
				redirectURL := "/?" + url.Values{"next": {r.URL.Path}}.Encode()
				http.Redirect(w, r, redirectURL, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuth returns middleware that attempts authentication but doesn't require it
// Sets the identity in context if authenticated, nil otherwise
func OptionalAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := getIdentityFromSession(r, authService)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func getIdentityFromSession(r *http.Request, authService *auth.Service) *model.Identity {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, err := authService.ValidateSession(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}

	return &session.Identity
}
