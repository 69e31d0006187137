package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/charsheets/internal/api/apierr"
	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/services/auth"
)

type sessionKey struct{}

// SessionCookieName is the cookie the web interface stores its token in.
// API clients may send it instead of a bearer token.
const SessionCookieName = "session"

// Auth rejects requests without a valid session token and stores the
// session on the request context
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				unauthorized(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(r.Context(), token)
			if err != nil {
				unauthorized(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, err error) {
	if apierr.StatusOf(err) == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="charsheets"`)
	}
	apierr.WriteError(w, err)
}

// sessionToken reads a bearer token, falling back to the session cookie
func sessionToken(r *http.Request) string {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// GetSession returns the session stored by Auth, or nil
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionKey{}).(*auth.Session)
	return session
}

// GetIdentity returns the identity of the session stored by Auth, or nil
func GetIdentity(ctx context.Context) *model.Identity {
	if session := GetSession(ctx); session != nil {
		return &session.Identity
	}
	return nil
}
