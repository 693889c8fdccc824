package middleware

import (
	"context"
	"net/http"
	"strings"

	marketauth "github.com/arvendel/marketauth"
	"github.com/arvendel/marketauth/role"
)

// SessionCookie is the cookie consulted when no Authorization header is set.
const SessionCookie = "marketauth_session"

type authResultContextKey struct{}

func AuthResultFromContext(ctx context.Context) (*marketauth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*marketauth.AuthResult)
	return res, ok
}

// TokenFromRequest extracts the session token from the Authorization header
// or the session cookie.
func TokenFromRequest(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func Guard(engine *marketauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := TokenFromRequest(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := engine.Validate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests below the minimum role with 403.
// It must run inside [Guard].
func RequireRole(minimum role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthResultFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !res.Principal.Role.AtLeast(minimum) {
				http.Error(w, "requires role "+minimum.String()+" or higher", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOrAdmin admits the resource owner and administrative roles.
// extract returns the owning principal id for the request. Failures answer
// 404 so the resource's existence is not confirmed to outsiders.
func RequireOwnerOrAdmin(extract func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthResultFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ownerID := extract(r)
			if ownerID != "" && ownerID == res.Principal.ID {
				next.ServeHTTP(w, r)
				return
			}
			if res.Principal.Role.IsAdministrative() {
				next.ServeHTTP(w, r)
				return
			}

			http.NotFound(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
