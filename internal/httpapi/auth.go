package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/store"
)

type authContextKey struct{}

type authInfo struct {
	Session store.Session
}

func AuthMiddleware(authStore store.AuthStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicEndpoint(r) {
			next.ServeHTTP(w, r)
			return
		}
		sessionID := sessionIDFromRequest(r)
		if sessionID == "" {
			writeError(w, "", http.StatusUnauthorized, "unauthorized", "missing session")
			return
		}
		session, err := authStore.GetSession(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				writeError(w, "", http.StatusUnauthorized, "unauthorized", "invalid session")
				return
			}
			writeError(w, "", http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}
		ctx := context.WithValue(r.Context(), authContextKey{}, authInfo{Session: session})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authFromContext(ctx context.Context) (store.Session, bool) {
	value := ctx.Value(authContextKey{})
	if value == nil {
		return store.Session{}, false
	}
	info, ok := value.(authInfo)
	if !ok {
		return store.Session{}, false
	}
	return info.Session, true
}

// requireBusiness checks that the caller's session belongs to the
// business it is acting on. Staff never cross business boundaries.
func requireBusiness(w http.ResponseWriter, r *http.Request, businessID string) bool {
	session, ok := authFromContext(r.Context())
	if !ok {
		writeError(w, "", http.StatusUnauthorized, "unauthorized", "missing session")
		return false
	}
	if businessID == "" {
		writeError(w, "", http.StatusBadRequest, "invalid_request", "business_id is required")
		return false
	}
	if session.BusinessID != businessID {
		writeError(w, "", http.StatusForbidden, "access_denied", "business access denied")
		return false
	}
	return true
}

func sessionIDFromRequest(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.Header.Get("X-Session-ID"))
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

func isPublicEndpoint(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/metrics", "/api/auth/login":
		return true
	}
	if strings.HasPrefix(r.URL.Path, "/api/public/") {
		return true
	}
	return r.Method == http.MethodOptions
}
