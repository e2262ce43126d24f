package middleware

import (
	"net/http"
	"strings"

	"github.com/dmceachern/rebook/internal/auth"
	"github.com/dmceachern/rebook/internal/store"
)

// RequireAuth validates the Authorization bearer token against the session
// table and populates AuthContext for downstream handlers.
func RequireAuth(sessionStore *store.SessionStore, adminStore *store.AdminStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(token)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			admin, err := adminStore.GetByID(sess.AdminID)
			if err != nil || admin == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				AdminID:   admin.ID,
				Username:  admin.Username,
				SessionID: sess.ID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		// Calendar apps cannot set headers; allow ?token= for feed URLs.
		return r.URL.Query().Get("token")
	}
	return strings.TrimPrefix(h, prefix)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="rebook"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
