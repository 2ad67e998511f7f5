package apitest

import (
	"context"
	"net/http"
	"strings"

	"github.com/erazemk/scannerlog/internal/auth"
	"github.com/erazemk/scannerlog/internal/model"
)

type contextKey string

const userKey contextKey = "user"

// authMiddleware resolves the bearer token to an active user.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			w.Header().Set("WWW-Authenticate", "Bearer")
			jsonError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims, err := auth.ValidateToken(jwtSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			jsonError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		s.mu.Lock()
		acc := s.users[claims.Subject]
		var user model.User
		if acc != nil {
			user = acc.user
		}
		s.mu.Unlock()

		if acc == nil {
			jsonError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		if !user.IsActive {
			jsonError(w, http.StatusBadRequest, "Inactive user")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUserFrom returns the user resolved by authMiddleware.
func currentUserFrom(ctx context.Context) model.User {
	user, _ := ctx.Value(userKey).(model.User)
	return user
}
