package middleware

import (
	"context"
	"net/http"

	"github.com/nkiryanov/digibank/internal/handlers/render"
	"github.com/nkiryanov/digibank/internal/handlers/userctx"
	"github.com/nkiryanov/digibank/internal/models"
)

type authService interface {
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type Auth struct {
	auth authService
}

func NewAuth(as authService) *Auth {
	return &Auth{auth: as}
}

// Auth puts authenticated user to request context or responds 401
func (m *Auth) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.auth.GetUserFromRequest(r.Context(), r)
		if err != nil {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), user)))
	})
}

// RequireAdmin must be used after Auth
func (m *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !user.IsAdmin() {
			render.ServiceError(w, "Admin access required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
