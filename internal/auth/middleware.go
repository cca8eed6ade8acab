package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// contextKey keys the request values set by the middleware.
type contextKey string

const (
	userContextKey  contextKey = "user"
	adminContextKey contextKey = "admin"
	tokenContextKey contextKey = "token"
)

type AuthMiddleware struct {
	service *Service
	log     *zap.Logger
}

func NewAuthMiddleware(service *Service, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		service: service,
		log:     log,
	}
}

// RequireUser admits requests carrying the caller's current user session.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)

		user, err := m.service.AuthenticateUser(r.Context(), token)
		if err != nil {
			m.reject(w, r, RealmUser, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin admits requests carrying a valid admin token.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, err := m.service.AuthenticateAdmin(r.Context(), bearerToken(r))
		if err != nil {
			m.reject(w, r, RealmAdmin, err)
			return
		}

		ctx := context.WithValue(r.Context(), adminContextKey, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, realm string, err error) {
	if KindOf(err) == 0 {
		m.log.Error("authorization failed",
			zap.String("realm", realm),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	} else {
		m.log.Debug("request rejected",
			zap.String("realm", realm),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	respondError(w, err)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUserFromContext returns the user admitted by RequireUser.
func GetUserFromContext(ctx context.Context) (*User, error) {
	user, ok := ctx.Value(userContextKey).(*User)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	return user, nil
}

// GetAdminFromContext returns the admin admitted by RequireAdmin.
func GetAdminFromContext(ctx context.Context) (*Admin, error) {
	admin, ok := ctx.Value(adminContextKey).(*Admin)
	if !ok {
		return nil, errors.New("admin not found in context")
	}
	return admin, nil
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}
