package auth

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

type adminView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, ValidationError(errCredentialsRequired))
		return
	}
	if err := validateCredentials(req); err != nil {
		h.log.Warn("invalid register request", zap.Error(err))
		h.fail(w, r, err)
		return
	}

	h.log.Info("handling register request", zap.String("username", req.Username))

	if _, err := h.service.RegisterUser(r.Context(), req.Username, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered. Awaiting admin approval.",
	})
}

func (h *Handler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		h.fail(w, r, ValidationError("Username required"))
		return
	}

	available, err := h.service.UsernameAvailable(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"available": available})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, ValidationError(errCredentialsRequired))
		return
	}
	if err := validateCredentials(req); err != nil {
		h.log.Warn("invalid login request",
			zap.String("error", err.Error()),
			zap.String("username", req.Username))
		h.fail(w, r, err)
		return
	}

	result, err := h.service.ValidateLogin(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token":    result.Token,
		"username": result.Username,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := GetUserFromContext(r.Context())
	if err != nil {
		h.fail(w, r, ErrInvalidToken)
		return
	}

	if err := h.service.Logout(r.Context(), user, tokenFromContext(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := GetUserFromContext(r.Context())
	if err != nil {
		h.fail(w, r, ErrInvalidToken)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"username": user.Username,
		"status":   user.Status,
	})
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, ErrInvalidAdminCredentials)
		return
	}

	token, err := h.service.ValidateAdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"token": token})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if users == nil {
		users = []User{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	h.renewUser(w, r, h.service.ApproveUser, "User approved")
}

func (h *Handler) ReactivateUser(w http.ResponseWriter, r *http.Request) {
	h.renewUser(w, r, h.service.ReactivateUser, "User reactivated")
}

func (h *Handler) renewUser(
	w http.ResponseWriter,
	r *http.Request,
	renew func(ctx context.Context, id uint) (*User, error),
	message string,
) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := renew(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"expiry":  user.ExpiryDate.UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if _, err := h.service.DeactivateUser(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"message": "User deactivated"})
}

func (h *Handler) GetExpiry(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.ExpiryDays(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"days": days})
}

func (h *Handler) SetExpiry(w http.ResponseWriter, r *http.Request) {
	var req expiryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, ErrInvalidExpiryDays)
		return
	}

	days, err := req.ParseDays()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.SetExpiryDays(r.Context(), days); err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"message": "Expiry days updated"})
}

func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.ListAdmins(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]adminView, 0, len(admins))
	for _, a := range admins {
		views = append(views, adminView{ID: a.ID, Username: a.Username})
	}

	respondJSON(w, http.StatusOK, map[string]any{"admins": views})
}

func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, ValidationError(errCredentialsRequired))
		return
	}
	if err := validateCredentials(req); err != nil {
		h.fail(w, r, err)
		return
	}

	if _, err := h.service.CreateAdmin(r.Context(), req.Username, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"message": "Admin created"})
}

func (h *Handler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	caller, err := GetAdminFromContext(r.Context())
	if err != nil {
		h.fail(w, r, ErrInvalidAdminToken)
		return
	}

	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.DeleteAdmin(r.Context(), caller, id); err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"message": "Admin deleted"})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if KindOf(err) == 0 {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	respondError(w, err)
}
