package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elskow/gatehouse/internal/auth"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterOptions struct {
	Handler        *auth.Handler
	Middleware     *auth.AuthMiddleware
	Ready          Pinger
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	// RequestTimeout bounds each request when positive.
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP surface: the public and user endpoints under
// /api, the admin endpoints under /api/admin, and the probes.
func NewRouter(opts RouterOptions) http.Handler {
	h, mw := opts.Handler, opts.Middleware

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	allowed := opts.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         int((10 * time.Minute).Seconds()),
	}))

	r.Post(Register, h.Register)
	r.Get(CheckUsername, h.CheckUsername)
	r.Post(Login, h.Login)
	r.Post(AdminLogin, h.AdminLogin)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireUser)
		r.Post(Logout, h.Logout)
		r.Get(Me, h.Me)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(mw.RequireAdmin)
		r.Get(AdminUsers, h.ListUsers)
		r.Post(AdminUserApprove, h.ApproveUser)
		r.Post(AdminUserDeactivate, h.DeactivateUser)
		r.Post(AdminUserReactivate, h.ReactivateUser)
		r.Get(AdminExpirySetting, h.GetExpiry)
		r.Post(AdminExpirySetting, h.SetExpiry)
		r.Get(AdminAdmins, h.ListAdmins)
		r.Post(AdminAdmins, h.CreateAdmin)
		r.Delete(AdminAdmin, h.DeleteAdmin)
	})

	r.Get(Healthz, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get(Readyz, func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready.Ping(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, Metrics, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
