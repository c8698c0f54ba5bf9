package handler

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskpad/taskpad-go/internal/middleware"
	"github.com/taskpad/taskpad-go/internal/service"
)

// RouterConfig collects what NewRouter needs to wire the API.
type RouterConfig struct {
	DB        *sql.DB
	Auth      *service.AuthService
	Users     *service.UserService
	Tasks     *service.TaskService
	JWTSecret string

	// GuestMode mounts the task routes under /api/v1/guest acting as the
	// demo user.
	GuestMode bool

	AuthRateRPS   float64
	AuthRateBurst int

	// Registry receives the HTTP metrics; nil skips metrics entirely.
	Registry *prometheus.Registry
}

// NewRouter builds the HTTP routes. ctx bounds background work such as the
// rate limiter's janitor.
func NewRouter(ctx context.Context, cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Auth)
	taskHandler := NewTaskHandler(cfg.Tasks)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger)
	if cfg.Registry != nil {
		r.Use(middleware.NewMetrics(cfg.Registry).Handler)
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	r.Get("/health", HandleHealth(cfg.DB))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(ctx, cfg.AuthRateRPS, cfg.AuthRateBurst))
			r.Post("/auth/register", authHandler.HandleRegister)
			r.Post("/auth/login", authHandler.HandleLogin)
			r.Post("/auth/resend-verification", authHandler.HandleResendVerification)
		})
		r.Get("/auth/verify", authHandler.HandleVerifyEmail)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(cfg.JWTSecret))
			r.Get("/auth/me", authHandler.HandleMe)
			r.Route("/tasks", taskHandler.Routes)
		})

		if cfg.GuestMode {
			r.Route("/guest/tasks", func(r chi.Router) {
				r.Use(middleware.GuestIdentity(demoResolver(cfg.Users)))
				taskHandler.Routes(r)
			})
		}
	})

	return r
}

func demoResolver(users *service.UserService) middleware.GuestResolver {
	return func(ctx context.Context) (int64, bool, error) {
		demo, found, err := users.DemoUser(ctx)
		if err != nil || !found {
			return 0, found, err
		}
		return demo.ID, true, nil
	}
}
