package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-notify-nosql/internal/app"
	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/domain"
	jwtinfra "github.com/go-notify-nosql/internal/infrastructure/jwt"
	s3infra "github.com/go-notify-nosql/internal/infrastructure/s3"
	"github.com/go-notify-nosql/internal/transport/http/handler"
	appmiddleware "github.com/go-notify-nosql/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Deps holds what the router needs beyond configuration.
type Deps struct {
	Services    *app.Services
	JWTProvider *jwtinfra.Provider
	Reports     *s3infra.Store // nil hides the report routes
	Checks      map[string]func(context.Context) error
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)
	adminOnly := appmiddleware.RequireRole(domain.RoleAdmin)

	// 5 requests/second, burst of 10, per client address.
	loginRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10, appmiddleware.ByIP)
	// one manual sweep every 10 seconds per user, burst of 2.
	sweepRL := appmiddleware.NewRateLimiter(rate.Limit(0.1), 2, appmiddleware.ByUser)

	svc := deps.Services
	healthH := handler.NewHealthHandler(deps.Checks)
	sessionH := handler.NewSessionHandler(svc.Sessions)
	userH := handler.NewUserHandler(svc.Users)
	notifH := handler.NewNotificationHandler(svc.Notifications, svc.Scheduled, svc.Sweeper)
	schedH := handler.NewScheduledHandler(svc.Scheduled)
	recipientH := handler.NewRecipientHandler(svc.Recipients)
	audienceH := handler.NewAudienceHandler(svc.Audiences)
	templateH := handler.NewTemplateHandler(svc.Templates)
	scopeH := handler.NewScopeHandler(svc.Scopes)
	settingsH := handler.NewSettingsHandler(svc.Settings)
	auditH := handler.NewAuditHandler(svc.Audit)
	dashH := handler.NewDashboardHandler(svc.Dashboard)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(loginRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(loginRL.Limit).Post("/sessions/refresh", sessionH.Refresh)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Get("/sessions/all", sessionH.List)
			r.Post("/sessions/logout", sessionH.Logout)
			r.Delete("/sessions/{id}", sessionH.Revoke)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)

			r.Get("/notifications", notifH.List)
			r.Post("/notifications", notifH.Create)
			r.With(sweepRL.Limit).Post("/notifications/process-scheduled", notifH.ProcessScheduled)
			r.With(sweepRL.Limit).Get("/notifications/process-scheduled", notifH.ProcessScheduled)
			r.Get("/notifications/{id}", notifH.Get)

			r.Get("/scheduled-notifications", schedH.List)
			r.Get("/scheduled-notifications/{id}", schedH.Get)
			r.Patch("/scheduled-notifications/{id}", schedH.Action)
			r.Post("/scheduled-notifications/{id}", schedH.Action)

			if deps.Reports != nil {
				reportH := handler.NewReportHandler(deps.Reports, cfg.ReportURLTTL)
				r.Get("/notifications/{id}/report", reportH.For(domain.EntityNotification))
				r.Get("/scheduled-notifications/{id}/report", reportH.For(domain.EntityScheduledNotification))
			}

			r.Get("/recipients", recipientH.List)
			r.Post("/recipients", recipientH.Create)
			r.Get("/recipients/{id}", recipientH.Get)
			r.Put("/recipients/{id}", recipientH.Update)
			r.Delete("/recipients/{id}", recipientH.Delete)

			r.Get("/audiences", audienceH.List)
			r.Post("/audiences", audienceH.Create)
			r.Get("/audiences/{id}", audienceH.Get)
			r.Put("/audiences/{id}", audienceH.Update)
			r.Delete("/audiences/{id}", audienceH.Delete)

			r.Get("/templates", templateH.List)
			r.Post("/templates", templateH.Create)
			r.Get("/templates/{id}", templateH.Get)
			r.Put("/templates/{id}", templateH.Update)
			r.Delete("/templates/{id}", templateH.Delete)

			r.Get("/scopes", scopeH.List)
			r.Get("/scopes/{id}", scopeH.Get)
			r.Get("/settings", settingsH.Get)
			r.Get("/dashboard/stats", dashH.Stats)
			r.Get("/dashboard/pending-approval-count", dashH.PendingApprovalCount)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)

				r.Post("/users", userH.Create)
				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Delete)

				r.Post("/notifications/{id}/approve", notifH.Approve)
				r.Post("/notifications/{id}/reject", notifH.Reject)

				r.Post("/scopes", scopeH.Create)
				r.Put("/scopes/{id}", scopeH.Update)
				r.Delete("/scopes/{id}", scopeH.Delete)

				r.Put("/settings", settingsH.Update)
				r.Get("/audit", auditH.List)
			})
		})
	})

	return r
}
