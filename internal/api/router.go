package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/meetgrid/backend/internal/domain"
	"github.com/meetgrid/backend/internal/middleware"
)

// Router holds all handlers and creates the chi router
type Router struct {
	authHandler         *AuthHandler
	profileHandler      *ProfileHandler
	connectionHandler   *ConnectionHandler
	conversationHandler *ConversationHandler
	healthHandler       *HealthHandler
	hub                 *EventHub
	authService         *domain.AuthService
	cookieName          string
	allowedOrigins      []string
	logger              *zap.Logger
}

func NewRouter(
	authHandler *AuthHandler,
	profileHandler *ProfileHandler,
	connectionHandler *ConnectionHandler,
	conversationHandler *ConversationHandler,
	healthHandler *HealthHandler,
	hub *EventHub,
	authService *domain.AuthService,
	cookieName string,
	allowedOrigins []string,
	logger *zap.Logger,
) *Router {
	return &Router{
		authHandler:         authHandler,
		profileHandler:      profileHandler,
		connectionHandler:   connectionHandler,
		conversationHandler: conversationHandler,
		healthHandler:       healthHandler,
		hub:                 hub,
		authService:         authService,
		cookieName:          cookieName,
		allowedOrigins:      allowedOrigins,
		logger:              logger,
	}
}

// Setup configures and returns the chi router
func (rt *Router) Setup() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(MetricsMiddleware)
	r.Use(middleware.CORSMiddleware(rt.allowedOrigins))
	r.Use(chimiddleware.Compress(5))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", rt.healthHandler.Health)
		r.Get("/ready", rt.healthHandler.Ready)
		r.Get("/live", rt.healthHandler.Live)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Auth routes reachable without a session
		r.Route("/auth", func(r chi.Router) {
			r.Post("/session", rt.authHandler.ExchangeSession)
			r.Get("/login", rt.authHandler.Login)
			r.Get("/callback", rt.authHandler.Callback)
			r.Post("/logout", rt.authHandler.Logout)

			// Session required
			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthMiddleware(rt.authService, rt.cookieName))
				r.Get("/me", rt.authHandler.Me)
				r.Post("/complete-onboarding", rt.authHandler.CompleteOnboarding)
			})
		})

		// Session required, onboarding not yet: profile creation is
		// part of onboarding itself.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(rt.authService, rt.cookieName))

			r.Route("/profile", func(r chi.Router) {
				r.Post("/", rt.profileHandler.Create)
				r.Get("/", rt.profileHandler.GetMine)
				r.Put("/", rt.profileHandler.Update)

				// Browsing and viewing others requires onboarding
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireOnboarded)
					r.Get("/browse", rt.profileHandler.Browse)
					r.Get("/{userID}", rt.profileHandler.Get)
				})
			})

			r.Get("/ws", rt.hub.Serve)
		})

		// Session and completed onboarding required
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(rt.authService, rt.cookieName))
			r.Use(middleware.RequireOnboarded)

			r.Route("/connections", func(r chi.Router) {
				r.Post("/request", rt.connectionHandler.SendRequest)
				r.Get("/requests/received", rt.connectionHandler.ListReceived)
				r.Get("/requests/sent", rt.connectionHandler.ListSent)
				r.Put("/requests/{id}/respond", rt.connectionHandler.Respond)
				r.Put("/requests/{id}/block", rt.connectionHandler.Block)
				r.Get("/established", rt.connectionHandler.ListEstablished)
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", rt.conversationHandler.List)
				r.Get("/{id}", rt.conversationHandler.Open)
				r.Get("/{id}/messages", rt.conversationHandler.Open)
				r.Post("/{id}/messages", rt.conversationHandler.SendMessage)
			})
		})
	})

	return r
}
