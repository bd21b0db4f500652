package api

import (
	"github.com/go-chi/chi/v5"
)

// setupAPIRoutes sets up API v1 routes
func (s *RESTServer) setupAPIRoutes(r chi.Router) {
	// Health check
	r.Get("/health", s.HandleHealth)
	r.Get("/", s.HandleRoot)

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.HandleSignUp)
		r.Post("/login", s.HandleLogin)
		r.Post("/refresh", s.HandleRefresh)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		// Current user
		r.Route("/users", func(r chi.Router) {
			r.Get("/me", s.HandleGetCurrentUser)
			r.Put("/me", s.HandleUpdateCurrentUser)
		})

		// Organizations
		r.Route("/organizations", func(r chi.Router) {
			r.Get("/", s.HandleListOrganizations)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetOrganization)
				r.Put("/", s.HandleUpdateOrganization)
			})
		})

		// Team
		r.Route("/team", func(r chi.Router) {
			r.Get("/", s.HandleListMembers)
			r.Post("/", s.HandleInviteMember)
			r.Route("/{user_id}", func(r chi.Router) {
				r.Put("/", s.HandleUpdateMember)
				r.Delete("/", s.HandleRemoveMember)
			})
		})

		// Sites
		r.Route("/sites", func(r chi.Router) {
			r.Get("/", s.HandleListSites)
			r.Post("/", s.HandleCreateSite)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetSite)
				r.Put("/", s.HandleUpdateSite)
				r.Delete("/", s.HandleDeleteSite)
			})
		})

		// Logbook
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.HandleListEntries)
			r.Post("/check-in", s.HandleCheckIn)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetEntry)
				r.Post("/check-out", s.HandleCheckOut)
				r.Delete("/", s.HandleDeleteEntry)
			})
		})

		// Analytics
		r.Get("/analytics", s.HandleGetAnalytics)

		// Billing
		r.Route("/billing", func(r chi.Router) {
			r.Get("/plans", s.HandleListPlans)
			r.Get("/subscription", s.HandleGetSubscription)
			r.Get("/usage", s.HandleGetUsage)
		})

		// API keys
		r.Route("/api-keys", func(r chi.Router) {
			r.Get("/", s.HandleListAPIKeys)
			r.Post("/", s.HandleCreateAPIKey)
			r.Delete("/{id}", s.HandleRevokeAPIKey)
		})

		// Audit logs
		r.Get("/audit-logs", s.HandleListAuditLogs)
	})
}
