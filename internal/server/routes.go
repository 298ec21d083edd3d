package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sellerdesk/internal/handlers"
	"sellerdesk/internal/handlers/api"
	"sellerdesk/internal/middleware"
)

// Handlers are the request handlers the server routes to.
type Handlers struct {
	Auth     *middleware.AuthMiddleware
	Probe    *handlers.ProbeHandler
	Preview  *handlers.PreviewHandler
	Keywords *api.KeywordHandler
	Listing  *api.ListingHandler
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(h Handlers) {
	// Probes and metrics are unauthenticated
	s.App.Get("/healthz", h.Probe.Liveness)
	s.App.Get("/readyz", h.Probe.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	s.App.Get("/drafts/:id/preview", h.Auth.RequireAuth, h.Preview.Preview)

	apiGroup := s.App.Group("/api", h.Auth.RequireAuth, s.rateLimiter())

	kw := apiGroup.Group("/keywords")
	kw.Post("/cerebro", h.Keywords.Cerebro)
	kw.Get("/history", h.Keywords.History)
	kw.Post("/history", h.Keywords.SaveHistory)

	ls := apiGroup.Group("/listing")
	ls.Post("/generate", h.Listing.Generate)
	ls.Post("/regenerate", h.Listing.Regenerate)
	ls.Post("/validate", h.Listing.Validate)
	ls.Post("/finalize", h.Listing.Finalize)
	ls.Get("/draft", h.Listing.ListDrafts)
	ls.Post("/draft", h.Listing.CreateDraft)
	ls.Get("/draft/:id", h.Listing.GetDraft)
	ls.Patch("/draft/:id", h.Listing.UpdateDraft)
	ls.Get("/templates", h.Listing.ListTemplates)
	ls.Post("/templates", h.Listing.CreateTemplate)
}
