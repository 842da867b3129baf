package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/SymbolBoard/internal/middleware"
)

// NewRouter constructs the HTTP handler of the records API.
//
// Routes:
//
//	GET    /api/records?prefix=  → recordsHandler.List
//	GET    /api/records/{key}    → recordsHandler.Get
//	PUT    /api/records/{key}    → recordsHandler.Put
//	DELETE /api/records/{key}    → recordsHandler.Delete
//	POST   /api/batch/read       → recordsHandler.BatchRead
//
// Keys contain slashes, so record routes match with a wildcard. Every
// request passes through request logging and OwnerAuth; allowOwnerHeader
// is forwarded to OwnerAuth.
func NewRouter(
	recordsHandler *RecordsHandler,
	logger *zap.Logger,
	allowOwnerHeader bool,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	// Only allow requests with Content-Type: application/json. Bodyless
	// requests are not checked.
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.OwnerAuth(allowOwnerHeader))

	r.Route("/api", func(r chi.Router) {
		r.Get("/records", recordsHandler.List)
		r.Get("/records/*", recordsHandler.Get)
		r.Put("/records/*", recordsHandler.Put)
		r.Delete("/records/*", recordsHandler.Delete)
		r.Post("/batch/read", recordsHandler.BatchRead)
	})

	return r
}
