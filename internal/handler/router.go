package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/autopdf/backend/internal/handler/chat"
	"github.com/autopdf/backend/internal/handler/documents"
	"github.com/autopdf/backend/internal/handler/templates"
	middlewarePkg "github.com/autopdf/backend/internal/middleware"
	"github.com/autopdf/backend/internal/service/conversation"
	"github.com/autopdf/backend/internal/service/retention"
	"github.com/autopdf/backend/internal/storage"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(repo storage.Repository, engine *conversation.Service, store *retention.Store,
	hub *chat.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(engine, hub, log)
	templatesHandler := templates.New(repo)
	documentsHandler := documents.New(store, log)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		templatesHandler.RegisterRoutes(api)
		documentsHandler.RegisterRoutes(api)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
