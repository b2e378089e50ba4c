package templates

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/autopdf/backend/internal/storage"
	"github.com/autopdf/backend/pkg/utils"
)

// Handler exposes the template catalogue.
type Handler struct {
	repo storage.Repository
}

// New creates the templates handler.
func New(repo storage.Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the template routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/templates", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := h.repo.ListTemplates(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "templates unavailable")
		return
	}
	utils.RespondJSON(w, http.StatusOK, infos)
}
