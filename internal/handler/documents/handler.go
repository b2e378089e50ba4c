package documents

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/autopdf/backend/internal/service/retention"
	"github.com/autopdf/backend/pkg/utils"
)

// Handler serves retained documents for re-download.
type Handler struct {
	store *retention.Store
	log   *zap.Logger
}

// New creates the documents handler.
func New(store *retention.Store, log *zap.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// RegisterRoutes registers the document routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/documents/{documentID}", h.handleDownload)
}

// handleDownload streams a retained document. Records are scoped to their
// owner, so the owner id must accompany the record id.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		utils.RespondError(w, http.StatusBadRequest, "owner query parameter is required")
		return
	}

	rec, ok, err := h.store.Find(ownerID, documentID)
	if err != nil {
		h.log.Warn("retention lookup failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "document not found")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+rec.Filename+"\"")
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, rec.Path)
}
