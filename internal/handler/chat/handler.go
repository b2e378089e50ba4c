// Package chat is the thin transport in front of the conversation engine:
// a REST endpoint for single exchanges and a websocket for live dialogue.
package chat

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/autopdf/backend/internal/model/form"
	"github.com/autopdf/backend/internal/service/conversation"
	"github.com/autopdf/backend/pkg/utils"
)

// Handler routes chat messages into the engine.
type Handler struct {
	engine *conversation.Service
	hub    *Hub
	log    *zap.Logger
}

// New creates the chat handler.
func New(engine *conversation.Service, hub *Hub, log *zap.Logger) *Handler {
	return &Handler{engine: engine, hub: hub, log: log}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.handleMessage)
	r.Get("/ws/{userID}", h.handleWebSocket)
}

type messageRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

func (m messageRequest) validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.UserID, validation.Required, validation.Length(1, 128)),
		validation.Field(&m.Text, validation.Required),
	)
}

type messageResponse struct {
	Replies []form.Reply `json:"replies"`
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload messageRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := payload.validate(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	replies := h.engine.HandleMessage(r.Context(), payload.UserID, payload.Text)
	utils.RespondJSON(w, http.StatusOK, messageResponse{Replies: replies})
}
