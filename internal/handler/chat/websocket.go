package chat

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/autopdf/backend/internal/service/conversation"
	"github.com/autopdf/backend/pkg/utils"
)

// Hub tracks each user's live websocket connection and implements the
// engine's document delivery boundary over it. One lock covers both the
// connection map and writes, so pushed documents never interleave with
// replies on the same connection.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
	log   *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{conns: make(map[string]*websocket.Conn), log: log}
}

func (h *Hub) register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[userID]; ok {
		old.Close()
	}
	h.conns[userID] = conn
}

func (h *Hub) unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == conn {
		delete(h.conns, userID)
	}
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type inboundMessage struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type replyPayload struct {
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
}

type documentPayload struct {
	Filename string `json:"filename"`
	Caption  string `json:"caption"`
	Content  string `json:"content"` // base64 document bytes
}

// SendDocument pushes the document to the owner's live connection. With no
// connection, or a failed read or write, the delivery counts as failed; the
// artifact itself stays retained for a later resend.
func (h *Hub) SendDocument(ownerID, path, filename, caption string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[ownerID]
	if !ok {
		return fmt.Errorf("%w: no active connection for user %s", conversation.ErrDeliveryFailed, ownerID)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", conversation.ErrDeliveryFailed, err)
	}

	msg := outgoingMessage{
		Type: "document",
		Data: documentPayload{
			Filename: filename,
			Caption:  caption,
			Content:  base64.StdEncoding.EncodeToString(content),
		},
		Timestamp: time.Now().UnixMilli(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("%w: %v", conversation.ErrDeliveryFailed, err)
	}
	return nil
}

func (h *Hub) send(userID string, msg outgoingMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[userID]
	if !ok {
		return fmt.Errorf("no active connection for user %s", userID)
	}
	return conn.WriteJSON(msg)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		utils.RespondError(w, http.StatusBadRequest, "userID is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.hub.register(userID, conn)
	defer h.hub.unregister(userID, conn)
	h.log.Info("chat connection opened", zap.String("user", userID))

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("chat connection error", zap.String("user", userID), zap.Error(err))
			}
			return
		}
		if msg.Type != "" && msg.Type != "message" {
			continue
		}

		for _, reply := range h.engine.HandleMessage(r.Context(), userID, msg.Text) {
			out := outgoingMessage{
				Type:      "reply",
				Data:      replyPayload{Text: reply.Text, Options: reply.Options},
				Timestamp: time.Now().UnixMilli(),
			}
			if err := h.hub.send(userID, out); err != nil {
				h.log.Warn("failed to write reply", zap.String("user", userID), zap.Error(err))
				return
			}
		}
	}
}
