package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/autopdf/backend/internal/fieldname"
	"github.com/autopdf/backend/internal/model/form"
	"github.com/autopdf/backend/internal/service/conversation"
	"github.com/autopdf/backend/internal/service/ledger"
	"github.com/autopdf/backend/internal/service/retention"
)

type stubRepo struct{}

func (stubRepo) ListTemplates(context.Context) ([]form.TemplateInfo, error) {
	return []form.TemplateInfo{{ID: "invoice_template.pdf", Name: "invoice template"}}, nil
}

func (stubRepo) Download(context.Context, string) ([]byte, error) {
	return nil, errors.New("not needed here")
}

type stubModel struct{}

func (stubModel) ExtractFields([]byte) ([]string, error) { return nil, nil }

func (stubModel) Fill([]byte, map[string]string) ([]byte, error) { return nil, nil }

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	dir := t.TempDir()
	log := zap.NewNop()
	store := retention.NewStore(filepath.Join(dir, "retention.json"), time.Hour, log)
	book := ledger.New(filepath.Join(dir, "submissions.json"), log)
	hub := NewHub(log)
	engine := conversation.NewService(stubRepo{}, stubModel{}, fieldname.NewResolver(fieldname.Seed()), store, book, hub, dir, log)

	r := chi.NewRouter()
	New(engine, hub, log).RegisterRoutes(r)
	return r
}

func postMessage(t *testing.T, router chi.Router, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleMessage(t *testing.T) {
	router := newTestRouter(t)

	w := postMessage(t, router, `{"userId":"u1","text":"/start"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Replies []form.Reply `json:"replies"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Replies) == 0 || !strings.Contains(resp.Replies[0].Text, "AutoPDF") {
		t.Fatalf("unexpected replies: %+v", resp.Replies)
	}
}

func TestHandleMessageReturnsOptions(t *testing.T) {
	router := newTestRouter(t)

	w := postMessage(t, router, `{"userId":"u1","text":"/fill"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Replies []form.Reply `json:"replies"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Replies) != 1 || len(resp.Replies[0].Options) != 1 {
		t.Fatalf("template menu expected: %+v", resp.Replies)
	}
	if resp.Replies[0].Options[0] != "invoice template" {
		t.Fatalf("unexpected option: %q", resp.Replies[0].Options[0])
	}
}

func TestHandleMessageValidation(t *testing.T) {
	router := newTestRouter(t)

	cases := []string{
		`{"text":"/start"}`,
		`{"userId":"u1"}`,
		`{"userId":"u1","text":""}`,
		`not json`,
	}
	for _, body := range cases {
		if w := postMessage(t, router, body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}
