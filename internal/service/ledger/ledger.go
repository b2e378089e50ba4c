// Package ledger keeps the permanent record of completed form submissions.
// Artifacts expire with the retention window; the ledger does not.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/autopdf/backend/internal/metrics"
	"github.com/autopdf/backend/internal/model/document"
	"github.com/autopdf/backend/internal/model/form"
)

// Ledger is an append-only submission log persisted as one JSON file. The
// mutex serializes every load-append-save cycle.
type Ledger struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

// New returns a ledger writing to path.
func New(path string, log *zap.Logger) *Ledger {
	return &Ledger{path: path, log: log}
}

// Append records one completed submission and returns it. The values map is
// copied, so the caller's session data stays untouched.
func (l *Ledger) Append(ownerID string, template form.TemplateInfo, values map[string]string) (document.Submission, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	subs, err := l.load()
	if err != nil {
		return document.Submission{}, err
	}

	copied := make(map[string]string, len(values))
	for id, value := range values {
		copied[id] = value
	}
	sub := document.Submission{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		TemplateID:   template.ID,
		TemplateName: template.Name,
		Values:       copied,
		SubmittedAt:  time.Now().UTC(),
	}
	subs = append(subs, sub)

	if err := l.save(subs); err != nil {
		return document.Submission{}, err
	}
	metrics.SubmissionsRecorded.Inc()
	return sub, nil
}

// List returns every recorded submission in append order.
func (l *Ledger) List() ([]document.Submission, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	subs, err := l.load()
	if err != nil {
		return nil, err
	}
	return append([]document.Submission(nil), subs...), nil
}

func (l *Ledger) load() ([]document.Submission, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read submission ledger: %w", err)
	}

	var subs []document.Submission
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("parse submission ledger: %w", err)
	}
	return subs, nil
}

func (l *Ledger) save(subs []document.Submission) error {
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode submission ledger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create submission ledger dir: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write submission ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace submission ledger: %w", err)
	}
	return nil
}
