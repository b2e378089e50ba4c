// Package retention tracks generated documents until their retention window
// lapses, so they can be re-delivered without regeneration.
package retention

import (
	"context"
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
)

// index is the persisted shape: owner id to ordered records.
type index map[string][]document.RetainedDocument

// Store is an expiring document index persisted as one JSON file. A single
// mutex serializes every load-mutate-save cycle, so Store and Sweep can never
// lose each other's updates.
type Store struct {
	mu        sync.Mutex
	indexPath string
	window    time.Duration
	log       *zap.Logger
}

// NewStore returns a store writing its index to indexPath. Records expire
// window after creation.
func NewStore(indexPath string, window time.Duration, log *zap.Logger) *Store {
	return &Store{indexPath: indexPath, window: window, log: log}
}

// Store appends a record for a freshly generated document and returns it.
func (s *Store) Store(ownerID, artifactPath, displayName string) (document.RetainedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.load()
	if err != nil {
		return document.RetainedDocument{}, err
	}

	now := time.Now().UTC()
	rec := document.RetainedDocument{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Path:      artifactPath,
		Filename:  displayName,
		CreatedAt: now,
		ExpiresAt: now.Add(s.window),
	}
	idx[ownerID] = append(idx[ownerID], rec)

	if err := s.save(idx); err != nil {
		return document.RetainedDocument{}, err
	}
	return rec, nil
}

// List returns all records for the owner, including expired ones that have not
// been swept yet.
func (s *Store) List(ownerID string) ([]document.RetainedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.load()
	if err != nil {
		return nil, err
	}
	return append([]document.RetainedDocument(nil), idx[ownerID]...), nil
}

// Find looks up one record by owner and record id.
func (s *Store) Find(ownerID, recordID string) (document.RetainedDocument, bool, error) {
	records, err := s.List(ownerID)
	if err != nil {
		return document.RetainedDocument{}, false, err
	}
	for _, rec := range records {
		if rec.ID == recordID {
			return rec, true, nil
		}
	}
	return document.RetainedDocument{}, false, nil
}

// Sweep removes every record past its expiry at now, deleting the backing
// artifact in the same pass so neither outlives the other. Owners left without
// valid records lose their index entry entirely. Artifact deletion failures
// are logged and do not stop the sweep.
func (s *Store) Sweep(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.load()
	if err != nil {
		return 0, err
	}

	removed := 0
	for ownerID, records := range idx {
		valid := records[:0]
		for _, rec := range records {
			if !rec.Expired(now) {
				valid = append(valid, rec)
				continue
			}
			if err := os.Remove(rec.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				s.log.Warn("failed to delete expired artifact",
					zap.String("owner", ownerID),
					zap.String("path", rec.Path),
					zap.Error(err))
			}
			removed++
		}
		if len(valid) == 0 {
			delete(idx, ownerID)
			continue
		}
		idx[ownerID] = valid
	}

	if err := s.save(idx); err != nil {
		return removed, err
	}
	if removed > 0 {
		metrics.DocumentsSwept.Add(float64(removed))
	}
	return removed, nil
}

// RunSweeper purges expired records on a fixed interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(time.Now())
			if err != nil {
				s.log.Warn("retention sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("retention sweep removed documents", zap.Int("count", n))
			}
		}
	}
}

func (s *Store) load() (index, error) {
	data, err := os.ReadFile(s.indexPath)
	if errors.Is(err, fs.ErrNotExist) {
		return index{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read retention index: %w", err)
	}

	var idx index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse retention index: %w", err)
	}
	if idx == nil {
		idx = index{}
	}
	return idx, nil
}

// save replaces the index file in one rename so readers never observe a
// partial write.
func (s *Store) save(idx index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("encode retention index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.indexPath), 0o755); err != nil {
		return fmt.Errorf("create retention index dir: %w", err)
	}
	tmp := s.indexPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write retention index: %w", err)
	}
	if err := os.Rename(tmp, s.indexPath); err != nil {
		return fmt.Errorf("replace retention index: %w", err)
	}
	return nil
}
