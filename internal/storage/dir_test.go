package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/autopdf/backend/internal/storage"
)

func newTemplateDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"invoice_template.pdf": []byte("%PDF-1.7 invoice"),
		"b.PDF":                []byte("%PDF-1.7 b"),
		"notes.txt":            []byte("not a template"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return dir
}

func TestListTemplates(t *testing.T) {
	repo := storage.NewDirRepository(newTemplateDir(t))

	infos, err := repo.ListTemplates(context.Background())
	if err != nil {
		t.Fatalf("ListTemplates err: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("only PDFs should be listed: %+v", infos)
	}
	if infos[0].ID != "b.PDF" || infos[1].ID != "invoice_template.pdf" {
		t.Fatalf("expected sorted ids: %+v", infos)
	}
	if infos[1].Name != "invoice template" {
		t.Fatalf("display name should drop the extension and underscores: %q", infos[1].Name)
	}
}

func TestListTemplatesMissingDir(t *testing.T) {
	repo := storage.NewDirRepository(filepath.Join(t.TempDir(), "nope"))

	if _, err := repo.ListTemplates(context.Background()); !errors.Is(err, storage.ErrTemplateUnavailable) {
		t.Fatalf("expected ErrTemplateUnavailable, got %v", err)
	}
}

func TestDownload(t *testing.T) {
	repo := storage.NewDirRepository(newTemplateDir(t))

	data, err := repo.Download(context.Background(), "invoice_template.pdf")
	if err != nil {
		t.Fatalf("Download err: %v", err)
	}
	if string(data) != "%PDF-1.7 invoice" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestDownloadRejectsBadIds(t *testing.T) {
	repo := storage.NewDirRepository(newTemplateDir(t))
	ctx := context.Background()

	for _, id := range []string{"", "missing.pdf", "../escape.pdf", "sub/x.pdf"} {
		if _, err := repo.Download(ctx, id); !errors.Is(err, storage.ErrTemplateUnavailable) {
			t.Fatalf("id %q: expected ErrTemplateUnavailable, got %v", id, err)
		}
	}
}
