package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/autopdf/backend/internal/model/form"
)

// DirRepository serves templates from a local directory of PDF files. The file
// name doubles as the template id.
type DirRepository struct {
	dir string
}

// NewDirRepository returns a repository over dir.
func NewDirRepository(dir string) *DirRepository {
	return &DirRepository{dir: dir}
}

// ListTemplates returns every PDF in the directory, sorted by file name.
func (r *DirRepository) ListTemplates(_ context.Context) ([]form.TemplateInfo, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateUnavailable, err)
	}

	infos := make([]form.TemplateInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		infos = append(infos, form.TemplateInfo{
			ID:   name,
			Name: displayName(name),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// Download reads a template by id.
func (r *DirRepository) Download(_ context.Context, id string) ([]byte, error) {
	// Ids are bare file names; anything with path structure is rejected.
	if id == "" || filepath.Base(id) != id {
		return nil, fmt.Errorf("%w: invalid template id %q", ErrTemplateUnavailable, id)
	}

	data, err := os.ReadFile(filepath.Join(r.dir, id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateUnavailable, err)
	}
	return data, nil
}

func displayName(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return strings.ReplaceAll(base, "_", " ")
}
