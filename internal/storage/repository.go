// Package storage provides the template repository boundary.
package storage

import (
	"context"
	"errors"

	"github.com/autopdf/backend/internal/model/form"
)

// ErrTemplateUnavailable collapses every repository failure (unreachable, not
// found, permission denied) into the single condition the engine reacts to.
var ErrTemplateUnavailable = errors.New("template unavailable")

// Repository lists and downloads fillable templates.
type Repository interface {
	ListTemplates(ctx context.Context) ([]form.TemplateInfo, error)
	Download(ctx context.Context, id string) ([]byte, error)
}
