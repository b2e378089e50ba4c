// Package fieldname maps machine field identifiers to the display names shown
// during the dialogue.
package fieldname

import (
	"strings"
	"unicode"
)

// Resolver resolves field identifiers against a fixed Config.
type Resolver struct {
	cfg Config
}

// NewResolver returns a Resolver over the supplied tables.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve returns the display name for fieldID within templateID. It always
// produces a name: a template-specific override wins over the default
// dictionary, which wins over the heuristic transform.
func (r *Resolver) Resolve(fieldID, templateID string) string {
	if table, ok := r.cfg.Overrides[templateID]; ok {
		if name, ok := table[fieldID]; ok {
			return name
		}
	}
	if name, ok := r.cfg.Defaults[fieldID]; ok {
		return name
	}
	return Humanize(fieldID)
}

// HasOverrides reports whether templateID ships its own display-name table.
func (r *Resolver) HasOverrides(templateID string) bool {
	return len(r.cfg.Overrides[templateID]) > 0
}

// Humanize turns a machine identifier into a title-cased label: underscores
// become spaces and a space is inserted before each internal uppercase letter.
// An identifier the transform would erase entirely is returned verbatim, so
// the result is never empty for a non-empty input.
func Humanize(fieldID string) string {
	runes := []rune(strings.ReplaceAll(fieldID, "_", " "))
	spaced := make([]rune, 0, len(runes)+4)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && runes[i-1] != ' ' {
			spaced = append(spaced, ' ')
		}
		spaced = append(spaced, r)
	}

	words := strings.Fields(string(spaced))
	if len(words) == 0 {
		return fieldID
	}
	for i, word := range words {
		first := []rune(word)
		first[0] = unicode.ToUpper(first[0])
		words[i] = string(first)
	}
	return strings.Join(words, " ")
}
