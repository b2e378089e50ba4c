// Package pdf implements AcroForm text-field extraction and filling.
package pdf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/form"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrUnreadableTemplate marks bytes that cannot be processed as a fillable
// document: either not a valid document at all, or one without any form
// annotations.
var ErrUnreadableTemplate = errors.New("template is not a readable fillable document")

func configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// ExtractFields returns the template's text-field identifiers in document
// order, without duplicates. A valid form that simply has no text fields
// yields an empty result and no error; the caller decides whether that is
// fatal.
func ExtractFields(templateBytes []byte) ([]string, error) {
	fields, err := api.FormFields(bytes.NewReader(templateBytes), configuration())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableTemplate, err)
	}

	seen := make(map[string]struct{}, len(fields))
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Typ != form.FTText {
			continue
		}
		id := f.Name
		if id == "" {
			id = f.ID
		}
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// Fill writes values into their matching text fields and returns the filled
// document. Unknown keys are ignored and fields absent from values keep their
// defaults. pdfcpu refreshes the field appearances, so viewers render the new
// values without pre-built glyph streams. No files are touched; persistence is
// the caller's concern.
func Fill(templateBytes []byte, values map[string]string) ([]byte, error) {
	var exported bytes.Buffer
	if err := api.ExportFormJSON(bytes.NewReader(templateBytes), &exported, "template", configuration()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableTemplate, err)
	}

	patched, matched, err := patchFormValues(exported.Bytes(), values)
	if err != nil {
		return nil, err
	}
	if matched == 0 {
		// Nothing to write; hand back an untouched copy.
		return append([]byte(nil), templateBytes...), nil
	}

	var filled bytes.Buffer
	if err := api.FillForm(bytes.NewReader(templateBytes), bytes.NewReader(patched), &filled, configuration()); err != nil {
		return nil, fmt.Errorf("fill form: %w", err)
	}
	return filled.Bytes(), nil
}

// Model adapts the package functions to the engine's field-model interface.
type Model struct{}

func (Model) ExtractFields(templateBytes []byte) ([]string, error) {
	return ExtractFields(templateBytes)
}

func (Model) Fill(templateBytes []byte, values map[string]string) ([]byte, error) {
	return Fill(templateBytes, values)
}

// exportedForm mirrors the slice of pdfcpu's form JSON we rewrite. Field kinds
// we never touch ride along as raw messages.
type exportedForm struct {
	Header json.RawMessage `json:"header,omitempty"`
	Forms  []*formEntry    `json:"forms"`
}

type formEntry struct {
	TextFields  []*textField    `json:"textfield,omitempty"`
	DateFields  json.RawMessage `json:"datefield,omitempty"`
	CheckBoxes  json.RawMessage `json:"checkbox,omitempty"`
	RadioGroups json.RawMessage `json:"radiobuttongroup,omitempty"`
	ComboBoxes  json.RawMessage `json:"combobox,omitempty"`
	ListBoxes   json.RawMessage `json:"listbox,omitempty"`
}

type textField struct {
	Pages     []int  `json:"pages,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	AltName   string `json:"altname,omitempty"`
	Default   string `json:"default,omitempty"`
	Value     string `json:"value"`
	Multiline bool   `json:"multiline,omitempty"`
	Locked    bool   `json:"locked,omitempty"`
}

// patchFormValues sets the value of every exported text field whose name (or
// id, for nameless fields) appears in values, and reports how many matched.
func patchFormValues(exported []byte, values map[string]string) ([]byte, int, error) {
	var doc exportedForm
	if err := json.Unmarshal(exported, &doc); err != nil {
		return nil, 0, fmt.Errorf("parse exported form: %w", err)
	}

	matched := 0
	for _, entry := range doc.Forms {
		for _, tf := range entry.TextFields {
			id := tf.Name
			if id == "" {
				id = tf.ID
			}
			value, ok := values[id]
			if !ok {
				continue
			}
			tf.Value = value
			tf.Locked = false
			matched++
		}
	}

	patched, err := json.Marshal(doc)
	if err != nil {
		return nil, 0, fmt.Errorf("encode form values: %w", err)
	}
	return patched, matched, nil
}
