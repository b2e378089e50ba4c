package pdf

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const exportedFixture = `{
  "header": {"source": "template", "version": "pdfcpu"},
  "forms": [
    {
      "textfield": [
        {"pages": [1], "id": "1", "name": "client_name", "value": ""},
        {"pages": [1], "id": "2", "name": "amount", "value": "old", "locked": true},
        {"pages": [1], "id": "3", "value": ""}
      ],
      "checkbox": [{"pages": [1], "name": "agree", "value": false}]
    }
  ]
}`

func TestPatchFormValues(t *testing.T) {
	values := map[string]string{
		"client_name": "Alice",
		"3":           "by id",
		"unknown":     "ignored",
	}

	patched, matched, err := patchFormValues([]byte(exportedFixture), values)
	if err != nil {
		t.Fatalf("patchFormValues err: %v", err)
	}
	if matched != 2 {
		t.Fatalf("expected 2 matches, got %d", matched)
	}

	var doc exportedForm
	if err := json.Unmarshal(patched, &doc); err != nil {
		t.Fatalf("patched output must stay valid JSON: %v", err)
	}
	tfs := doc.Forms[0].TextFields
	if tfs[0].Value != "Alice" {
		t.Fatalf("named field not patched: %+v", tfs[0])
	}
	if tfs[1].Value != "old" {
		t.Fatalf("unmentioned field must keep its value: %+v", tfs[1])
	}
	if tfs[2].Value != "by id" {
		t.Fatalf("nameless field should match by id: %+v", tfs[2])
	}
	if len(doc.Forms[0].CheckBoxes) == 0 {
		t.Fatal("non-text field kinds must ride along untouched")
	}
}

func TestPatchFormValuesUnlocksPatchedFields(t *testing.T) {
	patched, matched, err := patchFormValues([]byte(exportedFixture), map[string]string{"amount": "42"})
	if err != nil || matched != 1 {
		t.Fatalf("matched=%d err=%v", matched, err)
	}

	var doc exportedForm
	if err := json.Unmarshal(patched, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	tf := doc.Forms[0].TextFields[1]
	if tf.Value != "42" || tf.Locked {
		t.Fatalf("patched field must be writable: %+v", tf)
	}
}

func TestPatchFormValuesNoMatch(t *testing.T) {
	_, matched, err := patchFormValues([]byte(exportedFixture), map[string]string{"nope": "x"})
	if err != nil {
		t.Fatalf("patchFormValues err: %v", err)
	}
	if matched != 0 {
		t.Fatalf("expected no matches, got %d", matched)
	}
}

func TestPatchFormValuesRejectsGarbage(t *testing.T) {
	if _, _, err := patchFormValues([]byte("not json"), nil); err == nil {
		t.Fatal("expected an error for malformed export data")
	}
}

func loadTemplate(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/form.pdf")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

// Reads the text-field values back out of a filled document.
func exportValues(t *testing.T, data []byte) map[string]string {
	t.Helper()
	var exported bytes.Buffer
	if err := api.ExportFormJSON(bytes.NewReader(data), &exported, "filled", configuration()); err != nil {
		t.Fatalf("export filled form: %v", err)
	}

	var doc exportedForm
	if err := json.Unmarshal(exported.Bytes(), &doc); err != nil {
		t.Fatalf("parse exported form: %v", err)
	}
	values := make(map[string]string)
	for _, entry := range doc.Forms {
		for _, tf := range entry.TextFields {
			values[tf.Name] = tf.Value
		}
	}
	return values
}

func TestExtractFields(t *testing.T) {
	fields, err := ExtractFields(loadTemplate(t))
	if err != nil {
		t.Fatalf("ExtractFields err: %v", err)
	}
	want := []string{"amount", "client_name"}
	if got := sortedCopy(fields); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("unexpected field set: %v", fields)
	}
}

func TestFillPreservesFieldSet(t *testing.T) {
	template := loadTemplate(t)
	before, err := ExtractFields(template)
	if err != nil {
		t.Fatalf("ExtractFields err: %v", err)
	}

	filled, err := Fill(template, map[string]string{
		"client_name": "Alice",
		"amount":      "$100",
	})
	if err != nil {
		t.Fatalf("Fill err: %v", err)
	}

	after, err := ExtractFields(filled)
	if err != nil {
		t.Fatalf("ExtractFields on filled output err: %v", err)
	}
	beforeSet, afterSet := sortedCopy(before), sortedCopy(after)
	if len(beforeSet) != len(afterSet) {
		t.Fatalf("filling changed the field set: %v -> %v", before, after)
	}
	for i := range beforeSet {
		if beforeSet[i] != afterSet[i] {
			t.Fatalf("filling changed the field set: %v -> %v", before, after)
		}
	}

	values := exportValues(t, filled)
	if values["client_name"] != "Alice" || values["amount"] != "$100" {
		t.Fatalf("filled values did not stick: %v", values)
	}
}

func TestFillPartialValuesLeaveOthersUntouched(t *testing.T) {
	filled, err := Fill(loadTemplate(t), map[string]string{"client_name": "Alice"})
	if err != nil {
		t.Fatalf("Fill err: %v", err)
	}

	values := exportValues(t, filled)
	if values["client_name"] != "Alice" {
		t.Fatalf("named field not filled: %v", values)
	}
	if values["amount"] != "" {
		t.Fatalf("unmentioned field must keep its value: %v", values)
	}
}

func TestFillWithoutMatchesReturnsCopy(t *testing.T) {
	template := loadTemplate(t)

	filled, err := Fill(template, map[string]string{"nonexistent": "x"})
	if err != nil {
		t.Fatalf("Fill err: %v", err)
	}
	if !bytes.Equal(filled, template) {
		t.Fatal("no matching fields should yield an untouched copy")
	}
}

func TestExtractFieldsRejectsGarbage(t *testing.T) {
	if _, err := ExtractFields([]byte("not a pdf at all")); !errors.Is(err, ErrUnreadableTemplate) {
		t.Fatalf("expected ErrUnreadableTemplate, got %v", err)
	}
}

func TestFillRejectsGarbage(t *testing.T) {
	if _, err := Fill([]byte("not a pdf at all"), map[string]string{"a": "b"}); !errors.Is(err, ErrUnreadableTemplate) {
		t.Fatalf("expected ErrUnreadableTemplate, got %v", err)
	}
}
