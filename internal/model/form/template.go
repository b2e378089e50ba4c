package form

// TemplateInfo identifies a fillable template offered to the user.
type TemplateInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Template is a downloaded template together with its extracted field
// identifiers. Immutable once fetched for a session.
type Template struct {
	Info   TemplateInfo
	Fields []string
	Bytes  []byte
}
