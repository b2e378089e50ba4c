package form

import "time"

// State enumerates the steps of the form-filling dialogue.
type State int

const (
	StateSelectingTemplate State = iota
	StateChoosingFieldNames
	StateCustomizingFields
	StateChoosingFillMethod
	StateChoosing
	StateTypingReply
	StateBulkEntry
	StateChoosingNextAction
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateSelectingTemplate:
		return "selecting_template"
	case StateChoosingFieldNames:
		return "choosing_field_names"
	case StateCustomizingFields:
		return "customizing_fields"
	case StateChoosingFillMethod:
		return "choosing_fill_method"
	case StateChoosing:
		return "choosing"
	case StateTypingReply:
		return "typing_reply"
	case StateBulkEntry:
		return "bulk_entry"
	case StateChoosingNextAction:
		return "choosing_next_action"
	default:
		return "unknown"
	}
}

// ArtifactRef points at a generated document kept for re-delivery.
type ArtifactRef struct {
	RecordID string
	Path     string
	Filename string
}

// Session captures one user's in-progress form-filling conversation. A user
// owns at most one session; starting over replaces it.
type Session struct {
	UserID    string
	State     State
	Offered   []TemplateInfo
	Template  Template
	Mapping   map[string]string
	FormData  map[string]string
	Pending   string
	Artifact  *ArtifactRef
	CreatedAt time.Time
}

// NewSession starts a fresh session in the template-selection step.
func NewSession(userID string, offered []TemplateInfo) *Session {
	return &Session{
		UserID:    userID,
		State:     StateSelectingTemplate,
		Offered:   append([]TemplateInfo(nil), offered...),
		CreatedAt: time.Now().UTC(),
	}
}

// RemainingFields returns the template fields without a recorded value, in
// template order.
func (s *Session) RemainingFields() []string {
	remaining := make([]string, 0, len(s.Template.Fields))
	for _, id := range s.Template.Fields {
		if _, ok := s.FormData[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	return remaining
}

// Record stores a field value. Answering the same field again overwrites the
// previous value.
func (s *Session) Record(fieldID, value string) {
	if s.FormData == nil {
		s.FormData = make(map[string]string, len(s.Template.Fields))
	}
	s.FormData[fieldID] = value
}

// IsComplete reports whether every template field has a recorded value and
// nothing else has been recorded.
func (s *Session) IsComplete() bool {
	if len(s.FormData) != len(s.Template.Fields) {
		return false
	}
	for _, id := range s.Template.Fields {
		if _, ok := s.FormData[id]; !ok {
			return false
		}
	}
	return true
}

// FieldByText maps a user's field choice back to a field identifier. An exact
// identifier match wins so colliding display names can never select the wrong
// field; otherwise the first unanswered field carrying that display name is
// taken, then any field carrying it.
func (s *Session) FieldByText(text string) (string, bool) {
	for _, id := range s.Template.Fields {
		if id == text {
			return id, true
		}
	}
	for _, id := range s.RemainingFields() {
		if s.Mapping[id] == text {
			return id, true
		}
	}
	for _, id := range s.Template.Fields {
		if s.Mapping[id] == text {
			return id, true
		}
	}
	return "", false
}

// Reply is one outbound chat message produced by the engine. Options, when
// present, are rendered by the transport as a one-time choice keyboard.
type Reply struct {
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
}
