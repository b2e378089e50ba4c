package document

import "time"

// Submission is one completed form captured in the submission ledger. Unlike
// the retained artifact it never expires; the ledger is the long-term record
// of what was filled in.
type Submission struct {
	ID           string            `json:"id"`
	OwnerID      string            `json:"ownerId"`
	TemplateID   string            `json:"templateId"`
	TemplateName string            `json:"templateName"`
	Values       map[string]string `json:"values"`
	SubmittedAt  time.Time         `json:"submittedAt"`
}
