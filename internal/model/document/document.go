package document

import "time"

// RetainedDocument records where a generated document lives and when it must
// be purged.
type RetainedDocument struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Path      string    `json:"path"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the record is past its retention window at now.
func (d RetainedDocument) Expired(now time.Time) bool {
	return !d.ExpiresAt.After(now)
}
