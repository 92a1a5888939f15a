package models

import "time"

// Message is a single chat message as held in the local list. ID is assigned
// by the persistence layer on first save and is empty for drafts that have
// not been persisted yet.
type Message struct {
	ID         string
	SenderID   string
	SenderName string
	Text       string
	ImagePath  string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// HasImage reports whether the message body is an attachment reference.
// A finalized message carries exactly one of Text or ImagePath.
func (m Message) HasImage() bool {
	return m.ImagePath != ""
}

// Body returns the active side of the body union.
func (m Message) Body() string {
	if m.HasImage() {
		return m.ImagePath
	}
	return m.Text
}

// LastTouched returns UpdatedAt when the message has been edited,
// otherwise CreatedAt.
func (m Message) LastTouched() time.Time {
	if m.UpdatedAt != nil {
		return *m.UpdatedAt
	}
	return m.CreatedAt
}
