package composer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danylovaolha/chatsync/internal/models"
	"github.com/danylovaolha/chatsync/internal/session"
)

var (
	// ErrNotOwnMessage rejects edit attempts on another user's message.
	ErrNotOwnMessage = errors.New("cannot edit a message sent by another user")
	// ErrModeConflict rejects entering edit mode with an attachment staged
	// and vice versa.
	ErrModeConflict = errors.New("edit mode and image mode are mutually exclusive")
)

// Attachment is a staged image: raw bytes plus the generated storage path.
// The path doubles as the provisional attachment reference before the binary
// upload completes.
type Attachment struct {
	Name string
	Data []byte
}

// Composer builds outbound messages for one user: plain text drafts, staged
// image attachments and staged edits. At most one of editMode/imageMode is
// active at a time.
//
// Composer is not safe for concurrent use; it shares the engine's single
// owning context.
type Composer struct {
	user  session.User
	now   func() time.Time
	token func() string

	editMode  bool
	imageMode bool
	editing   *models.Message
	pending   *Attachment
}

// Option customizes a Composer.
type Option func(*Composer)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// WithTokenSource overrides the random token generator, for tests.
func WithTokenSource(token func() string) Option {
	return func(c *Composer) { c.token = token }
}

// New creates a Composer for the given user.
func New(user session.User, opts ...Option) *Composer {
	c := &Composer{
		user:  user,
		now:   time.Now,
		token: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ComposeText builds a text draft from raw input. Leading and trailing
// whitespace is trimmed; a draft that is empty after trimming yields ok=false
// and must not be submitted.
func (c *Composer) ComposeText(raw string) (models.Message, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return models.Message{}, false
	}
	return models.Message{
		SenderID:   c.user.ID,
		SenderName: c.senderName(),
		Text:       trimmed,
	}, true
}

// BeginImageAttachment stages raw image bytes and generates the storage
// filename: five characters of the hyphen-stripped sender id, five characters
// of a fresh random token, the current unix-milli timestamp, ".png". The name
// is the attachment reference from here on, even before the binary exists in
// storage.
func (c *Composer) BeginImageAttachment(data []byte) (string, error) {
	if c.editMode {
		return "", ErrModeConflict
	}
	name := fmt.Sprintf("%s%s%d.png",
		head(strings.ReplaceAll(c.user.ID, "-", ""), 5),
		head(strings.ReplaceAll(c.token(), "-", ""), 5),
		c.now().UnixMilli(),
	)
	c.imageMode = true
	c.pending = &Attachment{Name: name, Data: data}
	return name, nil
}

// ImageDraft builds the message draft referencing the staged attachment.
func (c *Composer) ImageDraft() (models.Message, bool) {
	if c.pending == nil {
		return models.Message{}, false
	}
	return models.Message{
		SenderID:   c.user.ID,
		SenderName: c.senderName(),
		ImagePath:  c.pending.Name,
	}, true
}

// PendingAttachment returns the staged attachment, if any.
func (c *Composer) PendingAttachment() (Attachment, bool) {
	if c.pending == nil {
		return Attachment{}, false
	}
	return *c.pending, true
}

// BeginEdit stages an existing message for editing. Only the author may edit;
// the UI is expected to hide the action otherwise.
func (c *Composer) BeginEdit(target models.Message) error {
	if target.SenderID != c.user.ID {
		return ErrNotOwnMessage
	}
	if c.imageMode {
		return ErrModeConflict
	}
	staged := target
	c.editMode = true
	c.editing = &staged
	return nil
}

// PrefilledText returns the body the input field is pre-filled with when
// entering edit mode.
func (c *Composer) PrefilledText() string {
	if c.editing == nil {
		return ""
	}
	return c.editing.Body()
}

// StageEdit applies raw input to the staged edit and returns the mutated
// message ready for persistence. Same trim/empty rules as ComposeText.
func (c *Composer) StageEdit(raw string) (models.Message, bool) {
	if c.editing == nil {
		return models.Message{}, false
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return models.Message{}, false
	}
	edited := *c.editing
	edited.Text = trimmed
	edited.ImagePath = ""
	return edited, true
}

// EditingMessage returns the message staged for editing, if any.
func (c *Composer) EditingMessage() (models.Message, bool) {
	if c.editing == nil {
		return models.Message{}, false
	}
	return *c.editing, true
}

// EditMode reports whether an edit is staged.
func (c *Composer) EditMode() bool { return c.editMode }

// ImageMode reports whether an attachment is staged.
func (c *Composer) ImageMode() bool { return c.imageMode }

// Cancel discards whichever of edit/image state is active and returns the
// composer to the empty-composition state.
func (c *Composer) Cancel() {
	c.editMode = false
	c.imageMode = false
	c.editing = nil
	c.pending = nil
}

func (c *Composer) senderName() string {
	if c.user.DisplayName != "" {
		return c.user.DisplayName
	}
	return c.user.Email
}

func head(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
