package composer

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danylovaolha/chatsync/internal/models"
	"github.com/danylovaolha/chatsync/internal/session"
)

var testUser = session.User{ID: "abcde12345", DisplayName: "alice", Email: "alice@example.com"}

func TestComposeTextTrimsWhitespace(t *testing.T) {
	c := New(testUser)

	draft, ok := c.ComposeText("  hello  ")
	require.True(t, ok)
	assert.Equal(t, "hello", draft.Text)
	assert.Equal(t, "abcde12345", draft.SenderID)
	assert.Equal(t, "alice", draft.SenderName)
}

func TestComposeTextKeepsInternalWhitespace(t *testing.T) {
	c := New(testUser)

	draft, ok := c.ComposeText("\thello   world ")
	require.True(t, ok)
	assert.Equal(t, "hello   world", draft.Text)
}

func TestComposeTextRejectsEmptyDraft(t *testing.T) {
	c := New(testUser)

	for _, raw := range []string{"", "   ", "\t\n "} {
		_, ok := c.ComposeText(raw)
		assert.False(t, ok, "raw=%q", raw)
	}
}

func TestComposeTextFallsBackToEmail(t *testing.T) {
	c := New(session.User{ID: "u1", Email: "bob@example.com"})

	draft, ok := c.ComposeText("hi")
	require.True(t, ok)
	assert.Equal(t, "bob@example.com", draft.SenderName)
}

func TestBeginImageAttachmentFilename(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	c := New(testUser,
		WithClock(func() time.Time { return fixed }),
		WithTokenSource(func() string { return "f47ac-10b5-8cc4" }),
	)

	name, err := c.BeginImageAttachment([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "abcdef47ac1700000000000.png", name)
	assert.Regexp(t, regexp.MustCompile(`^[^-]{10}\d+\.png$`), name)
	assert.True(t, c.ImageMode())

	att, ok := c.PendingAttachment()
	require.True(t, ok)
	assert.Equal(t, name, att.Name)
	assert.Equal(t, []byte{1, 2, 3}, att.Data)
}

func TestBeginImageAttachmentStripsHyphensFromSenderID(t *testing.T) {
	c := New(session.User{ID: "ab-cd-ef-12-34"},
		WithClock(func() time.Time { return time.UnixMilli(1) }),
		WithTokenSource(func() string { return "0123456789" }),
	)

	name, err := c.BeginImageAttachment(nil)
	require.NoError(t, err)
	assert.Equal(t, "abcde012341.png", name)
}

func TestImageDraftReferencesPendingAttachment(t *testing.T) {
	c := New(testUser, WithTokenSource(func() string { return "tokentoken" }))

	name, err := c.BeginImageAttachment([]byte("png"))
	require.NoError(t, err)

	draft, ok := c.ImageDraft()
	require.True(t, ok)
	assert.Equal(t, name, draft.ImagePath)
	assert.Empty(t, draft.Text)
	assert.True(t, draft.HasImage())
}

func TestBeginEditRequiresOwnership(t *testing.T) {
	c := New(testUser)

	err := c.BeginEdit(models.Message{ID: "1", SenderID: "someone-else", Text: "hi"})
	assert.ErrorIs(t, err, ErrNotOwnMessage)
	assert.False(t, c.EditMode())
}

func TestBeginEditPrefillsAndStagesEdit(t *testing.T) {
	c := New(testUser)
	created := time.UnixMilli(100)
	target := models.Message{ID: "1", SenderID: testUser.ID, Text: "original", CreatedAt: created}

	require.NoError(t, c.BeginEdit(target))
	assert.True(t, c.EditMode())
	assert.Equal(t, "original", c.PrefilledText())

	edited, ok := c.StageEdit("  changed  ")
	require.True(t, ok)
	assert.Equal(t, "changed", edited.Text)
	assert.Equal(t, "1", edited.ID)
	assert.Equal(t, testUser.ID, edited.SenderID)
	assert.Equal(t, created, edited.CreatedAt)
}

func TestStageEditRejectsEmptyInput(t *testing.T) {
	c := New(testUser)
	require.NoError(t, c.BeginEdit(models.Message{ID: "1", SenderID: testUser.ID, Text: "original"}))

	_, ok := c.StageEdit("   ")
	assert.False(t, ok)
}

func TestStageEditWithoutStagedMessage(t *testing.T) {
	c := New(testUser)

	_, ok := c.StageEdit("text")
	assert.False(t, ok)
}

func TestEditAndImageModesAreMutuallyExclusive(t *testing.T) {
	c := New(testUser)
	_, err := c.BeginImageAttachment([]byte("png"))
	require.NoError(t, err)

	err = c.BeginEdit(models.Message{ID: "1", SenderID: testUser.ID, Text: "hi"})
	assert.ErrorIs(t, err, ErrModeConflict)

	c.Cancel()
	require.NoError(t, c.BeginEdit(models.Message{ID: "1", SenderID: testUser.ID, Text: "hi"}))

	_, err = c.BeginImageAttachment([]byte("png"))
	assert.ErrorIs(t, err, ErrModeConflict)
}

func TestCancelResetsState(t *testing.T) {
	c := New(testUser)
	require.NoError(t, c.BeginEdit(models.Message{ID: "1", SenderID: testUser.ID, Text: "hi"}))

	c.Cancel()
	assert.False(t, c.EditMode())
	assert.False(t, c.ImageMode())
	_, ok := c.EditingMessage()
	assert.False(t, ok)
	_, ok = c.PendingAttachment()
	assert.False(t, ok)
}
