package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danylovaolha/chatsync/internal/models"
)

type recordingListener struct {
	appends []models.Message
	reloads int
}

func (l *recordingListener) OnAppend(msg models.Message) { l.appends = append(l.appends, msg) }
func (l *recordingListener) OnReload()                   { l.reloads++ }

func TestApplyIncomingAppendsInOrder(t *testing.T) {
	listener := &recordingListener{}
	e := New("u1", listener)
	e.LoadHistory(nil)

	for i := 0; i < 5; i++ {
		e.ApplyIncoming(models.Message{ID: fmt.Sprintf("m%d", i), SenderID: "u2", Text: fmt.Sprintf("msg %d", i)})
	}

	require.Equal(t, 5, e.Len())
	msgs := e.Messages()
	for i, msg := range msgs {
		assert.Equal(t, fmt.Sprintf("m%d", i), msg.ID)
	}
	assert.Len(t, listener.appends, 5)
}

func TestLoadHistoryThenIncoming(t *testing.T) {
	e := New("u1", nil)
	e.LoadHistory([]models.Message{
		{ID: "1", SenderID: "u1", Text: "hi", CreatedAt: time.UnixMilli(100)},
	})
	e.ApplyIncoming(models.Message{SenderID: "u2", Text: "yo", CreatedAt: time.UnixMilli(200)})

	msgs := e.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, "yo", msgs[1].Text)
}

func TestApplyUpdateMutatesOnlyTarget(t *testing.T) {
	listener := &recordingListener{}
	e := New("u1", listener)
	created := time.UnixMilli(100)
	other := models.Message{ID: "2", SenderID: "u2", SenderName: "bob", Text: "untouched", CreatedAt: time.UnixMilli(50)}
	e.LoadHistory([]models.Message{
		{ID: "1", SenderID: "u1", SenderName: "me", Text: "hi", CreatedAt: created},
		other,
	})

	updatedAt := time.UnixMilli(300)
	require.True(t, e.ApplyUpdate("1", "edited", "", updatedAt))

	msgs := e.Messages()
	assert.Equal(t, "edited", msgs[0].Text)
	assert.Equal(t, "1", msgs[0].ID)
	assert.Equal(t, "u1", msgs[0].SenderID)
	assert.Equal(t, created, msgs[0].CreatedAt)
	require.NotNil(t, msgs[0].UpdatedAt)
	assert.Equal(t, updatedAt, *msgs[0].UpdatedAt)

	assert.Equal(t, other, msgs[1])
	assert.Equal(t, 2, listener.reloads) // one for LoadHistory, one for the update
}

func TestApplyUpdateUnknownIDIsNoop(t *testing.T) {
	e := New("u1", nil)
	e.LoadHistory([]models.Message{{ID: "1", Text: "hi"}})

	require.False(t, e.ApplyUpdate("missing", "edited", "", time.Now()))

	msgs := e.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Nil(t, msgs[0].UpdatedAt)
}

func TestApplyDeleteRemovesFirstMatchOnly(t *testing.T) {
	e := New("u1", nil)
	e.LoadHistory([]models.Message{
		{ID: "1", Text: "first"},
		{ID: "1", Text: "duplicate"},
		{ID: "2", Text: "other"},
	})

	require.True(t, e.ApplyDelete("1"))

	msgs := e.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "duplicate", msgs[0].Text)
	assert.Equal(t, "other", msgs[1].Text)
}

func TestApplyDeleteTwiceIsNoopSecondTime(t *testing.T) {
	e := New("u1", nil)
	e.LoadHistory([]models.Message{{ID: "1", Text: "hi"}})

	require.True(t, e.ApplyDelete("1"))
	require.Equal(t, 0, e.Len())

	require.False(t, e.ApplyDelete("1"))
	require.Equal(t, 0, e.Len())
}

func TestFindByID(t *testing.T) {
	e := New("u1", nil)
	e.LoadHistory([]models.Message{{ID: "1", Text: "hi"}})

	msg, found := e.FindByID("1")
	require.True(t, found)
	assert.Equal(t, "hi", msg.Text)

	_, found = e.FindByID("nope")
	assert.False(t, found)
}

func TestIsMine(t *testing.T) {
	e := New("u1", nil)
	assert.True(t, e.IsMine(models.Message{SenderID: "u1"}))
	assert.False(t, e.IsMine(models.Message{SenderID: "u2"}))
}

func TestLoadHistoryReplacesList(t *testing.T) {
	e := New("u1", nil)
	assert.False(t, e.Loaded())

	e.LoadHistory([]models.Message{{ID: "1"}, {ID: "2"}})
	assert.True(t, e.Loaded())
	assert.Equal(t, 2, e.Len())
}
