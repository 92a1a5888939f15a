package engine

import (
	"time"

	"github.com/danylovaolha/chatsync/internal/models"
	"github.com/danylovaolha/chatsync/internal/observability"
)

// ListListener receives list-change signals from the engine. OnAppend fires
// for a single appended message; OnReload fires when an entry was mutated or
// removed in place and the consumer should re-render the whole list.
type ListListener interface {
	OnAppend(msg models.Message)
	OnReload()
}

// Engine holds the local message list and merges the three upstream sources
// into it: bulk history load, live channel appends, and out-of-band
// update/delete notifications. It performs no sorting of its own; arrival
// order is trusted.
//
// Engine is not safe for concurrent use. All calls must come from the single
// owning context (see client.Client).
type Engine struct {
	messages      []models.Message
	currentUserID string
	listener      ListListener
	loaded        bool
}

// New creates an empty engine for the given local user.
func New(currentUserID string, listener ListListener) *Engine {
	return &Engine{currentUserID: currentUserID, listener: listener}
}

// LoadHistory replaces the entire local list with the persisted history.
// Called exactly once per session before live events are applied.
func (e *Engine) LoadHistory(messages []models.Message) {
	e.messages = make([]models.Message, len(messages))
	copy(e.messages, messages)
	e.loaded = true
	observability.SetListLength(len(e.messages))
	if e.listener != nil {
		e.listener.OnReload()
	}
}

// Loaded reports whether history has been applied this session.
func (e *Engine) Loaded() bool {
	return e.loaded
}

// ApplyIncoming appends a live message to the end of the list
// unconditionally and signals an append to the consumer.
func (e *Engine) ApplyIncoming(msg models.Message) {
	e.messages = append(e.messages, msg)
	observability.IncReconcileEvent("incoming", "applied")
	observability.SetListLength(len(e.messages))
	if e.listener != nil {
		e.listener.OnAppend(msg)
	}
}

// ApplyUpdate mutates the body and updatedAt of the entry matching id.
// Sender, creation time and id itself are never touched. Returns false
// without error when the id is unknown; that is the normal case for
// notifications about messages this client has not loaded.
func (e *Engine) ApplyUpdate(id string, text, imagePath string, updatedAt time.Time) bool {
	for i := range e.messages {
		if e.messages[i].ID != id {
			continue
		}
		e.messages[i].Text = text
		e.messages[i].ImagePath = imagePath
		when := updatedAt
		e.messages[i].UpdatedAt = &when
		observability.IncReconcileEvent("update", "applied")
		if e.listener != nil {
			e.listener.OnReload()
		}
		return true
	}
	observability.IncReconcileEvent("update", "missing")
	return false
}

// ApplyDelete removes the first entry matching id. Returns false when the id
// is absent (already removed or never loaded); that is a no-op, not an error.
func (e *Engine) ApplyDelete(id string) bool {
	for i := range e.messages {
		if e.messages[i].ID != id {
			continue
		}
		e.messages = append(e.messages[:i], e.messages[i+1:]...)
		observability.IncReconcileEvent("delete", "applied")
		observability.SetListLength(len(e.messages))
		if e.listener != nil {
			e.listener.OnReload()
		}
		return true
	}
	observability.IncReconcileEvent("delete", "missing")
	return false
}

// FindByID returns a copy of the first entry matching id. Linear scan;
// conversation sizes are bounded by what a client can render.
func (e *Engine) FindByID(id string) (models.Message, bool) {
	for i := range e.messages {
		if e.messages[i].ID == id {
			return e.messages[i], true
		}
	}
	return models.Message{}, false
}

// Messages returns a copy of the current list in display order.
func (e *Engine) Messages() []models.Message {
	out := make([]models.Message, len(e.messages))
	copy(out, e.messages)
	return out
}

// Len returns the number of messages in the list.
func (e *Engine) Len() int {
	return len(e.messages)
}

// IsMine reports whether the message was authored by the local user. The
// consumer uses this to pick the mine/theirs rendering policy.
func (e *Engine) IsMine(msg models.Message) bool {
	return msg.SenderID == e.currentUserID
}
