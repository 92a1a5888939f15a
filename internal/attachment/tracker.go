package attachment

import (
	"context"
	"sync"

	"github.com/danylovaolha/chatsync/internal/blob"
	"github.com/danylovaolha/chatsync/internal/observability"
)

// State is the lifecycle position of one attachment. The metadata row and
// the binary travel independently with no atomicity between them, so a
// message can reference a path whose binary does not exist yet. Viewers
// handle StateBinaryPending by retrying on next view, never by blocking.
type State int

const (
	// StateMetadataSent: the message row referencing the path has been
	// persisted and broadcast; the binary upload has not started.
	StateMetadataSent State = iota
	// StateBinaryPending: the binary upload is in flight.
	StateBinaryPending
	// StateBinaryAvailable: the binary exists in storage.
	StateBinaryAvailable
	// StateBinaryFailed: the upload errored; the path dangles until retried.
	StateBinaryFailed
)

func (s State) String() string {
	switch s {
	case StateMetadataSent:
		return "metadata-sent"
	case StateBinaryPending:
		return "binary-pending"
	case StateBinaryAvailable:
		return "binary-available"
	case StateBinaryFailed:
		return "binary-failed"
	}
	return "unknown"
}

// Tracker records the upload state of every attachment sent this session,
// keyed by storage path.
type Tracker struct {
	mu     sync.Mutex
	states map[string]State
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[string]State)}
}

// MarkMetadataSent records that the message row for path was persisted.
func (t *Tracker) MarkMetadataSent(path string) {
	t.set(path, StateMetadataSent)
}

// State returns the recorded state for path.
func (t *Tracker) State(path string) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.states[path]
	return s, ok
}

// Forget drops tracking for path, after the message is deleted.
func (t *Tracker) Forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, path)
}

func (t *Tracker) set(path string, s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[path] = s
}

// Uploader performs the deferred second write of an attachment send and
// keeps the tracker in sync with the outcome.
type Uploader struct {
	storage blob.Storage
	tracker *Tracker
}

// NewUploader creates an Uploader over the given storage.
func NewUploader(storage blob.Storage, tracker *Tracker) *Uploader {
	return &Uploader{storage: storage, tracker: tracker}
}

// Upload pushes the binary for path. The caller has already persisted and
// broadcast the metadata; this may complete before or after that broadcast
// reaches other clients.
func (u *Uploader) Upload(ctx context.Context, path string, data []byte) error {
	u.tracker.set(path, StateBinaryPending)
	if err := u.storage.Upload(ctx, path, data); err != nil {
		u.tracker.set(path, StateBinaryFailed)
		observability.IncUpload("failed")
		return err
	}
	u.tracker.set(path, StateBinaryAvailable)
	observability.IncUpload("ok")
	return nil
}
