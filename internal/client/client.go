package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/danylovaolha/chatsync/internal/attachment"
	"github.com/danylovaolha/chatsync/internal/blob"
	"github.com/danylovaolha/chatsync/internal/changes"
	"github.com/danylovaolha/chatsync/internal/channel"
	"github.com/danylovaolha/chatsync/internal/codec"
	"github.com/danylovaolha/chatsync/internal/composer"
	"github.com/danylovaolha/chatsync/internal/engine"
	"github.com/danylovaolha/chatsync/internal/models"
	"github.com/danylovaolha/chatsync/internal/observability"
	"github.com/danylovaolha/chatsync/internal/session"
	"github.com/danylovaolha/chatsync/internal/store"
)

var (
	// ErrInvalidSession rejects Start without a valid session.
	ErrInvalidSession = errors.New("no valid session")
	// ErrUnknownMessage is returned when an operation targets an id not in
	// the local list.
	ErrUnknownMessage = errors.New("message not in local list")
)

// Notifier surfaces operation failures to the user. Implementations must be
// safe for concurrent use; the client calls it from completion goroutines.
type Notifier interface {
	Notify(message string)
}

// Config identifies the conversation resources.
type Config struct {
	// ChannelName is the live pub/sub topic.
	ChannelName string
	// Table is the persisted record table watched for change events.
	Table string
}

// Deps are the collaborators a Client is built from. Emitter may be nil when
// the backend emits change events itself.
type Deps struct {
	Session   session.Provider
	Store     store.Store
	Connector channel.Connector
	Stream    changes.Stream
	Blobs     blob.Storage
	Emitter   changes.Emitter
	Notifier  Notifier
	Listener  engine.ListListener
}

// Client runs one chat session: it loads history, keeps the engine fed from
// the live channel and the change stream, and executes composer submissions.
//
// All list and composer mutations are funneled through a single run-loop
// goroutine; transport callbacks post onto it and never touch shared state
// directly. Live payloads arriving before the history load completes are
// buffered and replayed in arrival order once it does.
//
// A sender's own message is applied exactly once: the optimistic append after
// the persistence save. Published payloads carry this client's origin id and
// the matching channel echo is dropped on receipt.
type Client struct {
	cfg      Config
	sess     session.Provider
	store    store.Store
	conn     channel.Connector
	stream   changes.Stream
	blobs    blob.Storage
	emitter  changes.Emitter
	notifier Notifier

	engine   *engine.Engine
	composer *composer.Composer
	tracker  *attachment.Tracker
	uploader *attachment.Uploader
	origin   string

	handle   channel.Handle
	tasks    chan func()
	done     chan struct{}
	stopOnce sync.Once

	buffered   [][]byte
	pendingOwn []models.Message
}

// New builds a Client for one conversation.
func New(cfg Config, deps Deps) *Client {
	user := deps.Session.CurrentUser()
	blobs := deps.Blobs
	if blobs == nil {
		blobs = blob.NoopStorage{}
	}
	tracker := attachment.NewTracker()
	return &Client{
		cfg:      cfg,
		sess:     deps.Session,
		store:    deps.Store,
		conn:     deps.Connector,
		stream:   deps.Stream,
		blobs:    blobs,
		emitter:  deps.Emitter,
		notifier: deps.Notifier,
		engine:   engine.New(user.ID, deps.Listener),
		composer: composer.New(user),
		tracker:  tracker,
		uploader: attachment.NewUploader(blobs, tracker),
		origin:   xid.New().String(),
		tasks:    make(chan func(), 64),
		done:     make(chan struct{}),
	}
}

// Start subscribes to the live channel and the change stream, then loads
// history. It returns once the subscriptions are in place; the history load
// completes asynchronously.
func (c *Client) Start(ctx context.Context) error {
	if !c.sess.Valid() {
		return ErrInvalidSession
	}

	go c.run()

	handle, err := c.conn.Subscribe(ctx, c.cfg.ChannelName)
	if err != nil {
		c.stopOnce.Do(func() { close(c.done) })
		return fmt.Errorf("subscribe channel: %w", err)
	}
	c.handle = handle
	handle.OnMessage(func(payload []byte) {
		c.post(func() { c.handleIncoming(payload) })
	})

	c.stream.OnUpdate(func(raw []byte) {
		c.post(func() { c.handleUpdate(raw) })
	})
	c.stream.OnDelete(func(raw []byte) {
		c.post(func() { c.handleDelete(raw) })
	})

	go c.loadHistory(ctx)

	return nil
}

// ReloadHistory re-runs the history fetch after a failed initial load. Until
// a load succeeds the session stays unloaded and live events keep buffering.
func (c *Client) ReloadHistory(ctx context.Context) {
	go c.loadHistory(ctx)
}

func (c *Client) loadHistory(ctx context.Context) {
	history, err := c.store.FindOrdered(ctx)
	if err != nil {
		c.notifier.Notify(err.Error())
		return
	}
	c.post(func() {
		c.engine.LoadHistory(history)
		for _, msg := range c.pendingOwn {
			c.applyOwnSaved(msg)
		}
		c.pendingOwn = nil
		for _, payload := range c.buffered {
			c.handleIncoming(payload)
		}
		c.buffered = nil
	})
}

// Close tears down both subscriptions and stops the run loop. In-flight
// persistence and upload calls are not cancelled; their completions are
// dropped.
func (c *Client) Close() {
	c.stopOnce.Do(func() {
		if c.handle != nil {
			_ = c.handle.Leave()
		}
		c.stream.RemoveAllListeners()
		close(c.done)
	})
}

// SendText composes and submits a plain text message. Drafts that are empty
// after trimming are ignored. The saved message is appended optimistically
// and then broadcast on the live channel.
func (c *Client) SendText(ctx context.Context, raw string) {
	var draft models.Message
	var ok bool
	c.call(func() { draft, ok = c.composer.ComposeText(raw) })
	if !ok {
		return
	}

	go func() {
		saved, err := c.store.Save(ctx, draft)
		if err != nil {
			c.notifier.Notify(err.Error())
			return
		}
		c.post(func() { c.applyOwnSaved(saved) })
		c.publish(ctx, saved)
	}()
}

// SendImage stages image bytes and submits the attachment message. The
// metadata row is persisted and broadcast first; the binary upload is a
// second, independent write that may finish before or after the broadcast
// reaches other clients.
func (c *Client) SendImage(ctx context.Context, data []byte) {
	var draft models.Message
	var att composer.Attachment
	var err error
	var ok bool
	c.call(func() {
		if _, err = c.composer.BeginImageAttachment(data); err != nil {
			return
		}
		draft, _ = c.composer.ImageDraft()
		att, ok = c.composer.PendingAttachment()
	})
	if err != nil {
		c.notifier.Notify(err.Error())
		return
	}
	if !ok {
		return
	}

	go func() {
		saved, err := c.store.Save(ctx, draft)
		if err != nil {
			// Attachment stays staged so the user can retry.
			c.notifier.Notify(err.Error())
			return
		}
		c.post(func() {
			c.tracker.MarkMetadataSent(att.Name)
			c.applyOwnSaved(saved)
			c.composer.Cancel()
		})
		c.publish(ctx, saved)

		go func() {
			if err := c.uploader.Upload(ctx, att.Name, att.Data); err != nil {
				c.notifier.Notify(err.Error())
			}
		}()
	}()
}

// BeginEdit stages the message with the given id for editing and returns the
// body to pre-fill the input with.
func (c *Client) BeginEdit(id string) (string, error) {
	var prefill string
	var err error
	c.call(func() {
		target, found := c.engine.FindByID(id)
		if !found {
			err = ErrUnknownMessage
			return
		}
		if err = c.composer.BeginEdit(target); err != nil {
			return
		}
		prefill = c.composer.PrefilledText()
	})
	return prefill, err
}

// SubmitEdit persists the staged edit. The edit is not broadcast on the live
// channel: propagation to other clients rides the change stream, unlike a
// new message.
func (c *Client) SubmitEdit(ctx context.Context, raw string) {
	var edited models.Message
	var ok bool
	c.call(func() { edited, ok = c.composer.StageEdit(raw) })
	if !ok {
		return
	}

	go func() {
		saved, err := c.store.Save(ctx, edited)
		if err != nil {
			c.notifier.Notify(err.Error())
			return
		}
		updatedAt := time.Now()
		if saved.UpdatedAt != nil {
			updatedAt = *saved.UpdatedAt
		}
		c.post(func() {
			c.engine.ApplyUpdate(saved.ID, saved.Text, saved.ImagePath, updatedAt)
			c.composer.Cancel()
		})
		c.emitUpdate(ctx, saved, updatedAt)
	}()
}

// DeleteMessage removes one of the user's messages: the row is deleted, the
// local entry dropped, any uploaded attachment binary torn down, and a
// delete event emitted for other clients.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	var target models.Message
	var found bool
	c.call(func() { target, found = c.engine.FindByID(id) })
	if !found {
		return ErrUnknownMessage
	}

	go func() {
		if err := c.store.Remove(ctx, id); err != nil && !errors.Is(err, store.ErrMessageNotFound) {
			c.notifier.Notify(err.Error())
			return
		}
		c.post(func() { c.engine.ApplyDelete(id) })
		if target.HasImage() {
			if err := c.blobs.Remove(ctx, target.ImagePath); err != nil {
				log.Printf("attachment remove failed path=%s err=%v", target.ImagePath, err)
			}
			c.tracker.Forget(target.ImagePath)
		}
		c.emitDelete(ctx, id)
	}()
	return nil
}

// CancelComposition drops staged edit or attachment state.
func (c *Client) CancelComposition() {
	c.call(func() { c.composer.Cancel() })
}

// Loaded reports whether the history load has been applied. Consumers
// typically hold a spinner until this flips.
func (c *Client) Loaded() bool {
	var loaded bool
	c.call(func() { loaded = c.engine.Loaded() })
	return loaded
}

// Messages returns a consistent snapshot of the current list.
func (c *Client) Messages() []models.Message {
	var out []models.Message
	c.call(func() { out = c.engine.Messages() })
	return out
}

// IsMine reports whether the local user authored the message.
func (c *Client) IsMine(msg models.Message) bool {
	return c.engine.IsMine(msg)
}

// AttachmentState reports upload progress for a path sent this session.
// Viewers seeing anything but StateBinaryAvailable retry on next view.
func (c *Client) AttachmentState(path string) (attachment.State, bool) {
	return c.tracker.State(path)
}

func (c *Client) run() {
	for {
		select {
		case fn := <-c.tasks:
			fn()
		case <-c.done:
			return
		}
	}
}

func (c *Client) post(fn func()) {
	select {
	case c.tasks <- fn:
	case <-c.done:
	}
}

func (c *Client) call(fn func()) {
	ran := make(chan struct{})
	select {
	case c.tasks <- func() { fn(); close(ran) }:
		select {
		case <-ran:
		case <-c.done:
		}
	case <-c.done:
	}
}

// applyOwnSaved applies the user's own just-persisted message. A save can
// complete while the history load is still in flight; the message is then
// held until LoadHistory lands, because LoadHistory replaces the list and
// would wipe an earlier append. The id check skips messages the history
// snapshot already picked up.
func (c *Client) applyOwnSaved(msg models.Message) {
	if !c.engine.Loaded() {
		c.pendingOwn = append(c.pendingOwn, msg)
		return
	}
	if _, found := c.engine.FindByID(msg.ID); found {
		return
	}
	c.engine.ApplyIncoming(msg)
}

func (c *Client) handleIncoming(payload []byte) {
	if !c.engine.Loaded() {
		c.buffered = append(c.buffered, payload)
		return
	}

	msg, origin, err := codec.DecodeMessage(payload)
	if err != nil {
		observability.IncDiscardedPayload("malformed")
		log.Printf("discarding malformed channel payload: %v", err)
		return
	}
	if origin != "" && origin == c.origin {
		// Our own echo; the optimistic append already applied it.
		observability.IncDiscardedPayload("own_echo")
		return
	}
	c.engine.ApplyIncoming(msg)
}

func (c *Client) handleUpdate(raw []byte) {
	event, err := codec.DecodeUpdate(raw)
	if err != nil {
		observability.IncDiscardedPayload("malformed")
		log.Printf("discarding malformed update event: %v", err)
		return
	}
	c.engine.ApplyUpdate(event.ObjectID, event.MessageText, event.ImagePath, time.UnixMilli(event.Updated))
}

func (c *Client) handleDelete(raw []byte) {
	event, err := codec.DecodeDelete(raw)
	if err != nil {
		observability.IncDiscardedPayload("malformed")
		log.Printf("discarding malformed delete event: %v", err)
		return
	}
	c.engine.ApplyDelete(event.ObjectID)
}

func (c *Client) publish(ctx context.Context, msg models.Message) {
	payload, err := codec.EncodeMessage(msg, c.origin)
	if err != nil {
		c.notifier.Notify(err.Error())
		return
	}
	if err := c.handle.Publish(ctx, payload); err != nil {
		observability.IncPublishError()
		c.notifier.Notify(err.Error())
	}
}

func (c *Client) emitUpdate(ctx context.Context, msg models.Message, updatedAt time.Time) {
	if c.emitter == nil {
		return
	}
	event := codec.UpdateEvent{
		ObjectID:    msg.ID,
		MessageText: msg.Text,
		ImagePath:   msg.ImagePath,
		Updated:     updatedAt.UnixMilli(),
	}
	if err := c.emitter.Emit(ctx, c.cfg.Table+".updated", event); err != nil {
		log.Printf("update event emit failed id=%s err=%v", msg.ID, err)
	}
}

func (c *Client) emitDelete(ctx context.Context, id string) {
	if c.emitter == nil {
		return
	}
	if err := c.emitter.Emit(ctx, c.cfg.Table+".deleted", codec.DeleteEvent{ObjectID: id}); err != nil {
		log.Printf("delete event emit failed id=%s err=%v", id, err)
	}
}
