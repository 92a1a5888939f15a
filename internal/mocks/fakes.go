package mocks

import (
	"context"
	"sync"

	"github.com/danylovaolha/chatsync/internal/changes"
	"github.com/danylovaolha/chatsync/internal/channel"
)

// FakeConnector hands out in-memory channel handles, one per Subscribe.
type FakeConnector struct {
	mu      sync.Mutex
	Handles []*FakeHandle
}

func (c *FakeConnector) Subscribe(ctx context.Context, name string) (channel.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := &FakeHandle{Name: name}
	c.Handles = append(c.Handles, h)
	return h, nil
}

// FakeHandle records publishes and lets tests push inbound payloads.
type FakeHandle struct {
	Name string

	mu         sync.Mutex
	cb         func([]byte)
	Published  [][]byte
	Left       bool
	PublishErr error
}

func (h *FakeHandle) OnMessage(cb func(payload []byte)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cb = cb
}

func (h *FakeHandle) Publish(ctx context.Context, payload []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.PublishErr != nil {
		return h.PublishErr
	}
	h.Published = append(h.Published, append([]byte(nil), payload...))
	return nil
}

func (h *FakeHandle) Leave() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Left = true
	return nil
}

// AllPublished returns a copy of every published payload.
func (h *FakeHandle) AllPublished() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]byte, len(h.Published))
	copy(out, h.Published)
	return out
}

// Deliver simulates an inbound payload from another subscriber.
func (h *FakeHandle) Deliver(payload []byte) {
	h.mu.Lock()
	cb := h.cb
	h.mu.Unlock()
	if cb != nil {
		cb(payload)
	}
}

var _ channel.Connector = (*FakeConnector)(nil)
var _ channel.Handle = (*FakeHandle)(nil)

// FakeStream captures change-stream callbacks and lets tests fire events.
type FakeStream struct {
	mu       sync.Mutex
	onUpdate func([]byte)
	onDelete func([]byte)
	Removed  bool
}

func (s *FakeStream) OnUpdate(cb func(raw []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = cb
}

func (s *FakeStream) OnDelete(cb func(raw []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDelete = cb
}

func (s *FakeStream) RemoveAllListeners() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = nil
	s.onDelete = nil
	s.Removed = true
}

// TriggerUpdate fires the registered update callback.
func (s *FakeStream) TriggerUpdate(raw []byte) {
	s.mu.Lock()
	cb := s.onUpdate
	s.mu.Unlock()
	if cb != nil {
		cb(raw)
	}
}

// TriggerDelete fires the registered delete callback.
func (s *FakeStream) TriggerDelete(raw []byte) {
	s.mu.Lock()
	cb := s.onDelete
	s.mu.Unlock()
	if cb != nil {
		cb(raw)
	}
}

var _ changes.Stream = (*FakeStream)(nil)

// NotifierSpy records user-visible failure messages.
type NotifierSpy struct {
	mu       sync.Mutex
	Messages []string
}

func (n *NotifierSpy) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, message)
}

// All returns a copy of the recorded messages.
func (n *NotifierSpy) All() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Messages...)
}
