package channel

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// WebsocketConnector opens channels against a websocket relay that fans
// every frame written on a topic out to all connections joined to it.
type WebsocketConnector struct {
	baseURL string
	dialer  *websocket.Dialer
}

// NewWebsocketConnector creates a connector for the relay at baseURL
// (ws:// or wss://, no trailing slash).
func NewWebsocketConnector(baseURL string) *WebsocketConnector {
	return &WebsocketConnector{baseURL: baseURL, dialer: websocket.DefaultDialer}
}

// Subscribe dials the relay endpoint for the named topic.
func (c *WebsocketConnector) Subscribe(ctx context.Context, name string) (Handle, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, name)
	conn, _, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &wsHandle{conn: conn, name: name}, nil
}

type wsHandle struct {
	conn *websocket.Conn
	name string

	writeMu sync.Mutex
	once    sync.Once
	closed  bool
	mu      sync.Mutex
}

func (h *wsHandle) OnMessage(cb func(payload []byte)) {
	h.once.Do(func() {
		go func() {
			for {
				_, payload, err := h.conn.ReadMessage()
				if err != nil {
					h.mu.Lock()
					closed := h.closed
					h.mu.Unlock()
					if !closed {
						log.Printf("websocket read error name=%s err=%v", h.name, err)
					}
					return
				}
				cb(payload)
			}
		}()
	})
}

func (h *wsHandle) Publish(ctx context.Context, payload []byte) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if err := h.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("publish %s: %w", h.name, err)
	}
	return nil
}

func (h *wsHandle) Leave() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return h.conn.Close()
}

var _ Connector = (*WebsocketConnector)(nil)
