package channel

import "context"

// Handle is one live subscription to a named broadcast topic. OnMessage
// registers the single delivery callback and starts delivery; Publish
// broadcasts to every current subscriber including this one; Leave tears the
// subscription down and stops delivery.
type Handle interface {
	OnMessage(func(payload []byte))
	Publish(ctx context.Context, payload []byte) error
	Leave() error
}

// Connector opens subscriptions on the underlying transport.
type Connector interface {
	Subscribe(ctx context.Context, name string) (Handle, error)
}
