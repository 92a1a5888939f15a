package blob

import "context"

// Storage is the binary storage collaborator: attachment bytes live under an
// opaque path, uploaded and removed independently of the message rows that
// reference them.
type Storage interface {
	Upload(ctx context.Context, path string, data []byte) error
	Remove(ctx context.Context, path string) error
}
