package store

import (
	"context"
	"errors"

	"github.com/danylovaolha/chatsync/internal/models"
)

// ErrMessageNotFound is returned by Remove when no row matches the id.
var ErrMessageNotFound = errors.New("message not found")

// Store is the persistence collaborator. Save upserts: a message without an
// id is inserted and comes back with one assigned; a message with an id has
// its body and updated timestamp rewritten in place. FindOrdered returns the
// full conversation sorted ascending by creation time.
type Store interface {
	Save(ctx context.Context, msg models.Message) (models.Message, error)
	Remove(ctx context.Context, id string) error
	FindOrdered(ctx context.Context) ([]models.Message, error)
}
