package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danylovaolha/chatsync/internal/models"
)

// PostgresStore is a sqlx-backed Store.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type messageRow struct {
	ObjectID   string         `db:"object_id"`
	SenderID   string         `db:"sender_id"`
	SenderName string         `db:"sender_name"`
	Text       sql.NullString `db:"message_text"`
	ImagePath  sql.NullString `db:"image_path"`
	Created    time.Time      `db:"created"`
	Updated    sql.NullTime   `db:"updated"`
}

func (r messageRow) toModel() models.Message {
	msg := models.Message{
		ID:         r.ObjectID,
		SenderID:   r.SenderID,
		SenderName: r.SenderName,
		Text:       r.Text.String,
		ImagePath:  r.ImagePath.String,
		CreatedAt:  r.Created,
	}
	if r.Updated.Valid {
		when := r.Updated.Time
		msg.UpdatedAt = &when
	}
	return msg
}

// Save inserts a new message or rewrites the body of an existing one. The
// server assigns both the object id and the creation timestamp on insert.
func (s *PostgresStore) Save(ctx context.Context, msg models.Message) (models.Message, error) {
	if msg.ID == "" {
		var row messageRow
		err := s.db.QueryRowxContext(ctx, `INSERT INTO messages (object_id, sender_id, sender_name, message_text, image_path)
            VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
            RETURNING object_id, sender_id, sender_name, COALESCE(message_text, '') AS message_text, COALESCE(image_path, '') AS image_path, created, updated`,
			uuid.NewString(), msg.SenderID, msg.SenderName, msg.Text, msg.ImagePath).
			StructScan(&row)
		if err != nil {
			return models.Message{}, fmt.Errorf("insert message: %w", err)
		}
		return row.toModel(), nil
	}

	var row messageRow
	err := s.db.QueryRowxContext(ctx, `UPDATE messages
        SET message_text = NULLIF($2, ''), image_path = NULLIF($3, ''), updated = NOW()
        WHERE object_id = $1
        RETURNING object_id, sender_id, sender_name, COALESCE(message_text, '') AS message_text, COALESCE(image_path, '') AS image_path, created, updated`,
		msg.ID, msg.Text, msg.ImagePath).
		StructScan(&row)
	if err == sql.ErrNoRows {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("update message: %w", err)
	}
	return row.toModel(), nil
}

// Remove deletes the row matching id.
func (s *PostgresStore) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE object_id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// FindOrdered returns every message sorted ascending by creation time.
func (s *PostgresStore) FindOrdered(ctx context.Context) ([]models.Message, error) {
	query := `SELECT object_id, sender_id, sender_name, COALESCE(message_text, '') AS message_text, COALESCE(image_path, '') AS image_path, created, updated
        FROM messages
        ORDER BY created ASC`
	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.toModel())
	}
	return msgs, nil
}

var _ Store = (*PostgresStore)(nil)
