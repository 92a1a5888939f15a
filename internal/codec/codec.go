package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danylovaolha/chatsync/internal/models"
)

// ErrMalformedPayload marks payloads that fail shape validation. Callers
// discard these without surfacing them; they must never crash the
// reconciliation path.
var ErrMalformedPayload = errors.New("malformed payload")

// MessagePayload is the wire shape published on the live channel.
// Timestamps travel as milliseconds since epoch. Origin identifies the
// publishing client instance and is used to drop a sender's own echo.
type MessagePayload struct {
	ObjectID    string `json:"objectId,omitempty"`
	UserID      string `json:"userId"`
	UserName    string `json:"userName"`
	MessageText string `json:"messageText,omitempty"`
	ImagePath   string `json:"imagePath,omitempty"`
	Created     int64  `json:"created"`
	Origin      string `json:"origin,omitempty"`
}

// UpdateEvent is the wire shape of a row-update notification.
type UpdateEvent struct {
	ObjectID    string `json:"objectId"`
	MessageText string `json:"messageText,omitempty"`
	ImagePath   string `json:"imagePath,omitempty"`
	Updated     int64  `json:"updated"`
}

// DeleteEvent is the wire shape of a row-delete notification.
type DeleteEvent struct {
	ObjectID string `json:"objectId"`
}

// EncodeMessage serializes a message for channel publish.
func EncodeMessage(msg models.Message, origin string) ([]byte, error) {
	payload := MessagePayload{
		ObjectID:    msg.ID,
		UserID:      msg.SenderID,
		UserName:    msg.SenderName,
		MessageText: msg.Text,
		ImagePath:   msg.ImagePath,
		Created:     msg.CreatedAt.UnixMilli(),
		Origin:      origin,
	}
	return json.Marshal(payload)
}

// DecodeMessage validates and converts a raw channel payload. Every required
// field is checked for presence before the message is constructed; a payload
// missing any of them, or carrying both body variants, or neither, is
// rejected with ErrMalformedPayload.
func DecodeMessage(raw []byte) (models.Message, string, error) {
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Message{}, "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	userID, ok := stringField(fields, "userId")
	if !ok {
		return models.Message{}, "", fmt.Errorf("%w: missing userId", ErrMalformedPayload)
	}
	userName, ok := stringField(fields, "userName")
	if !ok {
		return models.Message{}, "", fmt.Errorf("%w: missing userName", ErrMalformedPayload)
	}
	created, ok := millisField(fields, "created")
	if !ok {
		return models.Message{}, "", fmt.Errorf("%w: missing created", ErrMalformedPayload)
	}

	text, hasText := stringField(fields, "messageText")
	imagePath, hasImage := stringField(fields, "imagePath")
	if hasText == hasImage {
		return models.Message{}, "", fmt.Errorf("%w: exactly one of messageText/imagePath required", ErrMalformedPayload)
	}

	objectID, _ := stringField(fields, "objectId")
	origin, _ := stringField(fields, "origin")

	return models.Message{
		ID:         objectID,
		SenderID:   userID,
		SenderName: userName,
		Text:       text,
		ImagePath:  imagePath,
		CreatedAt:  time.UnixMilli(created),
	}, origin, nil
}

// DecodeUpdate validates a row-update notification payload.
func DecodeUpdate(raw []byte) (UpdateEvent, error) {
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return UpdateEvent{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	objectID, ok := stringField(fields, "objectId")
	if !ok {
		return UpdateEvent{}, fmt.Errorf("%w: missing objectId", ErrMalformedPayload)
	}
	updated, ok := millisField(fields, "updated")
	if !ok {
		return UpdateEvent{}, fmt.Errorf("%w: missing updated", ErrMalformedPayload)
	}

	text, hasText := stringField(fields, "messageText")
	imagePath, hasImage := stringField(fields, "imagePath")
	if hasText == hasImage {
		return UpdateEvent{}, fmt.Errorf("%w: exactly one of messageText/imagePath required", ErrMalformedPayload)
	}

	return UpdateEvent{ObjectID: objectID, MessageText: text, ImagePath: imagePath, Updated: updated}, nil
}

// DecodeDelete validates a row-delete notification payload.
func DecodeDelete(raw []byte) (DeleteEvent, error) {
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return DeleteEvent{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	objectID, ok := stringField(fields, "objectId")
	if !ok {
		return DeleteEvent{}, fmt.Errorf("%w: missing objectId", ErrMalformedPayload)
	}
	return DeleteEvent{ObjectID: objectID}, nil
}

func stringField(fields map[string]any, key string) (string, bool) {
	val, exists := fields[key]
	if !exists {
		return "", false
	}
	str, ok := val.(string)
	if !ok || str == "" {
		return "", false
	}
	return str, true
}

func millisField(fields map[string]any, key string) (int64, bool) {
	val, exists := fields[key]
	if !exists {
		return 0, false
	}
	num, ok := val.(float64)
	if !ok || num <= 0 {
		return 0, false
	}
	return int64(num), true
}
