package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danylovaolha/chatsync/internal/models"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := models.Message{
		ID:         "m1",
		SenderID:   "u1",
		SenderName: "alice",
		Text:       "hello",
		CreatedAt:  time.UnixMilli(1700000000000),
	}

	raw, err := EncodeMessage(msg, "origin-1")
	require.NoError(t, err)

	decoded, origin, err := DecodeMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, "origin-1", origin)
	assert.Equal(t, msg.ID, decoded.ID)
	assert.Equal(t, msg.SenderID, decoded.SenderID)
	assert.Equal(t, msg.SenderName, decoded.SenderName)
	assert.Equal(t, msg.Text, decoded.Text)
	assert.True(t, msg.CreatedAt.Equal(decoded.CreatedAt))
}

func TestDecodeMessageImageBody(t *testing.T) {
	raw := []byte(`{"userId":"u1","userName":"alice","imagePath":"abc123.png","created":1700000000000}`)

	decoded, _, err := DecodeMessage(raw)
	require.NoError(t, err)
	assert.True(t, decoded.HasImage())
	assert.Equal(t, "abc123.png", decoded.ImagePath)
	assert.Empty(t, decoded.Text)
}

func TestDecodeMessageRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"missing userId":   `{"userName":"alice","messageText":"hi","created":1700000000000}`,
		"missing userName": `{"userId":"u1","messageText":"hi","created":1700000000000}`,
		"missing created":  `{"userId":"u1","userName":"alice","messageText":"hi"}`,
		"created as text":  `{"userId":"u1","userName":"alice","messageText":"hi","created":"soon"}`,
		"no body":          `{"userId":"u1","userName":"alice","created":1700000000000}`,
		"both bodies":      `{"userId":"u1","userName":"alice","messageText":"hi","imagePath":"a.png","created":1700000000000}`,
		"not json":         `{{{`,
	}

	for name, raw := range cases {
		_, _, err := DecodeMessage([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedPayload, name)
	}
}

func TestDecodeUpdate(t *testing.T) {
	raw := []byte(`{"objectId":"m1","messageText":"edited","updated":1700000000500}`)

	event, err := DecodeUpdate(raw)
	require.NoError(t, err)
	assert.Equal(t, "m1", event.ObjectID)
	assert.Equal(t, "edited", event.MessageText)
	assert.Equal(t, int64(1700000000500), event.Updated)
}

func TestDecodeUpdateRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"missing objectId": `{"messageText":"edited","updated":1700000000500}`,
		"missing updated":  `{"objectId":"m1","messageText":"edited"}`,
		"no body":          `{"objectId":"m1","updated":1700000000500}`,
	}

	for name, raw := range cases {
		_, err := DecodeUpdate([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedPayload, name)
	}
}

func TestDecodeDelete(t *testing.T) {
	event, err := DecodeDelete([]byte(`{"objectId":"m1"}`))
	require.NoError(t, err)
	assert.Equal(t, "m1", event.ObjectID)

	_, err = DecodeDelete([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}
