package changes

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Emitter publishes row-change events so other clients' change streams see
// edits and deletes made through this one. It stands in for the server-side
// emission a hosted backend would do itself.
type Emitter interface {
	Emit(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NewEmitter builds a RabbitMQ emitter, or a noop emitter when AMQP is
// disabled.
func NewEmitter(amqpURL, exchange string) Emitter {
	if amqpURL == "" {
		log.Printf("change emitter disabled, using noop: empty amqp url")
		return noopEmitter{}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Printf("change emitter disabled, using noop: %v", err)
		return noopEmitter{}
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("change emitter disabled, using noop: %v", err)
		_ = conn.Close()
		return noopEmitter{}
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		log.Printf("change emitter disabled, using noop: %v", err)
		_ = ch.Close()
		_ = conn.Close()
		return noopEmitter{}
	}

	log.Printf("change emitter connected exchange=%s", exchange)
	return &amqpEmitter{conn: conn, ch: ch, exchange: exchange}
}

type amqpEmitter struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (e *amqpEmitter) Emit(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = e.ch.PublishWithContext(ctx, e.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		log.Printf("change emit failed key=%s err=%v", routingKey, err)
		return fmt.Errorf("emit %s: %w", routingKey, err)
	}
	return nil
}

func (e *amqpEmitter) Close() error {
	if e.ch != nil {
		_ = e.ch.Close()
	}
	if e.conn != nil {
		return e.conn.Close()
	}
	return nil
}

type noopEmitter struct{}

func (noopEmitter) Emit(ctx context.Context, routingKey string, event any) error {
	log.Printf("change emitter noop key=%s", routingKey)
	return nil
}

func (noopEmitter) Close() error { return nil }
