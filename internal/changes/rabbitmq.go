package changes

import (
	"fmt"
	"log"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitStream consumes row-change events for one table from a RabbitMQ
// topic exchange. Routing keys are "<table>.updated" and "<table>.deleted".
type RabbitStream struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	table string

	mu       sync.Mutex
	onUpdate func(raw []byte)
	onDelete func(raw []byte)
}

// NewRabbitStream connects and binds an exclusive queue for the table's
// update and delete routing keys.
func NewRabbitStream(amqpURL, exchange, table string) (*RabbitStream, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	for _, key := range []string{table + ".updated", table + ".deleted"} {
		if err := ch.QueueBind(queue.Name, key, exchange, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	deliveries, err := ch.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}

	s := &RabbitStream{conn: conn, ch: ch, table: table}
	go s.dispatch(deliveries)
	return s, nil
}

func (s *RabbitStream) dispatch(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		s.mu.Lock()
		onUpdate, onDelete := s.onUpdate, s.onDelete
		s.mu.Unlock()

		switch {
		case strings.HasSuffix(d.RoutingKey, ".updated"):
			if onUpdate != nil {
				onUpdate(d.Body)
			}
		case strings.HasSuffix(d.RoutingKey, ".deleted"):
			if onDelete != nil {
				onDelete(d.Body)
			}
		default:
			log.Printf("change stream unrecognized routing key=%s", d.RoutingKey)
		}
	}
}

// OnUpdate registers the update callback.
func (s *RabbitStream) OnUpdate(cb func(raw []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = cb
}

// OnDelete registers the delete callback.
func (s *RabbitStream) OnDelete(cb func(raw []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDelete = cb
}

// RemoveAllListeners drops the callbacks and closes the consumer.
func (s *RabbitStream) RemoveAllListeners() {
	s.mu.Lock()
	s.onUpdate = nil
	s.onDelete = nil
	s.mu.Unlock()

	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

var _ Stream = (*RabbitStream)(nil)
