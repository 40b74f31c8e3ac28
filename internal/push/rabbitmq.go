package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tablebill/api/internal/service"
)

const (
	Exchange   = "push_notifications"
	Queue      = "push_dispatch_queue"
	RoutingKey = "push.outlet"

	publishTimeout = 5 * time.Second
)

// channel is the part of *amqp.Channel the dispatcher publishes through.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Dispatcher enqueues push notifications for the outlet-device sender.
// Delivery itself happens in that consumer.
type Dispatcher struct {
	ch   channel
	conn *amqp.Connection
}

// Dial connects to RabbitMQ and declares the push exchange and queue.
func Dial(url string) (*Dispatcher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		Exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		Queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(Queue, RoutingKey, Exchange, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &Dispatcher{ch: ch, conn: conn}, nil
}

// Notify publishes msg as a persistent JSON message.
func (d *Dispatcher) Notify(ctx context.Context, msg service.PushMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = d.ch.PublishWithContext(ctx,
		Exchange,   // exchange
		RoutingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("publish push message: %w", err)
	}
	return nil
}

// Close closes the channel's connection.
func (d *Dispatcher) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}
