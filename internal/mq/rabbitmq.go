package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/startup-vidyapith/apiserver/config"
)

// RabbitMQClient publishes jobs to work queues on the default exchange.
// Publishing shares one confirm-mode channel; every subscriber opens its own
// consuming channel so concurrent workers get independent prefetch windows.
type RabbitMQClient struct {
	conn *amqp.Connection
	cfg  config.RabbitMQConfig

	mu       sync.Mutex
	pub      *amqp.Channel
	declared map[string]bool
}

// NewRabbitMQClient dials the broker and opens the publishing channel.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	pub, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := pub.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	return &RabbitMQClient{
		conn:     conn,
		cfg:      cfg,
		pub:      pub,
		declared: make(map[string]bool),
	}, nil
}

// Publish sends data to the queue named channel and waits for the broker
// to confirm it.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("rabbitmq channel is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureQueue(r.pub, channel); err != nil {
		return "", err
	}

	headers := make(amqp.Table, len(attrs))
	for key, value := range attrs {
		headers[key] = value
	}
	mode := amqp.Transient
	if r.cfg.QueueDurable {
		mode = amqp.Persistent
	}

	id := uuid.NewString()
	confirm, err := r.pub.PublishWithDeferredConfirmWithContext(ctx, "", channel, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: mode,
		MessageId:    id,
		Headers:      headers,
		Body:         data,
	})
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", channel, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return "", err
	}
	if !acked {
		return "", fmt.Errorf("broker refused message for %s", channel)
	}
	return id, nil
}

// Subscribe consumes the queue named channel until ctx is done. A job that
// fails is requeued once; a second failure sends it to the dead-letter
// queue, or drops it when none is configured.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if r.cfg.PrefetchCount > 0 {
		if err := ch.Qos(r.cfg.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("set prefetch: %w", err)
		}
	}
	r.mu.Lock()
	err = r.ensureQueue(ch, channel)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	tag := "worker-" + uuid.NewString()
	deliveries, err := ch.ConsumeWithContext(ctx, channel, tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", channel, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			msg := Message{ID: d.MessageId, Data: d.Body, Attributes: tableToAttributes(d.Headers)}
			if err := handler(ctx, msg); err != nil {
				_ = d.Nack(false, !d.Redelivered)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Close closes the connection and every channel opened on it.
func (r *RabbitMQClient) Close() error {
	if r.conn == nil || r.conn.IsClosed() {
		return nil
	}
	return r.conn.Close()
}

// ensureQueue declares the work queue, and its dead-letter queue when
// configured, once per client. Callers hold r.mu.
func (r *RabbitMQClient) ensureQueue(ch *amqp.Channel, name string) error {
	if r.declared[name] {
		return nil
	}

	var args amqp.Table
	if suffix := r.cfg.DeadLetterSuffix; suffix != "" {
		dead := name + suffix
		if _, err := ch.QueueDeclare(dead, r.cfg.QueueDurable, false, false, false, nil); err != nil {
			return fmt.Errorf("declare %s: %w", dead, err)
		}
		args = amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dead,
		}
	}
	if _, err := ch.QueueDeclare(name, r.cfg.QueueDurable, r.cfg.QueueAutoDelete, false, false, args); err != nil {
		return fmt.Errorf("declare %s: %w", name, err)
	}
	r.declared[name] = true
	return nil
}

func tableToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch v := value.(type) {
		case string:
			attrs[key] = v
		case []byte:
			attrs[key] = string(v)
		default:
			attrs[key] = fmt.Sprint(v)
		}
	}
	return attrs
}
