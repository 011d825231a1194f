// Package mq moves job payloads between the API and the worker over a
// pluggable broker: in-process, RabbitMQ or Google Pub/Sub.
package mq

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

// PublishedAtAttribute carries the RFC 3339 publish time of every message.
const PublishedAtAttribute = "published_at"

// Message is a broker-agnostic delivery.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// PublishedAt returns the publish time stamped by MQ.Publish, or the zero
// time when it is missing.
func (m Message) PublishedAt() time.Time {
	t, _ := time.Parse(time.RFC3339Nano, m.Attributes[PublishedAtAttribute])
	return t
}

// Handler processes a message. A returned error asks the broker to redeliver.
type Handler func(ctx context.Context, msg Message) error

// Backend is implemented by each broker client.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ is the queue handle the rest of the app uses.
type MQ struct {
	backend Backend
	now     func() time.Time
}

func New(backend Backend) *MQ {
	return &MQ{backend: backend, now: time.Now}
}

// Publish sends data on channel after stamping the publish time.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	stamped := make(map[string]string, len(attrs)+1)
	for k, v := range attrs {
		stamped[k] = v
	}
	stamped[PublishedAtAttribute] = m.now().UTC().Format(time.RFC3339Nano)
	return m.backend.Publish(ctx, channel, data, stamped)
}

// Subscribe consumes channel until ctx is done. A panicking handler is
// reported as a failed delivery instead of crashing the consumer.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, func(ctx context.Context, msg Message) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("handler panic: %v\n%s", rec, debug.Stack())
			}
		}()
		return handler(ctx, msg)
	})
}

func (m *MQ) Close() error {
	return m.backend.Close()
}
