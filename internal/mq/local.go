package mq

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

const (
	localQueueSize   = 1024
	localMaxAttempts = 3
	attemptAttribute = "x-attempt"
)

// ErrQueueFull is returned by LocalClient.Publish when a channel buffer is full.
var ErrQueueFull = errors.New("local queue is full")

// LocalClient is an in-process backend. Messages published before a
// subscriber attaches are buffered; a failed message is redelivered up to
// three times in total.
type LocalClient struct {
	mu     sync.Mutex
	queues map[string]chan Message
	closed chan struct{}
	once   sync.Once
}

func NewLocalClient() *LocalClient {
	return &LocalClient{
		queues: make(map[string]chan Message),
		closed: make(chan struct{}),
	}
}

func (l *LocalClient) queue(channel string) chan Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	q, ok := l.queues[channel]
	if !ok {
		q = make(chan Message, localQueueSize)
		l.queues[channel] = q
	}
	return q
}

// Publish enqueues a copy of data on channel.
func (l *LocalClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if channel == "" {
		return "", errors.New("local channel is required")
	}
	msg := Message{
		ID:         uuid.NewString(),
		Data:       append([]byte(nil), data...),
		Attributes: copyAttributes(attrs),
	}
	return msg.ID, l.enqueue(ctx, channel, msg)
}

func (l *LocalClient) enqueue(ctx context.Context, channel string, msg Message) error {
	select {
	case <-l.closed:
		return errors.New("local queue closed")
	case <-ctx.Done():
		return ctx.Err()
	case l.queue(channel) <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe handles messages from channel until ctx is cancelled or the client is closed.
func (l *LocalClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if channel == "" {
		return errors.New("local channel is required")
	}
	q := l.queue(channel)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.closed:
			return nil
		case msg := <-q:
			if err := handler(ctx, msg); err != nil {
				attempt, _ := strconv.Atoi(msg.Attributes[attemptAttribute])
				attempt++
				if attempt >= localMaxAttempts {
					continue
				}
				msg.Attributes[attemptAttribute] = strconv.Itoa(attempt)
				_ = l.enqueue(context.Background(), channel, msg)
			}
		}
	}
}

func (l *LocalClient) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func copyAttributes(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
