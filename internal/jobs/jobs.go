// Package jobs carries background work from the request path to a worker
// over the message queue.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/mq"
)

// Type names a job. It travels in the "type" message attribute.
type Type string

const (
	TypeSendEmail  Type = "email.send"
	TypeTouchLogin Type = "user.touch_login"
)

const typeAttribute = "type"

// SendEmail asks the worker to deliver an email and, when NotificationID is
// set, to stamp that notification as emailed.
type SendEmail struct {
	To             string `json:"to"`
	ToName         string `json:"toName,omitempty"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	NotificationID int    `json:"notificationId,omitempty"`
}

// TouchLogin asks the worker to record a successful login.
type TouchLogin struct {
	UserID int       `json:"userId"`
	At     time.Time `json:"at"`
}

// Dispatcher publishes jobs.
type Dispatcher struct {
	queue   *mq.MQ
	channel string
	log     *logger.Logger
}

func NewDispatcher(queue *mq.MQ, channel string, log *logger.Logger) *Dispatcher {
	return &Dispatcher{queue: queue, channel: channel, log: log.With("service", "JobDispatcher")}
}

// Enqueue publishes payload as a job of type t.
func (d *Dispatcher) Enqueue(ctx context.Context, t Type, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s job: %w", t, err)
	}
	id, err := d.queue.Publish(ctx, d.channel, data, map[string]string{typeAttribute: string(t)})
	if err != nil {
		return fmt.Errorf("publish %s job: %w", t, err)
	}
	d.log.Debug("job enqueued", "type", t, "message_id", id)
	return nil
}

func (d *Dispatcher) SendEmail(ctx context.Context, job SendEmail) error {
	return d.Enqueue(ctx, TypeSendEmail, job)
}

func (d *Dispatcher) TouchLogin(ctx context.Context, userID int, at time.Time) error {
	return d.Enqueue(ctx, TypeTouchLogin, TouchLogin{UserID: userID, At: at})
}

// HandlerFunc processes one decoded job payload.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// ErrUnknownType is returned for a message without a registered handler.
var ErrUnknownType = errors.New("unknown job type")

// Worker consumes jobs and routes them by type.
type Worker struct {
	queue    *mq.MQ
	channel  string
	log      *logger.Logger
	handlers map[Type]HandlerFunc
}

func NewWorker(queue *mq.MQ, channel string, log *logger.Logger) *Worker {
	return &Worker{
		queue:    queue,
		channel:  channel,
		log:      log.With("service", "JobWorker"),
		handlers: make(map[Type]HandlerFunc),
	}
}

// Handle registers fn for jobs of type t.
func (w *Worker) Handle(t Type, fn HandlerFunc) {
	w.handlers[t] = fn
}

// Run blocks consuming jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("job worker started", "channel", w.channel)
	err := w.queue.Subscribe(ctx, w.channel, w.dispatch)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) dispatch(ctx context.Context, msg mq.Message) error {
	t := Type(msg.Attributes[typeAttribute])
	fn, ok := w.handlers[t]
	if !ok {
		w.log.Warn("dropping job", "type", t, "message_id", msg.ID, "error", ErrUnknownType)
		return nil
	}
	start := time.Now()
	if err := fn(ctx, json.RawMessage(msg.Data)); err != nil {
		w.log.Error("job failed", "type", t, "message_id", msg.ID, "error", err)
		return err
	}
	kv := []any{"type", t, "message_id", msg.ID, "duration_ms", time.Since(start).Milliseconds()}
	if at := msg.PublishedAt(); !at.IsZero() {
		kv = append(kv, "queued_ms", start.Sub(at).Milliseconds())
	}
	w.log.Debug("job done", kv...)
	return nil
}
