package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/startup-vidyapith/apiserver/config"
	"google.golang.org/api/option"
)

// PubSubClient carries jobs over Google Cloud Pub/Sub. Each channel is a
// topic with one shared subscription, so every worker process competes for
// the same jobs.
type PubSubClient struct {
	client *pubsub.Client
	cfg    config.PubSubConfig

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.SubscriptionSuffix == "" {
		cfg.SubscriptionSuffix = "-sub"
	}
	return &PubSubClient{client: client, cfg: cfg, topics: make(map[string]*pubsub.Topic)}, nil
}

// Publish sends data to the topic named channel and returns the server id.
func (p *PubSubClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("pubsub channel is required")
	}
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return "", err
	}
	return topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
}

// Subscribe receives from the channel's shared subscription until ctx is
// done. Failed jobs are nacked and come back after the retry backoff.
func (p *PubSubClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("pubsub channel is required")
	}
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return err
	}

	sub := p.client.Subscription(channel + p.cfg.SubscriptionSuffix)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		sub, err = p.client.CreateSubscription(ctx, sub.ID(), pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: p.ackDeadline(),
			RetryPolicy: &pubsub.RetryPolicy{
				MinimumBackoff: 10 * time.Second,
				MaximumBackoff: 10 * time.Minute,
			},
		})
		if err != nil {
			return fmt.Errorf("create subscription %s: %w", channel, err)
		}
	}
	if p.cfg.MaxOutstanding > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = p.cfg.MaxOutstanding
	}

	err = sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		if err := handler(ctx, Message{ID: m.ID, Data: m.Data, Attributes: m.Attributes}); err != nil {
			m.Nack()
			return
		}
		m.Ack()
	})
	if err == nil {
		err = ctx.Err()
	}
	return err
}

// Close flushes pending publishes and closes the client.
func (p *PubSubClient) Close() error {
	p.mu.Lock()
	for _, t := range p.topics {
		t.Stop()
	}
	p.mu.Unlock()
	return p.client.Close()
}

func (p *PubSubClient) topic(ctx context.Context, name string) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.topics[name]; ok {
		return t, nil
	}
	t := p.client.Topic(name)
	exists, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		if t, err = p.client.CreateTopic(ctx, name); err != nil {
			return nil, fmt.Errorf("create topic %s: %w", name, err)
		}
	}
	p.topics[name] = t
	return t, nil
}

func (p *PubSubClient) ackDeadline() time.Duration {
	if p.cfg.AckDeadline < 10*time.Second {
		return 10 * time.Second
	}
	return p.cfg.AckDeadline
}
