package mq

import (
	"context"
	"fmt"
	"strings"

	"github.com/startup-vidyapith/apiserver/config"
)

// Open builds the backend selected by cfg.MQ.Backend.
func Open(ctx context.Context, cfg config.Config) (*MQ, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.MQ.Backend)) {
	case "", "local":
		return New(NewLocalClient()), nil
	case "rabbitmq":
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		return New(client), nil
	case "pubsub":
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("pubsub: %w", err)
		}
		return New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQ.Backend)
	}
}

// IsLocal reports whether backend only delivers within this process.
func IsLocal(cfg config.MQConfig) bool {
	b := strings.ToLower(strings.TrimSpace(cfg.Backend))
	return b == "" || b == "local"
}
