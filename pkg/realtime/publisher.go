package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PublishClient is the subset of the Redis client used for fan-out.
type PublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Event is the message written on a session channel.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Publisher pushes session events onto Redis channels named "<prefix>:<sessionID>".
type Publisher struct {
	client PublishClient
	prefix string
	logger *zap.Logger
}

// NewPublisher constructs a publisher. A nil client yields a publisher that drops events.
func NewPublisher(client PublishClient, prefix string, logger *zap.Logger) *Publisher {
	if prefix == "" {
		prefix = "schedule-sessions"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, prefix: prefix, logger: logger}
}

// Channel returns the channel name for a session.
func (p *Publisher) Channel(sessionID string) string {
	return p.prefix + ":" + sessionID
}

// Publish encodes the event and publishes it. It returns the number of receivers.
func (p *Publisher) Publish(ctx context.Context, event Event) (int64, error) {
	if p == nil || p.client == nil {
		return 0, nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("marshal realtime event: %w", err)
	}
	receivers, err := p.client.Publish(ctx, p.Channel(event.SessionID), payload).Result()
	if err != nil {
		p.logger.Warn("realtime publish failed",
			zap.String("session_id", event.SessionID),
			zap.String("type", event.Type),
			zap.Error(err))
		return 0, fmt.Errorf("publish %s: %w", p.Channel(event.SessionID), err)
	}
	return receivers, nil
}
