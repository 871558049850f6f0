package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/safecircle/backend/internal/domain"
)

// DefaultChannelPrefix namespaces change channels, e.g. "safecircle:changes:alerts"
const DefaultChannelPrefix = "safecircle:changes:"

// ChangeStream is a change stream over Redis Pub/Sub
type ChangeStream struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewChangeStream creates a change stream; an empty prefix uses DefaultChannelPrefix
func NewChangeStream(client *redis.Client, prefix string, logger *zap.Logger) *ChangeStream {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &ChangeStream{client: client, prefix: prefix, logger: logger}
}

// Channel returns the Pub/Sub channel of an entity
func (c *ChangeStream) Channel(entity string) string {
	return c.prefix + entity
}

// Publish announces a change on the entity's channel
func (c *ChangeStream) Publish(ctx context.Context, event domain.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal change event: %w", err)
	}
	if err := c.client.Publish(ctx, c.Channel(event.Entity), payload).Err(); err != nil {
		return fmt.Errorf("redis: failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe registers on the entity's channel. The subscription is confirmed
// before returning so no event published afterwards is missed.
func (c *ChangeStream) Subscribe(ctx context.Context, entity string) (domain.Subscription, error) {
	ps := c.client.Subscribe(ctx, c.Channel(entity))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis: failed to subscribe to %s: %w", entity, err)
	}

	sub := &subscription{
		ps:     ps,
		entity: entity,
		events: make(chan domain.ChangeEvent, 16),
		logger: c.logger,
		done:   make(chan struct{}),
	}
	go sub.pump()

	c.logger.Debug("Subscribed to change stream", zap.String("channel", c.Channel(entity)))
	return sub, nil
}

type subscription struct {
	ps     *redis.PubSub
	entity string
	events chan domain.ChangeEvent
	logger *zap.Logger
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Events() <-chan domain.ChangeEvent {
	return s.events
}

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.ps.Close()
		<-s.done
	})
	return err
}

// pump forwards Pub/Sub messages until the PubSub is closed.
// Payloads are informational; malformed ones still count as a change.
func (s *subscription) pump() {
	defer close(s.done)
	defer close(s.events)

	for msg := range s.ps.Channel() {
		ev := domain.ChangeEvent{Entity: s.entity}
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			s.logger.Debug("Unparseable change payload", zap.String("channel", msg.Channel), zap.Error(err))
			ev = domain.ChangeEvent{Entity: s.entity}
		}

		select {
		case s.events <- ev:
		default:
			// consumer is already due to re-fetch
		}
	}
}
