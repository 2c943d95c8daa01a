package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	eventsChannel  = "larisin:stream:events"
	publishTimeout = 5 * time.Second
)

// redisPayload is the message published to Redis for cross-instance
// broadcast. Origin carries the publishing instance's id so a bridge can
// skip its own messages.
type redisPayload struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	Origin string          `json:"origin"`
	At     int64           `json:"at"`
}

// RedisBridge implements Bridge over Redis pub/sub. Every instance
// publishes to and subscribes from one shared channel.
type RedisBridge struct {
	client   *redis.Client
	originID string
	logger   *zap.Logger
}

// NewRedisBridge creates a Redis-backed event bridge.
func NewRedisBridge(client *redis.Client, logger *zap.Logger) *RedisBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBridge{client: client, originID: uuid.NewString(), logger: logger}
}

// PublishEvent publishes an event to the shared channel.
func (r *RedisBridge) PublishEvent(event string, payload []byte) error {
	body, err := json.Marshal(redisPayload{
		Event:  event,
		Data:   payload,
		Origin: r.originID,
		At:     time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return r.client.Publish(ctx, eventsChannel, body).Err()
}

// Subscribe listens on the shared channel and calls handler for every
// message from another instance. Messages this bridge published itself
// are skipped, the local hub already delivered them.
func (r *RedisBridge) Subscribe(handler func(event string, payload []byte)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, eventsChannel)
	if _, err = pubsub.Receive(ctx); err != nil {
		cancelCtx()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var p redisPayload
				if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
					r.logger.Debug("drop malformed bridge message", zap.Error(err))
					continue
				}
				if p.Origin == r.originID {
					continue
				}
				handler(p.Event, p.Data)
			}
		}
	}()
	return func() { cancelCtx() }, nil
}
