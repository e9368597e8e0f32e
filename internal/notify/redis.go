package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace-app/internal/domain/notifications"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const fanoutChannel = "marketplace:notifications"

// RedisFanout relays notifications through Redis pub/sub so every process
// holding a connection for the user can deliver it.
type RedisFanout struct {
	client *redis.Client
	local  Deliverer
	log    *logrus.Entry
}

func NewRedisFanout(addr, password string, local Deliverer, log *logrus.Entry) (*RedisFanout, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisFanout{client: rdb, local: local, log: log}, nil
}

func (f *RedisFanout) Deliver(ctx context.Context, n notifications.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, fanoutChannel, payload).Err()
}

// Listen forwards published notifications to the local hub until ctx ends.
func (f *RedisFanout) Listen(ctx context.Context) error {
	pubsub := f.client.Subscribe(ctx, fanoutChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var n notifications.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				f.log.WithError(err).Warn("dropping malformed notification payload")
				continue
			}
			if err := f.local.Deliver(ctx, n); err != nil {
				f.log.WithError(err).WithField("user_id", n.UserID).Warn("local delivery failed")
			}
		}
	}
}

func (f *RedisFanout) Close() error {
	return f.client.Close()
}
