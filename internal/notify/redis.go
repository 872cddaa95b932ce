package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher fans events out on a redis pub/sub channel. The routing key
// is carried inside the message since a single channel is used.
type RedisPublisher struct {
	client  redis.Cmdable
	channel string
}

type redisEnvelope struct {
	RoutingKey string `json:"routing_key"`
	Payload    any    `json:"payload"`
}

// NewRedisPublisher builds a publisher on channel.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(redisEnvelope{RoutingKey: routingKey, Payload: payload})
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, body).Err()
}
