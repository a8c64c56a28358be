package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const subscriberBuffer = 16

// PubSub fans messages out to every subscriber of a topic across all
// service instances sharing the Redis server.
type PubSub struct {
	client *redis.Client
}

func NewPubSub(client *redis.Client) *PubSub {
	return &PubSub{client: client}
}

func (p *PubSub) Publish(ctx context.Context, topic string, payload []byte) error {
	return p.client.Publish(ctx, topic, payload).Err()
}

// Subscribe returns the payloads published to topic from now on. The channel
// is closed when ctx is done or the returned close func is called.
func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan []byte, func() error, error) {
	sub := p.client.Subscribe(ctx, topic)
	// wait for the confirmation so nothing published after return is missed
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, err
	}

	out := make(chan []byte, subscriberBuffer)
	msgs := sub.Channel()
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, sub.Close, nil
}
