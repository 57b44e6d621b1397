package feed

import (
	"context"
	"fmt"
	"sync"

	"portal-chat/logger"
	"portal-chat/model"

	"github.com/redis/go-redis/v9"
)

// Redis publishes inserts on a Redis pub/sub channel. Each Subscribe opens
// its own pub/sub connection, so callers normally put a Hub in front.
type Redis struct {
	client  *redis.Client
	channel string
}

func NewRedis(client *redis.Client, channel string) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{client: client, channel: channel}
}

func (r *Redis) Publish(ctx context.Context, msg model.ChatMessage) error {
	data, err := Encode(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context) (Subscription, error) {
	ps := r.client.Subscribe(ctx, r.channel)

	// Wait for the subscription confirmation so no insert published after
	// Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	sub := &redisSub{
		ps:   ps,
		out:  make(chan model.ChatMessage, subscriberBuffer),
		done: make(chan struct{}),
	}
	go sub.pump()
	return sub, nil
}

type redisSub struct {
	ps   *redis.PubSub
	out  chan model.ChatMessage
	done chan struct{}
	once sync.Once
}

func (s *redisSub) pump() {
	defer close(s.out)

	for m := range s.ps.Channel() {
		msg, err := Decode([]byte(m.Payload))
		if err != nil {
			logger.Warn().Err(err).Str("channel", m.Channel).Msg("skipping malformed feed payload")
			continue
		}
		select {
		case s.out <- msg:
		case <-s.done:
			return
		}
	}
}

func (s *redisSub) Events() <-chan model.ChatMessage {
	return s.out
}

func (s *redisSub) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
