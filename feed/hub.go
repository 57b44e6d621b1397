package feed

import (
	"context"
	"errors"
	"sync"

	"portal-chat/logger"
	"portal-chat/model"
)

// Hub holds a single upstream subscription for the whole process and fans
// its events out to local subscribers, one per chat session. Publishing goes
// straight to the upstream so every process sees the insert. When the
// upstream ends, every local subscription is closed with it.
type Hub struct {
	upstream Feed
	local    *Memory

	mu   sync.Mutex
	sub  Subscription
	done chan struct{}
}

func NewHub(upstream Feed) *Hub {
	return &Hub{upstream: upstream, local: NewMemory()}
}

// Start opens the upstream subscription. Calling it again is a no-op.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sub != nil {
		return nil
	}
	sub, err := h.upstream.Subscribe(ctx)
	if err != nil {
		return err
	}
	h.sub = sub
	h.done = make(chan struct{})
	go h.pump(sub, h.done)
	return nil
}

func (h *Hub) pump(sub Subscription, done chan struct{}) {
	defer close(done)

	for msg := range sub.Events() {
		if err := h.local.Publish(context.Background(), msg); err != nil {
			if errors.Is(err, ErrClosed) {
				return
			}
			logger.Warn().Err(err).Msg("hub fan-out failed")
		}
	}
	logger.Warn().Msg("upstream feed subscription ended")
	h.local.Close()
}

func (h *Hub) Publish(ctx context.Context, msg model.ChatMessage) error {
	return h.upstream.Publish(ctx, msg)
}

func (h *Hub) Subscribe(ctx context.Context) (Subscription, error) {
	return h.local.Subscribe(ctx)
}

// Subscribers reports the number of local subscriptions.
func (h *Hub) Subscribers() int {
	return h.local.Subscribers()
}

func (h *Hub) Close() error {
	h.mu.Lock()
	sub, done := h.sub, h.done
	h.sub = nil
	h.mu.Unlock()

	var err error
	if sub != nil {
		err = sub.Close()
		<-done
	}
	h.local.Close()
	return err
}
