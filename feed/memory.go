package feed

import (
	"context"
	"sync"

	"portal-chat/logger"
	"portal-chat/model"
)

const subscriberBuffer = 64

// Memory is an in-process broker. Delivery to a subscriber never blocks the
// publisher: an event is dropped for a subscriber whose buffer is full.
type Memory struct {
	mu     sync.RWMutex
	subs   map[*memorySub]struct{}
	closed bool
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[*memorySub]struct{})}
}

func (m *Memory) Publish(ctx context.Context, msg model.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}
	for sub := range m.subs {
		sub.deliver(msg)
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	sub := &memorySub{owner: m, ch: make(chan model.ChatMessage, subscriberBuffer)}
	m.subs[sub] = struct{}{}
	return sub, nil
}

// Subscribers reports the number of live subscriptions.
func (m *Memory) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

// Close ends every subscription and rejects further use.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	subs := m.subs
	m.subs = make(map[*memorySub]struct{})
	m.mu.Unlock()

	for sub := range subs {
		sub.shut()
	}
	return nil
}

func (m *Memory) remove(sub *memorySub) {
	m.mu.Lock()
	delete(m.subs, sub)
	m.mu.Unlock()
}

type memorySub struct {
	owner *Memory
	ch    chan model.ChatMessage

	mu     sync.Mutex
	closed bool
}

func (s *memorySub) deliver(msg model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	select {
	case s.ch <- msg:
	default:
		logger.Warn().Str("message_id", msg.ID).Msg("feed subscriber is full, dropping event")
	}
}

func (s *memorySub) Events() <-chan model.ChatMessage {
	return s.ch
}

func (s *memorySub) Close() error {
	s.owner.remove(s)
	s.shut()
	return nil
}

func (s *memorySub) shut() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
