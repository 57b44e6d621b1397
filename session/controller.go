package session

import (
	"context"
	"sync"

	"portal-chat/chat"
	"portal-chat/feed"
	"portal-chat/logger"
)

const eventBuffer = 64

// Sink is the presentation side of a session. Its methods are called from
// the controller's loop only and must not block for long.
type Sink interface {
	Render(State)
	Toast(Toast)
	Notify(Notification)
	RequestNotificationPermission()
}

type Deps struct {
	Store    chat.DataStore
	Uploader chat.Uploader
	Feed     feed.Subscriber
	Previews chat.Previews
	Sink     Sink
}

// Controller runs one chat session. Events are consumed by a single
// goroutine (Run); remote effects run on their own goroutines and report
// back through Dispatch.
type Controller struct {
	userID  string
	deps    Deps
	reducer Reducer

	events chan Event
	done   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	sub    feed.Subscription
	closed bool
}

func New(userID string, deps Deps) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		userID:  userID,
		deps:    deps,
		reducer: Reducer{Policy: deps.Uploader.Policy()},
		events:  make(chan Event, eventBuffer),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		state:   NewState(userID),
	}
}

// Dispatch queues ev. It reports false once the session has ended.
func (c *Controller) Dispatch(ev Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

// Close tears the session down. It does not wait for in-flight work.
func (c *Controller) Close() {
	c.Dispatch(Unmounted{})
}

// Done is closed when Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run mounts the session and processes events until it is unmounted or ctx
// is cancelled.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)
	defer c.unsubscribe()
	defer c.cancel()

	c.handle(Mounted{})
	for {
		select {
		case ev := <-c.events:
			c.handle(ev)
		case <-ctx.Done():
			c.handle(Unmounted{})
		}
		if c.Snapshot().Closed {
			return
		}
	}
}

func (c *Controller) handle(ev Event) {
	queue := []Event{ev}
	for len(queue) > 0 {
		ev, queue = queue[0], queue[1:]

		c.mu.Lock()
		next, effects := c.reducer.Reduce(c.state, ev)
		c.state = next
		c.mu.Unlock()

		for _, eff := range effects {
			if follow := c.run(eff); follow != nil {
				queue = append(queue, follow)
			}
		}
	}
	c.deps.Sink.Render(c.Snapshot())
}

// run executes eff. Local effects may return a follow-up event that is
// reduced before the next queued event.
func (c *Controller) run(eff Effect) Event {
	switch eff := eff.(type) {
	case Subscribe:
		go c.subscribe()
	case Unsubscribe:
		c.unsubscribe()
	case LoadContacts:
		c.remote("list contacts", func(ctx context.Context) Event {
			contacts, err := c.deps.Store.ListContacts(ctx, c.userID)
			return ContactsLoaded{Contacts: contacts, Err: err}
		})
	case LoadConversation:
		c.remote("fetch conversation", func(ctx context.Context) Event {
			msgs, err := c.deps.Store.FetchConversation(ctx, c.userID, eff.ContactID)
			return ConversationLoaded{ContactID: eff.ContactID, Seq: eff.Seq, Messages: msgs, Err: err}
		})
	case MarkRead:
		c.remote("mark read", func(ctx context.Context) Event {
			n, err := c.deps.Store.MarkRead(ctx, c.userID, eff.ContactID)
			return MarkedRead{ContactID: eff.ContactID, Count: n, Err: err}
		})
	case CreatePreview:
		url := c.deps.Previews.Create(c.userID, eff.File)
		return PreviewCreated{FileID: eff.File.ID, URL: url}
	case RevokePreview:
		c.deps.Previews.Revoke(eff.URL)
	case Upload:
		c.remote("upload attachment", func(ctx context.Context) Event {
			att, err := c.deps.Uploader.Upload(ctx, eff.File)
			return AttachmentUploaded{Attachment: att, Err: err}
		})
	case InsertMessage:
		c.remote("send message", func(ctx context.Context) Event {
			msg := eff.Message
			err := c.deps.Store.InsertMessage(ctx, &msg)
			return MessageSent{Message: msg, Err: err}
		})
	case ShowToast:
		c.deps.Sink.Toast(eff.Toast)
	case ShowNotification:
		c.deps.Sink.Notify(eff.Notification)
	case RequestPermission:
		c.deps.Sink.RequestNotificationPermission()
	}
	return nil
}

func (c *Controller) remote(op string, call func(ctx context.Context) Event) {
	go func() {
		ev := call(c.ctx)
		if err := eventErr(ev); err != nil {
			if c.ctx.Err() != nil {
				return
			}
			logger.Warn().Err(err).Str("op", op).Str("user_id", c.userID).Msg("chat session call failed")
		}
		c.Dispatch(ev)
	}()
}

func eventErr(ev Event) error {
	switch ev := ev.(type) {
	case ContactsLoaded:
		return ev.Err
	case ConversationLoaded:
		return ev.Err
	case MarkedRead:
		return ev.Err
	case AttachmentUploaded:
		return ev.Err
	case MessageSent:
		return ev.Err
	}
	return nil
}

func (c *Controller) subscribe() {
	sub, err := c.deps.Feed.Subscribe(c.ctx)
	if err != nil {
		if c.ctx.Err() == nil {
			logger.Warn().Err(err).Str("user_id", c.userID).Msg("subscribe to chat feed")
		}
		c.Dispatch(FeedFailed{Err: err})
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sub.Close()
		return
	}
	c.sub = sub
	c.mu.Unlock()

	if !c.Dispatch(FeedReady{}) {
		return
	}
	for msg := range sub.Events() {
		if !c.Dispatch(FeedInsert{Message: msg}) {
			return
		}
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed || c.ctx.Err() != nil {
		return
	}
	logger.Warn().Str("user_id", c.userID).Msg("chat feed ended")
	c.Dispatch(FeedFailed{Err: feed.ErrClosed})
}

func (c *Controller) unsubscribe() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.closed = true
	c.mu.Unlock()

	if sub != nil {
		if err := sub.Close(); err != nil {
			logger.Warn().Err(err).Str("user_id", c.userID).Msg("close chat feed subscription")
		}
	}
}
