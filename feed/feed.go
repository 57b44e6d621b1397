// Package feed carries insert events of chat_messages from the writer to
// every live chat session.
package feed

import (
	"context"
	"encoding/json"
	"errors"

	"portal-chat/model"
)

// DefaultChannel names the pub/sub channel or exchange used by the network
// backends.
const DefaultChannel = "chat_messages:insert"

var ErrClosed = errors.New("feed closed")

type Publisher interface {
	Publish(ctx context.Context, msg model.ChatMessage) error
}

type Subscriber interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

type Feed interface {
	Publisher
	Subscriber
}

// Subscription is one listener on the feed. Events is closed once the
// subscription is closed or its backend goes away. Close is idempotent.
type Subscription interface {
	Events() <-chan model.ChatMessage
	Close() error
}

// Encode and Decode fix the wire form shared by the network backends: the
// inserted row as JSON, without the preloaded sender.
func Encode(msg model.ChatMessage) ([]byte, error) {
	msg.Sender = nil
	return json.Marshal(msg)
}

func Decode(data []byte) (model.ChatMessage, error) {
	var msg model.ChatMessage
	err := json.Unmarshal(data, &msg)
	return msg, err
}
