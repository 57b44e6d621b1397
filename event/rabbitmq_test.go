package event

import (
	"testing"

	"portal-chat/feed"
	"portal-chat/logger"
	"portal-chat/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRabbitSubPumpFiltersDeliveries(t *testing.T) {
	logger.Nop()

	body, err := feed.Encode(model.ChatMessage{ID: "m1", SenderID: "a", ReceiverID: "b", Content: "hi"})
	require.NoError(t, err)

	deliveries := make(chan amqp.Delivery, 4)
	deliveries <- amqp.Delivery{Headers: amqp.Table{RabbitMQActionHeader: "chat_messages.update"}, Body: body}
	deliveries <- amqp.Delivery{Headers: amqp.Table{RabbitMQActionHeader: ActionInsert}, Body: []byte("{broken")}
	deliveries <- amqp.Delivery{Headers: amqp.Table{RabbitMQActionHeader: ActionInsert}, Body: body}
	close(deliveries)

	sub := &rabbitSub{out: make(chan model.ChatMessage, 4), done: make(chan struct{})}
	sub.pump(deliveries)

	var got []model.ChatMessage
	for msg := range sub.Events() {
		got = append(got, msg)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "hi", got[0].Content)
}
