package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"portal-chat/config"
	"portal-chat/feed"
	"portal-chat/logger"
	"portal-chat/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

const RabbitMQActionHeader string = "x-action"

const ActionInsert = "chat_messages.insert"

// RabbitMQ is a change feed backend on a fanout exchange. Every subscription
// gets its own exclusive, auto-deleted queue bound to the exchange, so each
// process receives every insert.
type RabbitMQ struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string

	mu sync.Mutex
}

// RabbitMQURL builds the broker URL from RABBITMQ_* settings.
func RabbitMQURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		config.Config("RABBITMQ_USER"),
		config.Config("RABBITMQ_PASSWORD"),
		config.ConfigDefault("RABBITMQ_HOST", "localhost"),
		config.ConfigDefault("RABBITMQ_PORT", "5672"),
	)
}

func RabbitMQConnect(url string, exchange string) (*RabbitMQ, error) {
	if exchange == "" {
		exchange = feed.DefaultChannel
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	logger.Info().Msg("connection opened to RabbitMQ server")

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open RabbitMQ channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"fanout", // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	logger.Info().Str("exchange", exchange).Msg("declared RabbitMQ exchange")

	return &RabbitMQ{conn: conn, channel: ch, exchange: exchange}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, msg model.ChatMessage) error {
	data, err := feed.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange, // exchange
		"",         // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Headers: amqp.Table{
				RabbitMQActionHeader: ActionInsert,
			},
			Timestamp: time.Now(),
			Body:      data,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", r.exchange, err)
	}
	return nil
}

func (r *RabbitMQ) Subscribe(ctx context.Context) (feed.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open RabbitMQ channel: %w", err)
	}

	queue, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queue.Name, "", r.exchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("bind queue %s: %w", queue.Name, err)
	}

	msgs, err := ch.Consume(
		queue.Name, // queue
		"",         // consumer
		true,       // auto-ack
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("register consumer: %w", err)
	}
	logger.Info().Str("queue", queue.Name).Msg("subscribed to RabbitMQ exchange")

	sub := &rabbitSub{
		ch:   ch,
		out:  make(chan model.ChatMessage, 64),
		done: make(chan struct{}),
	}
	go sub.pump(msgs)
	return sub, nil
}

func (r *RabbitMQ) Close() error {
	r.channel.Close()
	return r.conn.Close()
}

type rabbitSub struct {
	ch   *amqp.Channel
	out  chan model.ChatMessage
	done chan struct{}
	once sync.Once
}

func (s *rabbitSub) pump(msgs <-chan amqp.Delivery) {
	defer close(s.out)

	for d := range msgs {
		if action, _ := d.Headers[RabbitMQActionHeader].(string); action != ActionInsert {
			continue
		}
		msg, err := feed.Decode(d.Body)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping malformed feed delivery")
			continue
		}
		select {
		case s.out <- msg:
		case <-s.done:
			return
		}
	}
}

func (s *rabbitSub) Events() <-chan model.ChatMessage {
	return s.out
}

func (s *rabbitSub) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ch.Close()
	})
	return err
}
