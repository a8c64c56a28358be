package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"chronofeed/pkg/config"
	"chronofeed/pkg/logger"
	"chronofeed/pkg/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange        = "chronofeed.events"
	NotificationQueueName = "chronofeed.notifications"

	consumerPrefetch = 16
)

// Routing keys of the domain events.
const (
	PostCreated    = "post.created"
	CommentCreated = "comment.created"
	UserMentioned  = "user.mentioned"
	UserFollowed   = "user.followed"
)

var priorities = map[string]uint8{
	UserMentioned:  5,
	UserFollowed:   3,
	CommentCreated: 2,
	PostCreated:    1,
}

type Event struct {
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurredAt"`
	Data       map[string]string `json:"data"`
}

// Publisher is what the use cases depend on.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, data map[string]string) error
}

// Handler processes one delivered event. Returning an error requeues it.
type Handler func(ctx context.Context, event Event) error

// ErrDrop marks an event that can never be processed; it is rejected
// instead of requeued.
var ErrDrop = errors.New("drop event")

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, map[string]string) error { return nil }

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		EventsExchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Notification consumers read user-directed events from a priority queue.
	_, err = channel.QueueDeclare(
		NotificationQueueName, // name
		true,                  // durable
		false,                 // delete when unused
		false,                 // exclusive
		false,                 // no-wait
		amqp.Table{"x-max-priority": 10},
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, key := range []string{UserMentioned, UserFollowed, CommentCreated} {
		if err := channel.QueueBind(NotificationQueueName, key, EventsExchange, false, nil); err != nil {
			channel.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to bind queue to %s: %w", key, err)
		}
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) Publish(ctx context.Context, routingKey string, data map[string]string) error {
	body, err := json.Marshal(Event{Type: routingKey, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	c.mu.Lock()
	err = c.channel.PublishWithContext(ctx,
		EventsExchange, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Priority:     priorities[routingKey],
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	c.mu.Unlock()

	if err != nil {
		metrics.EventsPublished.WithLabelValues(routingKey, "error").Inc()
		c.logger.Error("[RABBITMQ] Failed to publish to exchange=%s, routing_key=%s: %v", EventsExchange, routingKey, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.EventsPublished.WithLabelValues(routingKey, "ok").Inc()
	c.logger.Debug("[RABBITMQ] Published %s: %s", routingKey, string(body))
	return nil
}

// Consume delivers events from the notification queue to handler until ctx
// is done. Deliveries are acknowledged only after handler succeeds.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	c.mu.Lock()
	if err := c.channel.Qos(consumerPrefetch, 0, false); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to set prefetch: %w", err)
	}
	msgs, err := c.channel.Consume(
		NotificationQueueName, // queue
		"",                    // consumer
		false,                 // auto-ack
		false,                 // exclusive
		false,                 // no-local
		false,                 // no-wait
		nil,                   // args
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from queue: %s", NotificationQueueName)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.settle(msg, Dispatch(ctx, msg.Body, handler))
		}
	}
}

func (c *Client) settle(msg amqp.Delivery, outcome Outcome) {
	var err error
	switch outcome {
	case Ack:
		err = msg.Ack(false)
	case Requeue:
		err = msg.Nack(false, true)
	default:
		err = msg.Nack(false, false)
	}
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to settle delivery %d: %v", msg.DeliveryTag, err)
	}
}

type Outcome string

const (
	Ack     Outcome = "ack"
	Requeue Outcome = "requeue"
	Reject  Outcome = "reject"
)

// Dispatch decodes body and runs handler, deciding how the delivery is
// settled. Undecodable bodies and ErrDrop are rejected without requeue.
func Dispatch(ctx context.Context, body []byte, handler Handler) Outcome {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil || event.Type == "" {
		metrics.EventsConsumed.WithLabelValues("unknown", string(Reject)).Inc()
		return Reject
	}

	outcome := Ack
	if err := handler(ctx, event); err != nil {
		outcome = Requeue
		if errors.Is(err, ErrDrop) {
			outcome = Reject
		}
	}
	metrics.EventsConsumed.WithLabelValues(event.Type, string(outcome)).Inc()
	return outcome
}
