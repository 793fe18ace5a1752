package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"tally/internal/logger"
)

// AMQPClient publishes messages to a durable RabbitMQ queue and consumes them
// in the notifier worker process.
type AMQPClient struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	log          *zap.SugaredLogger
}

// NewAMQPClient dials url and declares the exchange, queue and binding.
func NewAMQPClient(url, exchangeName, queueName string) (*AMQPClient, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &AMQPClient{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		log:          logger.Named("notify.amqp"),
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *AMQPClient) setup() error {
	if err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// The routing key is the queue name.
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// Publish sends msg as a persistent JSON message.
func (c *AMQPClient) Publish(ctx context.Context, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Timestamp,
			Type:         string(msg.Kind),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Notify publishes msg and logs any failure. The request context is not
// used so that a client disconnect cannot abort the publish.
func (c *AMQPClient) Notify(_ context.Context, msg Message) {
	if err := c.Publish(context.Background(), msg); err != nil {
		c.log.Errorw("failed to publish notification",
			"kind", msg.Kind,
			"to", msg.To,
			"error", err,
		)
	}
}

// Consume delivers queued messages to handler until ctx is cancelled.
func (c *AMQPClient) Consume(ctx context.Context, handler func(context.Context, Message) error) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.log.Infow("consuming notifications", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			c.log.Infow("stopping notification consumer", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			handleDelivery(ctx, c.log, delivery, handler)
		}
	}
}

// handleDelivery acks a handled message. A failed message is requeued once
// and dropped on its second failure.
func handleDelivery(ctx context.Context, log *zap.SugaredLogger, delivery amqp091.Delivery, handler func(context.Context, Message) error) {
	msg, err := MessageFromJSON(delivery.Body)
	if err != nil {
		log.Errorw("discarding malformed notification", "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, *msg); err != nil {
		requeue := !delivery.Redelivered
		log.Errorw("failed to handle notification",
			"kind", msg.Kind,
			"to", msg.To,
			"requeue", requeue,
			"error", err,
		)
		_ = delivery.Nack(false, requeue)
		return
	}

	_ = delivery.Ack(false)
}

// Close closes the channel and connection.
func (c *AMQPClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
