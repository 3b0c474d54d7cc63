// Package events carries sync lifecycle messages over AMQP: the API server
// and worker publish completion events, and the worker consumes sync
// requests. The broker is optional; callers treat a nil *Client as
// "events disabled".
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	requestQueue string
	eventQueue   string
}

func NewClient(url, exchangeName, requestQueue, eventQueue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		requestQueue: requestQueue,
		eventQueue:   eventQueue,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.requestQueue, c.eventQueue} {
		_, err = c.channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// Routing key matches the queue name on a direct exchange.
		err = c.channel.QueueBind(queue, queue, c.exchangeName, false, nil)
		if err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

// PublishSyncRequest enqueues a sync request for one user.
func (c *Client) PublishSyncRequest(ctx context.Context, userID int64) error {
	msg := NewSyncRequestMessage(userID)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.requestQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published sync request",
		"user_id", userID,
		"exchange", c.exchangeName,
		"queue", c.requestQueue)
	return nil
}

// PublishSyncCompleted emits a completion event for one account's sync.
func (c *Client) PublishSyncCompleted(ctx context.Context, msg *SyncCompletedMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.eventQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published sync completed event",
		"user_id", msg.UserID,
		"bank_account_id", msg.BankAccountID,
		"added", msg.Added,
		"modified", msg.Modified,
		"removed", msg.Removed)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// ConsumeSyncRequests delivers sync requests to handler with manual acks.
// Handler failures are nacked back onto the queue.
func (c *Client) ConsumeSyncRequests(ctx context.Context, handler func(*SyncRequestMessage) error) error {
	msgs, err := c.channel.Consume(
		c.requestQueue, // queue
		"",             // consumer
		false,          // auto-ack (we want manual ack)
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming sync requests", "queue", c.requestQueue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := SyncRequestMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle sync request",
					"error", err,
					"user_id", msg.UserID)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
			slog.InfoContext(ctx, "Processed sync request", "user_id", msg.UserID)
		}
	}
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
