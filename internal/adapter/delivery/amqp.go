package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/domain"
)

// SnapshotMessage is the body published for each delivered export.
type SnapshotMessage struct {
	RunID      string        `json:"run_id"`
	Day        string        `json:"day"`
	EntryCount int           `json:"entry_count"`
	CreatedAt  time.Time     `json:"created_at"`
	Files      []MessageFile `json:"files"`
}

// MessageFile carries one export file; Content is base64 in JSON.
type MessageFile struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

// NewSnapshotMessage builds the message for snapshot.
func NewSnapshotMessage(snapshot *domain.ExportSnapshot) SnapshotMessage {
	files := make([]MessageFile, 0, len(snapshot.Files))
	for _, f := range snapshot.Files {
		files = append(files, MessageFile{Name: f.Name, Content: f.Content})
	}

	return SnapshotMessage{
		RunID:      snapshot.RunID,
		Day:        snapshot.Day.String(),
		EntryCount: snapshot.EntryCount,
		CreatedAt:  snapshot.CreatedAt,
		Files:      files,
	}
}

// publisher is the part of *amqp091.Channel used for delivery.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQPDeliverer publishes snapshots to a durable queue for the bot to pick up.
type AMQPDeliverer struct {
	conn         *amqp091.Connection
	channel      publisher
	exchangeName string
	queueName    string
	logger       zerolog.Logger
}

// NewAMQPDeliverer dials url and declares the exchange and queue.
func NewAMQPDeliverer(url, exchangeName, queueName string, logger zerolog.Logger) (*AMQPDeliverer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declare(channel, exchangeName, queueName); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return &AMQPDeliverer{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger,
	}, nil
}

func newAMQPDelivererWithChannel(channel publisher, exchangeName, queueName string, logger zerolog.Logger) *AMQPDeliverer {
	return &AMQPDeliverer{
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger,
	}
}

func declare(channel *amqp091.Channel, exchangeName, queueName string) error {
	if err := channel.ExchangeDeclare(exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := channel.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name on the direct exchange.
	if err := channel.QueueBind(queueName, queueName, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// Deliver implements usecase.SnapshotDeliverer.
func (d *AMQPDeliverer) Deliver(ctx context.Context, snapshot *domain.ExportSnapshot) error {
	body, err := json.Marshal(NewSnapshotMessage(snapshot))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = d.channel.PublishWithContext(ctx, d.exchangeName, d.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    snapshot.RunID,
		Timestamp:    snapshot.CreatedAt,
		Type:         "cashledger.export.snapshot",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	d.logger.Info().
		Str("run_id", snapshot.RunID).
		Str("day", snapshot.Day.String()).
		Str("exchange", d.exchangeName).
		Str("queue", d.queueName).
		Msg("published export snapshot")

	return nil
}

// Close closes the channel and connection.
func (d *AMQPDeliverer) Close() error {
	if ch, ok := d.channel.(*amqp091.Channel); ok && ch != nil {
		ch.Close()
	}
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}
