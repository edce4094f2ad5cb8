// Package events hands quote notifications to Kafka for the delivery
// subsystem (email/PDF rendering) to consume. Dispatch is fire-and-
// forget: the core never blocks on, or learns about, delivery.
package events

import (
	"context"
	"encoding/json"

	"github.com/cenkalti/backoff/v4"
	"github.com/quotedesk/backend/internal/quote/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	QuoteStatusChanged     EventType = "quote_status_changed"
	QuoteDocumentRequested EventType = "quote_document_requested"
	QuoteFollowUpRequested EventType = "quote_follow_up_requested"
)

// Notification is the message body published for the delivery
// subsystem.
type Notification struct {
	Type         EventType        `json:"type"`
	Quote        *models.Quote    `json:"quote"`
	NewStatus    models.Status    `json:"new_status,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	Recipient    string           `json:"recipient,omitempty"`
	Products     []models.Product `json:"products,omitempty"`
	FollowUpType string           `json:"follow_up_type,omitempty"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Dispatcher queues notifications on a buffered channel and writes them
// to Kafka from a supervising event loop, retrying transient write
// failures with bounded exponential backoff. When the queue is full the
// notification is dropped with a warning — scheduled notifications are
// best-effort and never back-pressure the business mutation.
type Dispatcher struct {
	writer        KafkaWriter
	notifications chan Notification
	logger        *zap.Logger
	closeChan     chan struct{}
}

// NewDispatcher connects to the brokers, ensures the topic exists, and
// starts the event loop.
func NewDispatcher(brokers []string, logger *zap.Logger, topic string) (*Dispatcher, error) {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	d := &Dispatcher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
			Topic:    topic,
		},
		notifications: make(chan Notification, 1000),
		logger:        logger.Named("notification_dispatcher"),
		closeChan:     make(chan struct{}),
	}

	go d.eventLoop()
	return d, nil
}

// SendStatusChange schedules a status-change notification for the
// quote's customer.
func (d *Dispatcher) SendStatusChange(quote *models.Quote, newStatus models.Status, notes string) {
	d.enqueue(Notification{
		Type:      QuoteStatusChanged,
		Quote:     quote,
		NewStatus: newStatus,
		Notes:     notes,
	})
}

// SendQuoteDocument schedules delivery of the rendered quote document to
// the given recipient.
func (d *Dispatcher) SendQuoteDocument(quote *models.Quote, recipient string, products []models.Product) {
	d.enqueue(Notification{
		Type:      QuoteDocumentRequested,
		Quote:     quote,
		Recipient: recipient,
		Products:  products,
	})
}

// SendFollowUp schedules a follow-up email for the quote's customer.
func (d *Dispatcher) SendFollowUp(quote *models.Quote, followUpType string) {
	d.enqueue(Notification{
		Type:         QuoteFollowUpRequested,
		Quote:        quote,
		FollowUpType: followUpType,
	})
}

func (d *Dispatcher) enqueue(n Notification) {
	select {
	case d.notifications <- n:
	default:
		d.logger.Warn("Notification queue full, dropping notification",
			zap.String("type", string(n.Type)),
			zap.String("quote_id", n.Quote.ID.String()),
		)
	}
}

func (d *Dispatcher) eventLoop() {
	for {
		select {
		case n := <-d.notifications:
			d.send(context.Background(), n)
		case <-d.closeChan:
			return
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, n Notification) {
	value, err := jsonMarshal(n)
	if err != nil {
		d.logger.Error("Failed to serialize notification",
			zap.Error(err),
			zap.String("quote_id", n.Quote.ID.String()),
		)
		return
	}

	msg := kafka.Message{
		Key:   []byte(n.Quote.ID.String()),
		Value: value,
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	err = backoff.Retry(func() error {
		return d.writer.WriteMessages(ctx, msg)
	}, policy)
	if err != nil {
		d.logger.Error("Failed to dispatch notification",
			zap.Error(err),
			zap.String("type", string(n.Type)),
			zap.String("quote_id", n.Quote.ID.String()),
		)
	}
}

func (d *Dispatcher) Close() {
	close(d.closeChan)
	if err := d.writer.Close(); err != nil {
		d.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
