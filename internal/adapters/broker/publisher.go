// Package broker publishes booking events to RabbitMQ.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"eventbook/internal/domain/booking"
)

// BookingConfirmedQueue is the durable queue that receives one message per booking.
const BookingConfirmedQueue = "booking.confirmed"

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// dialFunc opens a connection and a channel on it.
type dialFunc func(url string) (channel, func() error, error)

func dialAMQP(url string) (channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return ch, conn.Close, nil
}

// Publisher keeps one lazily dialled channel and redials when it closes.
type Publisher struct {
	url  string
	dial dialFunc
	now  func() time.Time

	mu        sync.Mutex
	ch        channel
	closeConn func() error
}

// NewPublisher creates a publisher for the broker at url. Nothing is dialled until the first publish.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, dial: dialAMQP, now: time.Now}
}

// Name identifies the notifier in logs.
func (p *Publisher) Name() string { return "rabbitmq" }

// NotifyBookingConfirmed publishes the confirmation as a persistent JSON message.
// PRE: none
// POST: the message was accepted by the broker, or an error is returned and the channel is reset
func (p *Publisher) NotifyBookingConfirmed(ctx context.Context, c booking.Confirmation) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal booking confirmation: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.ensureChannel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", BookingConfirmedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    c.BookingID,
		Timestamp:    p.now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("publish %s: %w", BookingConfirmedQueue, err)
	}
	zap.L().Debug("booking_published", zap.String("booking_id", c.BookingID))
	return nil
}

// ensureChannel returns an open channel, dialling and declaring the queue if needed.
// Caller holds p.mu.
func (p *Publisher) ensureChannel() (channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()

	ch, closeConn, err := p.dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	if _, err := ch.QueueDeclare(BookingConfirmedQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		closeConn()
		return nil, fmt.Errorf("declare %s: %w", BookingConfirmedQueue, err)
	}
	p.ch, p.closeConn = ch, closeConn
	return ch, nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.closeConn != nil {
		_ = p.closeConn()
	}
	p.ch, p.closeConn = nil, nil
}

// Close releases the connection, if one is open.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}
