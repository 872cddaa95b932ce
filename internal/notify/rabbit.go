package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// rabbitDialMaxElapsed caps how long start-up waits for the broker.
const rabbitDialMaxElapsed = 30 * time.Second

// ErrRabbitDisconnected is returned by Publish while the broker connection
// is down or after Close.
var ErrRabbitDisconnected = errors.New("rabbitmq publisher not connected")

var dialAMQP = amqp.Dial

// Publisher sends a JSON payload under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// RabbitPublisher publishes JSON events to a RabbitMQ topic exchange. A
// dropped connection or channel is redialed in the background until ctx
// passed to NewRabbitPublisher is done.
type RabbitPublisher struct {
	ctx      context.Context
	url      string
	exchange string
	logger   *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

// NewRabbitPublisher dials RabbitMQ and declares the exchange. Network
// failures are retried with exponential backoff until ctx is done or
// rabbitDialMaxElapsed passes; a malformed URL or a refused login fails
// immediately.
func NewRabbitPublisher(ctx context.Context, url, exchange string, logger *zap.Logger) (*RabbitPublisher, error) {
	if _, err := amqp.ParseURI(url); err != nil {
		return nil, fmt.Errorf("rabbitmq url: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &RabbitPublisher{ctx: ctx, url: url, exchange: exchange, logger: logger}
	if err := p.connect(rabbitDialMaxElapsed); err != nil {
		return nil, err
	}
	return p, nil
}

// Publish serializes the payload to JSON and sends it to the exchange as a
// persistent message. amqp channels are not safe for concurrent publishes.
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return ErrRabbitDisconnected
	}
	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Close terminates the channel and connection and stops reconnecting.
func (p *RabbitPublisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	p.conn, p.channel = nil, nil
	return errors.Join(errs...)
}

func (p *RabbitPublisher) connect(maxElapsed time.Duration) error {
	conn, err := dialWithBackoff(p.ctx, p.url, maxElapsed)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		conn.Close()
		return ErrRabbitDisconnected
	}
	p.conn, p.channel = conn, ch
	p.mu.Unlock()

	go p.watch(connClosed, chClosed)
	return nil
}

// watch waits for the connection or channel to go away and redials unless
// the publisher was closed.
func (p *RabbitPublisher) watch(connClosed, chClosed <-chan *amqp.Error) {
	var reason *amqp.Error
	select {
	case reason = <-connClosed:
	case reason = <-chClosed:
	case <-p.ctx.Done():
		return
	}
	var cause error = ErrRabbitDisconnected
	if reason != nil {
		cause = reason
	}
	p.reconnect(cause)
}

func (p *RabbitPublisher) reconnect(cause error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	old := p.conn
	p.conn, p.channel = nil, nil
	p.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	p.logger.Warn("rabbitmq connection lost; reconnecting", zap.Error(cause))
	if err := p.connect(0); err != nil {
		if !errors.Is(err, ErrRabbitDisconnected) {
			p.logger.Error("rabbitmq reconnect gave up", zap.Error(err))
		}
		return
	}
	p.logger.Info("rabbitmq reconnected", zap.String("exchange", p.exchange))
}

// dialWithBackoff retries network failures. maxElapsed of zero retries
// until ctx is done.
func dialWithBackoff(ctx context.Context, url string, maxElapsed time.Duration) (*amqp.Connection, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed
	return backoff.RetryWithData(func() (*amqp.Connection, error) {
		conn, err := dialAMQP(url)
		if err != nil && !retryableDialError(err) {
			return nil, backoff.Permanent(err)
		}
		return conn, err
	}, backoff.WithContext(bo, ctx))
}

// retryableDialError reports whether err came from the network rather than
// from the broker refusing the handshake.
func retryableDialError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
