package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// defaultDialTimeout bounds the TCP connect plus the AMQP handshake.
	// amqp.Dial would otherwise wait 30s on a broker that accepts but
	// never answers.
	defaultDialTimeout = 3 * time.Second
	// defaultRedialBackoff is how long a failed dial short-circuits later
	// publishes so requests queued on the mutex fail fast.
	defaultRedialBackoff = 5 * time.Second
)

// ErrBrokerBackoff is returned while the publisher waits out a failed dial.
var ErrBrokerBackoff = errors.New("broker unavailable, backing off")

// Publisher sends ReservationEvents to a durable queue over one long-lived
// connection.  A broken connection is re-dialed on the next publish.
type Publisher struct {
	url    string
	queue  string
	logger *zap.Logger

	dialTimeout   time.Duration
	redialBackoff time.Duration

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	nextDial  time.Time // zero when a dial may be attempted right away
	lastError error     // cause of the last failed dial, reported during backoff
}

func NewPublisher(url, queue string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		url:           url,
		queue:         queue,
		logger:        logger.Named("publisher"),
		dialTimeout:   defaultDialTimeout,
		redialBackoff: defaultRedialBackoff,
	}
}

// Publish marshals ev and sends it as a persistent message.  One redial
// is attempted when the channel turns out to be dead.  Dialing honours
// ctx and never takes longer than the dial timeout.
func (p *Publisher) Publish(ctx context.Context, ev ReservationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for attempt := 1; ; attempt++ {
		if err = p.ensureLocked(ctx); err == nil {
			err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
			if err == nil {
				return nil
			}
		}
		p.resetLocked()
		// a dial failure or backoff will not heal on an immediate retry
		if attempt == 2 || ctx.Err() != nil || !p.nextDial.IsZero() {
			return err
		}
		p.logger.Debug("publisher.redial", zap.Error(err))
	}
}

func (p *Publisher) ensureLocked(ctx context.Context) error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.resetLocked()
	if !p.nextDial.IsZero() && time.Now().Before(p.nextDial) {
		return fmt.Errorf("%w: %v", ErrBrokerBackoff, p.lastError)
	}
	conn, err := p.dial(ctx)
	if err != nil {
		p.nextDial = time.Now().Add(p.redialBackoff)
		p.lastError = err
		p.logger.Warn("publisher.dial_failed", zap.Error(err), zap.Duration("backoff", p.redialBackoff))
		return fmt.Errorf("dial broker: %w", err)
	}
	p.nextDial, p.lastError = time.Time{}, nil

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	// durable, not auto-deleted, not exclusive, wait for the broker's reply
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare queue %s: %w", p.queue, err)
	}
	p.conn, p.ch = conn, ch
	p.logger.Info("publisher.connected", zap.String("queue", p.queue))
	return nil
}

// dial connects with a timeout of the dial timeout or the time left on
// ctx, whichever is shorter.  The socket deadline also covers the AMQP
// handshake; the client clears it once the connection is open.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	timeout := p.dialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	return amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			d := net.Dialer{Timeout: timeout}
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	})
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close releases the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return err
}
