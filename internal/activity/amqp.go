package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "qlsach.activity"
	exchangeType    = "topic"
	routingPrefix   = "activity.purchase."
	appID           = "qlsach"
)

var errNacked = errors.New("broker nacked publish")

// amqpChannel is the subset of *amqp.Channel the publisher uses.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Close() error
}

// AMQPOptions tunes delivery.
type AMQPOptions struct {
	Exchange    string
	Encoding    Encoding
	MaxRetries  int
	BaseBackoff time.Duration
}

func (o AMQPOptions) normalized() AMQPOptions {
	if o.Exchange == "" {
		o.Exchange = DefaultExchange
	}
	if o.Encoding == "" {
		o.Encoding = EncodingJSON
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = 100 * time.Millisecond
	}
	return o
}

// AMQPPublisher publishes persistent messages to a durable topic exchange
// with publisher confirms. Routing key is activity.purchase.<bookId>.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel amqpChannel
	opts    AMQPOptions
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewAMQPPublisher dials url, declares the exchange and enables confirms.
func NewAMQPPublisher(url string, opts AMQPOptions) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p, err := NewAMQPPublisherWith(ch, opts)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewAMQPPublisherWith sets up an already open channel.
func NewAMQPPublisherWith(ch amqpChannel, opts AMQPOptions) (*AMQPPublisher, error) {
	opts = opts.normalized()

	if err := ch.ExchangeDeclare(
		opts.Exchange,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	slog.Info("[AMQP] Activity publisher connected", "exchange", opts.Exchange, "encoding", opts.Encoding)
	return &AMQPPublisher{channel: ch, opts: opts, sleep: sleepContext}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, entry v1.ActivityEntry) error {
	body, err := Encode(p.opts.Encoding, entry)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  p.opts.Encoding.contentType(),
		Body:         body,
		DeliveryMode: amqp.Persistent,
		AppId:        appID,
		MessageId:    entry.ID,
		Timestamp:    entry.Timestamp,
	}
	key := routingPrefix + entry.BookID

	backoff := p.opts.BaseBackoff
	for attempt := 0; ; attempt++ {
		err = p.publishOnce(ctx, key, msg)
		if err == nil {
			return nil
		}
		if attempt >= p.opts.MaxRetries {
			return fmt.Errorf("failed to publish activity %s after %d attempts: %w", entry.ID, attempt+1, err)
		}

		slog.Warn("[AMQP] Publish failed, retrying",
			"activity_id", entry.ID,
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err)
		if serr := p.sleep(ctx, backoff); serr != nil {
			return fmt.Errorf("publish activity %s: %w", entry.ID, serr)
		}
		backoff *= 2
	}
}

func (p *AMQPPublisher) publishOnce(ctx context.Context, key string, msg amqp.Publishing) error {
	dc, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, p.opts.Exchange, key, false, false, msg)
	if err != nil {
		return err
	}
	if dc == nil {
		return nil
	}
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return errNacked
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
