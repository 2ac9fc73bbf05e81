package source

import (
	"context"
	"encoding/json"
	"fmt"

	"air_quality_monitor/internal/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel defines the *amqp.Channel subset the feed uses.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
	Close() error
}

var _ AMQPChannel = (*amqp.Channel)(nil)

// AMQPFeed consumes full record sets published to a fanout exchange named
// after the path. Each message body is the JSON object of all records.
// Nothing is delivered until the first publish after subscribing.
type AMQPFeed struct {
	open func() (AMQPChannel, error)
	log  *logger.Logger
}

// Ensure implementation of Feed interface at compile time.
var _ Feed = (*AMQPFeed)(nil)

func NewAMQPFeed(conn *amqp.Connection, log *logger.Logger) *AMQPFeed {
	return NewAMQPFeedFrom(func() (AMQPChannel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}, log)
}

// NewAMQPFeedFrom builds a feed that opens one channel per subscription.
func NewAMQPFeedFrom(open func() (AMQPChannel, error), log *logger.Logger) *AMQPFeed {
	return &AMQPFeed{open: open, log: log}
}

// Subscribe binds an exclusive auto-delete queue to the exchange.
func (f *AMQPFeed) Subscribe(ctx context.Context, path string, fn func(map[string]json.RawMessage)) (func() error, error) {
	ch, err := f.open()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		path,
		"fanout",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", path, err)
	}

	q, err := ch.QueueDeclare(
		"",
		false,
		true, // auto-delete
		true, // exclusive
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", path, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("bind queue to %q: %w", path, err)
	}

	tag := "aqm-" + uuid.NewString()
	msgs, err := ch.Consume(
		q.Name,
		tag,
		true, // auto-ack
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume %q: %w", q.Name, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-subCtx.Done():
				// the delivery channel closes with the amqp channel
				for range msgs {
				}
				return
			case msg, ok := <-msgs:
				if !ok {
					if f.log != nil {
						f.log.Infow("amqp_feed_channel_closed", "path", path)
					}
					return
				}
				set, err := decodeSetBody(msg.Body)
				if err != nil {
					if f.log != nil {
						f.log.Warnw("amqp_feed_bad_message", "path", path, "err", err)
					}
					continue
				}
				if subCtx.Err() != nil {
					return
				}
				fn(set)
			}
		}
	}()

	return func() error {
		cancel()
		cerr := ch.Cancel(tag, false)
		if err := ch.Close(); err != nil && cerr == nil {
			cerr = err
		}
		<-done
		return cerr
	}, nil
}

// decodeSetBody reads a full record set. A JSON null is the empty set.
func decodeSetBody(body []byte) (map[string]json.RawMessage, error) {
	var set map[string]json.RawMessage
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("decode record set: %w", err)
	}
	if set == nil {
		set = map[string]json.RawMessage{}
	}
	return set, nil
}
