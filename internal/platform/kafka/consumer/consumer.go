// Package consumer runs a Kafka consumer group loop and hands records to a
// Handler one at a time.
//
// Commit discipline: a record's offset is committed only after its handler
// returns nil. Handlers signal "skip this message" by returning nil and
// "retry later" by returning an error; once a partition sees an error, the
// rest of its records from that poll are left uncommitted so redelivery
// preserves order.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"custos/internal/platform/config"
)

// Message is the transport-neutral view of a consumed record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes one message. Returning nil commits the offset.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer owns the group client and the poll loop.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

// New joins the consumer group for cfg.Topic.
func New(cfg config.KafkaConfig, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		type topicPartition struct {
			topic     string
			partition int32
		}
		failed := make(map[topicPartition]bool)
		var committable []*kgo.Record

		iter := fetches.RecordIter()
		for !iter.Done() {
			rec := iter.Next()
			tp := topicPartition{rec.Topic, rec.Partition}
			if failed[tp] {
				continue
			}

			msg := Message{
				Topic:     rec.Topic,
				Partition: rec.Partition,
				Offset:    rec.Offset,
				Key:       rec.Key,
				Value:     rec.Value,
				Timestamp: rec.Timestamp,
			}
			if err := c.handler.Handle(ctx, &msg); err != nil {
				c.logger.ErrorContext(ctx, "message handling failed, leaving offset uncommitted",
					"topic", rec.Topic,
					"partition", rec.Partition,
					"offset", rec.Offset,
					"error", err,
				)
				failed[tp] = true
				continue
			}
			committable = append(committable, rec)
		}

		if len(committable) > 0 {
			if err := c.client.CommitRecords(ctx, committable...); err != nil {
				c.logger.ErrorContext(ctx, "offset commit failed", "error", err)
			}
		}
	}
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() {
	c.client.Close()
}
