package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/smukkama/weathercloud-bridge/internal/record"
)

// Consumer reads the host's archive-record events off Kafka and hands the
// decoded records to a handler. The handler must return quickly: it is
// the delivery queue's Push, which never blocks.
type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer creates a Kafka consumer for the archive topic.
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			MinBytes:    1,    // 1 byte
			MaxBytes:    10e6, // 10MB
			StartOffset: kafka.LastOffset,
		}),
	}
}

// Run consumes until ctx is cancelled. A message that fails to decode is
// logged and committed past; a poison message must never wedge the stream.
func (c *Consumer) Run(ctx context.Context, handle func(*record.Archive)) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		archiveMsg, err := record.DecodeArchiveMessage(msg.Value)
		if err != nil {
			fmt.Printf("Discarding undecodable archive message (partition=%d, offset=%d): %v\n",
				msg.Partition, msg.Offset, err)
		} else {
			handle(archiveMsg.Record())
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Printf("Failed to commit offset: %v\n", err)
		}
	}
}

// Close closes the consumer.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Stats returns consumer statistics.
func (c *Consumer) Stats() kafka.ReaderStats {
	return c.reader.Stats()
}
