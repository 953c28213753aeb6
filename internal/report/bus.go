package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/srimandarbha/conntracker/internal/snapshot"
)

const publishTimeout = 5 * time.Second

// BusReporter publishes one message per port entry, keyed host:port so all
// observations for a given port land on the same partition.
type BusReporter struct {
	writer busWriter
}

// busWriter is the part of kafka.Writer the reporter uses; tests swap in
// a recording fake.
type busWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewBusReporter(broker, topic string) *BusReporter {
	return &BusReporter{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 100 * time.Millisecond,
		},
	}
}

// Report sends every port entry independently: one entry's failure is
// logged and accounted for, the remaining entries are still attempted.
func (r *BusReporter) Report(snap snapshot.Snapshot) error {
	var errs []error
	for _, entry := range snap.Entries() {
		if err := r.publish(entry); err != nil {
			log.Warn("publish failed", "port", entry.Port, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *BusReporter) publish(entry snapshot.BusEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode port %d: %w", entry.Port, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(snapshot.Key(entry.Host, entry.Port)),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish port %d: %w", entry.Port, err)
	}
	return nil
}

func (r *BusReporter) Close() error { return r.writer.Close() }
