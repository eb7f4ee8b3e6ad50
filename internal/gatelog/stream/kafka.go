// Package stream mirrors gate log records onto a Kafka topic for downstream
// consumers (billing, fleet analytics).
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"gatezero/internal/gatelog"
)

const headerRecordID = "gate_log_id"

// KafkaSink produces each record as JSON keyed by vehicle registration so
// records for one vehicle stay ordered within a partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// Option configures a KafkaSink.
type Option func(*KafkaSink)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(k *KafkaSink) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// NewKafkaSink connects a producer to brokers.
func NewKafkaSink(brokers []string, topic string, opts ...Option) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka sink requires at least one broker")
	}
	if topic == "" {
		return nil, errors.New("kafka sink requires a topic")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	k := &KafkaSink{client: client, topic: topic, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(k)
		}
	}
	return k, nil
}

// EnsureTopic creates the topic if it does not exist yet.
func (k *KafkaSink) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(k.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, k.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", k.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Append produces record and waits for the broker acknowledgement.
func (k *KafkaSink) Append(ctx context.Context, record gatelog.Record) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode gate log %s: %w", record.ID, err)
	}

	msg := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(record.VehicleNo),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: headerRecordID, Value: []byte(record.ID.String())},
		},
		Timestamp: record.Timestamp,
	}
	if err := k.client.ProduceSync(ctx, msg).FirstErr(); err != nil {
		return fmt.Errorf("produce gate log %s: %w", record.ID, err)
	}
	return nil
}

// Ping checks broker connectivity.
func (k *KafkaSink) Ping(ctx context.Context) error {
	return k.client.Ping(ctx)
}

// Close flushes buffered records and closes the client.
func (k *KafkaSink) Close(ctx context.Context) {
	if err := k.client.Flush(ctx); err != nil {
		k.logger.WarnContext(ctx, "kafka flush failed", "topic", k.topic, "error", err)
	}
	k.client.Close()
}
