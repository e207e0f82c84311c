package repository

import (
	"context"
	"fmt"

	"PulseFeed/internal/domain/models"
	domrepo "PulseFeed/internal/domain/repository"
	pkgkafka "PulseFeed/pkg/kafka"
)

// KafkaArchive publishes every accepted snapshot to a Kafka topic for
// long-term retention outside the local store's window.
type KafkaArchive struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaArchive(producer *pkgkafka.Producer, topic string) *KafkaArchive {
	return &KafkaArchive{producer: producer, topic: topic}
}

type snapshotEvent struct {
	Asset     string                   `json:"asset"`
	Timestamp int64                    `json:"timestamp"`
	Bounds    models.ProbabilityBounds `json:"bounds"`
}

func (a *KafkaArchive) Archive(ctx context.Context, asset string, snap models.Snapshot) error {
	event := snapshotEvent{Asset: asset, Timestamp: snap.Timestamp, Bounds: snap.Bounds}
	if err := a.producer.Publish(ctx, a.topic, []byte(asset), event); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", asset, err)
	}
	return nil
}

func (a *KafkaArchive) Name() string { return "kafka" }

func (a *KafkaArchive) Close() error { return a.producer.Close() }

var _ domrepo.SnapshotArchive = (*KafkaArchive)(nil)
