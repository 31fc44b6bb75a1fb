package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"bostr/internal/config"
	"bostr/internal/models"
	"bostr/pkg/logger"
)

var (
	writer  *kafka.Writer
	once    sync.Once
	initErr error
)

// getWriter initialises the shared Kafka writer, creating the topic on first
// use if it does not exist yet.
func getWriter(cfg *config.KafkaConfig) (*kafka.Writer, error) {
	once.Do(func() {
		if len(cfg.Brokers) == 0 {
			initErr = fmt.Errorf("no Kafka brokers configured")
			return
		}
		if cfg.Topic == "" {
			initErr = fmt.Errorf("no Kafka topic configured")
			return
		}

		conn, err := kafka.Dial("tcp", cfg.Brokers[0])
		if err != nil {
			initErr = fmt.Errorf("failed to dial Kafka: %w", err)
			return
		}
		defer conn.Close()

		partitions, err := conn.ReadPartitions()
		if err != nil {
			initErr = fmt.Errorf("failed to read Kafka partitions: %w", err)
			return
		}
		exists := false
		for _, p := range partitions {
			if p.Topic == cfg.Topic {
				exists = true
				break
			}
		}
		if !exists {
			err = conn.CreateTopics(kafka.TopicConfig{
				Topic:             cfg.Topic,
				NumPartitions:     1,
				ReplicationFactor: 1,
			})
			if err != nil {
				initErr = fmt.Errorf("failed to create Kafka topic '%s': %w", cfg.Topic, err)
				return
			}
		}

		writer = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
		}
	})

	return writer, initErr
}

// IngestEventPublisher publishes ingestion audit events. Publishing is best
// effort: a broker failure is logged and never fails the ingestion request.
type IngestEventPublisher struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewIngestEventPublisher connects to Kafka and returns a publisher for the
// configured topic.
func NewIngestEventPublisher(cfg *config.KafkaConfig, log *logger.Logger) (*IngestEventPublisher, error) {
	w, err := getWriter(cfg)
	if err != nil {
		return nil, err
	}
	return &IngestEventPublisher{writer: w, log: log}, nil
}

// Publish sends one ingestion event, keyed by its source.
func (p *IngestEventPublisher) Publish(ctx context.Context, event models.IngestEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to encode ingest event")
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(event.Source),
		Value: payload,
	})
	if err != nil {
		p.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to publish ingest event")
	}
}

// Close shuts down the shared Kafka writer.
func Close() error {
	if writer != nil {
		return writer.Close()
	}
	return nil
}
