// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ai-live-interpreter-service/internal/observability/metrics"
)

// Publisher publishes pipeline events to separate Kafka topics: display
// updates (high rate, ephemeral) and message upserts (session log).
type Publisher struct {
	writerDisplay *kafka.Writer
	writerMessage *kafka.Writer
	principal     string
	topicDisplay  string
	topicMessage  string
	enabled       bool
	metrics       *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers      []string
	TopicDisplay string
	TopicMessage string
	Principal    string
	Enabled      bool
}

// New creates a new Kafka event publisher with separate topics for display
// updates and message upserts.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:    cfg.Principal,
			topicDisplay: cfg.TopicDisplay,
			topicMessage: cfg.TopicMessage,
			enabled:      false,
			metrics:      m,
		}
	}

	// Longer dial timeouts for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerDisplay := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicDisplay,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerMessage := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicMessage,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicDisplay", cfg.TopicDisplay).
		Str("topicMessage", cfg.TopicMessage).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerDisplay: writerDisplay,
		writerMessage: writerMessage,
		principal:     cfg.Principal,
		topicDisplay:  cfg.TopicDisplay,
		topicMessage:  cfg.TopicMessage,
		enabled:       true,
		metrics:       m,
	}
}

// PublishDisplay publishes a display state update.
func (p *Publisher) PublishDisplay(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerDisplay, p.topicDisplay, "display", key, event)
}

// PublishMessage publishes a message append or quality upgrade.
func (p *Publisher) PublishMessage(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerMessage, p.topicMessage, "message", key, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log.
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerDisplay != nil {
		if e := p.writerDisplay.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing display writer")
			err = e
		}
	}
	if p.writerMessage != nil {
		if e := p.writerMessage.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing message writer")
			err = e
		}
	}
	return err
}
