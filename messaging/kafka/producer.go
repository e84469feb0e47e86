// Package kafka publishes floor events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/periodic-tables/events"
)

// Producer publishes events keyed by reservation id, so every event of one
// reservation lands on the same partition in order.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logrus.Entry
}

// NewProducer connects a synchronous, idempotent producer to brokers.
func NewProducer(brokers []string, topic string, logger *logrus.Entry) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewProducerFromSync(producer, topic, logger), nil
}

// NewProducerFromSync wraps an existing sarama producer.
func NewProducerFromSync(producer sarama.SyncProducer, topic string, logger *logrus.Entry) *Producer {
	return &Producer{producer: producer, topic: topic, logger: logger}
}

func (p *Producer) Publish(_ context.Context, e events.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(strconv.FormatUint(uint64(e.ReservationID), 10)),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: e.At,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"topic": p.topic,
			"event": e.Type,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     p.topic,
		"event":     e.Type,
		"partition": partition,
		"offset":    offset,
	}).Debug("message sent to kafka")
	return nil
}

func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}
