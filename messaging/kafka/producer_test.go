package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/periodic-tables/events"
)

func TestProducerPublish(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerFromSync(mockProducer, "periodic-tables.seating", logrus.WithField("component", "kafka-test"))

	event := events.Event{
		Type:          events.TableCleared,
		ReservationID: 42,
		TableID:       3,
		At:            time.Date(2026, 10, 21, 20, 0, 0, 0, time.UTC),
	}

	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got events.Event
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		assert.Equal(t, events.TableCleared, got.Type)
		assert.Equal(t, uint(42), got.ReservationID)
		return nil
	})

	require.NoError(t, producer.Publish(context.Background(), event))
	require.NoError(t, producer.Close())
}

func TestProducerPublishError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerFromSync(mockProducer, "periodic-tables.seating", logrus.WithField("component", "kafka-test"))

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.Publish(context.Background(), events.Event{Type: events.TableSeated, ReservationID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, producer.Close())
}
