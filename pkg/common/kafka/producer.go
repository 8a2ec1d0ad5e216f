package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/config"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(topic string) *Producer {
	cfg := config.Load()
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{writer: writer}
}

// PublishVisitEvent emits one event on the visit bus. Events are keyed by
// patient id so all transitions of one patient land on the same partition.
func (p *Producer) PublishVisitEvent(ctx context.Context, eventType string, patientID uuid.UUID, visit models.Visit, data map[string]interface{}) error {
	event := models.VisitEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		PatientID: patientID,
		VisitID:   visit.VisitID,
		ClinicID:  visit.ClinicID,
		Status:    visit.Status,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal visit event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(patientID.String()),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
			{Key: "clinic-id", Value: []byte(visit.ClinicID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"event_type": eventType,
		}).Error("Failed to publish visit event")
		return err
	}

	logger.Log.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": eventType,
		"topic":      p.writer.Topic,
	}).Debug("Visit event published")

	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
