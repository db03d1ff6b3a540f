package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orchestraops/planning-service/pkg/db/models"
	"github.com/orchestraops/planning-service/pkg/logger"
)

// Service appends change events to the outbox. Emit must run inside the same
// transaction as the entity mutation it records; that boundary is what keeps
// the store write and the notification inseparable.
type Service struct {
	logg *logger.Logger
}

func NewService(logg *logger.Logger) *Service {
	return &Service{logg: logg}
}

func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event ChangeEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !event.Kind.IsValid() {
		return fmt.Errorf("invalid entity kind %q", event.Kind)
	}
	if !event.Operation.IsValid() {
		return fmt.Errorf("invalid operation %q", event.Operation)
	}
	if event.EntityID <= 0 {
		return fmt.Errorf("entity id required for %s event", event.Operation)
	}
	if event.CorrelationID == "" {
		event.CorrelationID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	envelope := PayloadEnvelope{
		Version:       EnvelopeVersion,
		EventID:       uuid.NewString(),
		OccurredAt:    event.OccurredAt,
		EntityID:      event.EntityID,
		CorrelationID: event.CorrelationID,
		Operation:     event.Operation,
	}
	payloadJSON, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	row := models.OutboxEvent{
		EntityKind:    event.Kind,
		EntityID:      event.EntityID,
		Operation:     event.Operation,
		CorrelationID: event.CorrelationID,
		Payload:       json.RawMessage(payloadJSON),
	}
	if err := tx.Create(&row).Error; err != nil {
		return err
	}

	if s.logg != nil {
		fields := map[string]any{
			"event_id":       envelope.EventID,
			"entity_kind":    event.Kind,
			"entity_id":      event.EntityID,
			"operation":      event.Operation,
			"correlation_id": event.CorrelationID,
		}
		logCtx := s.logg.WithFields(ctx, fields)
		s.logg.Info(logCtx, "outbox event queued")
	}
	return nil
}
