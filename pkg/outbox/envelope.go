package outbox

import (
	"time"

	"github.com/orchestraops/planning-service/pkg/enums"
)

// ChangeEvent describes one completed entity mutation destined for the bus.
type ChangeEvent struct {
	Kind          enums.EntityKind
	EntityID      int64
	Operation     enums.Operation
	CorrelationID string
	OccurredAt    time.Time
}

// PayloadEnvelope is the stable payload structure stored in outbox_events and
// published to consumers.
type PayloadEnvelope struct {
	Version       int             `json:"version"`
	EventID       string          `json:"eventId"`
	OccurredAt    time.Time       `json:"occurredAt"`
	EntityID      int64           `json:"entityId"`
	CorrelationID string          `json:"correlationId"`
	Operation     enums.Operation `json:"operation"`
}

// EnvelopeVersion is the current payload envelope schema version.
const EnvelopeVersion = 1

// MessageKey returns the stable routing key consumers use to dispatch without
// inspecting the payload (add_concert, edit_rehearsal, ...).
func MessageKey(kind enums.EntityKind, op enums.Operation) string {
	var verb string
	switch op {
	case enums.OperationCreated:
		verb = "add"
	case enums.OperationUpdated:
		verb = "edit"
	case enums.OperationDeleted:
		verb = "delete"
	default:
		return ""
	}
	return verb + "_" + string(kind)
}
