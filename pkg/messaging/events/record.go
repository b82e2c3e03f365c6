package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/storefront/pkg/messaging"
	"go.opentelemetry.io/otel/propagation"
)

type Operation string

const (
	RecordCreated Operation = "created"
	RecordUpdated Operation = "updated"
	RecordDeleted Operation = "deleted"
)

// RecordChangedEvent announces a committed write in a record store collection.
// Carrier holds the publisher's trace context.
type RecordChangedEvent struct {
	Carrier    propagation.MapCarrier `json:"carrier,omitempty"`
	Collection string                 `json:"collection"`
	RecordID   string                 `json:"record_id"`
	Operation  Operation              `json:"operation"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e RecordChangedEvent) Subject() string {
	return messaging.RecordSubject(e.Collection, string(e.Operation))
}

func (e RecordChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// ParseRecordChanged decodes an event payload.
func ParseRecordChanged(data []byte) (RecordChangedEvent, error) {
	var e RecordChangedEvent
	err := json.Unmarshal(data, &e)
	return e, err
}
