package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is the current payload envelope schema.
const EnvelopeVersion = 1

// ActorRef identifies who produced the event.
type ActorRef struct {
	ID   uuid.UUID `json:"id"`
	Role string    `json:"role,omitempty"`
}

// PayloadEnvelope wraps every outbox payload. EventID is the consumer
// deduplication key and is independent of the outbox row id.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    uuid.UUID       `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a stored payload column or a Pub/Sub message body and
// rejects envelopes consumers cannot key on.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var envelope PayloadEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if envelope.Version <= 0 {
		return PayloadEnvelope{}, errors.New("envelope version missing")
	}
	if envelope.EventID == uuid.Nil {
		return PayloadEnvelope{}, errors.New("envelope event id missing")
	}
	return envelope, nil
}

// DecodeData unmarshals the data section into v.
func (e PayloadEnvelope) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return errors.New("envelope data missing")
	}
	return json.Unmarshal(e.Data, v)
}
