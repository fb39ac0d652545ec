package registry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

// ErrNotRegistered is returned by Decode when no decoder matches the event.
var ErrNotRegistered = errors.New("decoder not registered")

// Decoder turns the data section of an envelope into a consumer value.
type Decoder func(payload json.RawMessage) (any, error)

type decoderKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry maps (event type, payload version) pairs to decoders.
// Registration happens during wiring; Decode is safe for concurrent use once
// wiring is finished.
type DecoderRegistry struct {
	decoders map[decoderKey]Decoder
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: map[decoderKey]Decoder{}}
}

// Register binds a decoder, replacing any previous one for the same pair.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder Decoder) {
	if decoder == nil {
		return
	}
	r.decoders[decoderKey{eventType: eventType, version: version}] = decoder
}

// Decode runs the matching decoder. Unknown pairs yield an error wrapping
// ErrNotRegistered so consumers can skip them.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (any, error) {
	decoder, ok := r.decoders[decoderKey{eventType: eventType, version: version}]
	if !ok {
		return nil, fmt.Errorf("%w: %s@v%d", ErrNotRegistered, eventType, version)
	}
	return decoder(payload)
}

// JSON adapts a typed handler into a Decoder that unmarshals the payload first.
func JSON[T any](handle func(T) (any, error)) Decoder {
	return func(payload json.RawMessage) (any, error) {
		var value T
		if err := json.Unmarshal(payload, &value); err != nil {
			return nil, fmt.Errorf("decode %T: %w", value, err)
		}
		return handle(value)
	}
}
