package registry

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox/payloads"
)

func TestDecoderRegistryDecodesByVersion(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderDelivered, 1, JSON(func(p payloads.OrderDeliveredEvent) (any, error) {
		return p.OrderID.String(), nil
	}))

	input := json.RawMessage(`{"order_id":"6f1c2a4e-7a0b-4d8e-9a55-4c3b1d2e0f11"}`)
	output, err := reg.Decode(enums.EventOrderDelivered, 1, input)
	require.NoError(t, err)
	require.Equal(t, "6f1c2a4e-7a0b-4d8e-9a55-4c3b1d2e0f11", output)

	_, err = reg.Decode(enums.EventOrderDelivered, 2, input)
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestDecoderRegistryReportsMalformedPayload(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderDelivered, 1, JSON(func(p payloads.OrderDeliveredEvent) (any, error) {
		return p, nil
	}))

	_, err := reg.Decode(enums.EventOrderDelivered, 1, json.RawMessage(`{"order_id":`))
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotRegistered))
}

func TestDecoderRegistryIgnoresNilDecoder(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderCreated, 1, nil)

	_, err := reg.Decode(enums.EventOrderCreated, 1, json.RawMessage(`{}`))
	require.ErrorIs(t, err, ErrNotRegistered)
}
