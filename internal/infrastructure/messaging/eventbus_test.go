package messaging

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gca-hub/gca-staff-hub/internal/domain/shared"
)

func quietSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublish_RoutesByEventType(t *testing.T) {
	bus := NewInMemoryEventBus(quietSlog())

	var granted, all int
	require.NoError(t, bus.Subscribe(shared.EventXPGranted, shared.EventHandlerFunc(func(shared.Event) error {
		granted++
		return nil
	})))
	require.NoError(t, bus.SubscribeAll(shared.EventHandlerFunc(func(shared.Event) error {
		all++
		return nil
	})))

	now := time.Now()
	require.NoError(t, bus.Publish(shared.NewXPGrantedEvent("u1", 1, "message", "", 1, now)))
	require.NoError(t, bus.Publish(shared.NewRecordResetEvent("u1", now)))

	assert.Equal(t, 1, granted)
	assert.Equal(t, 2, all)
}

func TestPublish_HandlerErrorIsSwallowed(t *testing.T) {
	bus := NewInMemoryEventBus(quietSlog())

	var second bool
	require.NoError(t, bus.Subscribe(shared.EventXPGranted, shared.EventHandlerFunc(func(shared.Event) error {
		return errors.New("boom")
	})))
	require.NoError(t, bus.Subscribe(shared.EventXPGranted, shared.EventHandlerFunc(func(shared.Event) error {
		second = true
		return nil
	})))

	err := bus.Publish(shared.NewXPGrantedEvent("u1", 1, "message", "", 1, time.Now()))
	assert.NoError(t, err, "subscriber failures never propagate")
	assert.True(t, second, "remaining handlers still run")
}

func TestClose_RejectsFurtherUse(t *testing.T) {
	bus := NewInMemoryEventBus(quietSlog())
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewRecordsResetEvent(0, time.Now()))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventXPGranted, shared.EventHandlerFunc(func(shared.Event) error { return nil }))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	assert.NoError(t, bus.Close(), "double close is a no-op")
}
