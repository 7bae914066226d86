package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRoutesByType(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []EventType
	d.Subscribe(EventQAStatusChanged, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventQAStatusChanged}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventCommentAdded}))

	assert.Equal(t, []EventType{EventQAStatusChanged}, got)
}

func TestDispatcherIsolatesHandlerFailures(t *testing.T) {
	d := NewInMemoryDispatcher()

	var calls int
	d.Subscribe(EventDefectCreated, func(context.Context, Event) error {
		calls++
		return errors.New("boom")
	})
	d.Subscribe(EventDefectCreated, func(context.Context, Event) error {
		calls++
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventDefectCreated}))
	assert.Equal(t, 2, calls)
}
