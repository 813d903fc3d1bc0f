package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueueMovementOrder(t *testing.T) {
	q := NewEventQueue(8)

	q.Push(Event{Type: EventMoveAxis, Axis: AxisX, Delta: 1})
	q.Push(Event{Type: EventMoveAxis, Axis: AxisY, Delta: -1})
	q.Push(Event{Type: EventMoveAxis, Axis: AxisZ, Delta: 2})

	events := q.Drain()
	require.Len(t, events, 3)
	assert.Equal(t, AxisX, events[0].Axis)
	assert.Equal(t, AxisY, events[1].Axis)
	assert.Equal(t, AxisZ, events[2].Axis)

	assert.Empty(t, q.Drain())
}

func TestEventQueueResizeCoalesced(t *testing.T) {
	q := NewEventQueue(8)

	q.Push(Event{Type: EventResize, Width: 100, Height: 100})
	q.Push(Event{Type: EventResize, Width: 200, Height: 150})
	q.Push(Event{Type: EventResize, Width: 640, Height: 480})

	events := q.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, EventResize, events[0].Type)
	assert.Equal(t, uint32(640), events[0].Width)
	assert.Equal(t, uint32(480), events[0].Height)
}

func TestEventQueueQuitLatched(t *testing.T) {
	q := NewEventQueue(8)

	q.Push(Event{Type: EventQuit})
	q.Push(Event{Type: EventQuit})

	events := q.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, EventQuit, events[0].Type)

	assert.Empty(t, q.Drain())
}

func TestEventQueueDropsOldestWhenFull(t *testing.T) {
	q := NewEventQueue(2)

	q.Push(Event{Type: EventMoveAxis, Axis: AxisX, Delta: 1})
	q.Push(Event{Type: EventMoveAxis, Axis: AxisX, Delta: 2})
	q.Push(Event{Type: EventMoveAxis, Axis: AxisX, Delta: 3})

	events := q.Drain()
	require.Len(t, events, 2)
	assert.Equal(t, float32(2), events[0].Delta)
	assert.Equal(t, float32(3), events[1].Delta)
	assert.Equal(t, uint64(1), q.Dropped())
}

func TestEventQueueDrainOrdering(t *testing.T) {
	q := NewEventQueue(8)

	q.Push(Event{Type: EventQuit})
	q.Push(Event{Type: EventMoveAxis, Axis: AxisY, Delta: 1})
	q.Push(Event{Type: EventResize, Width: 800, Height: 600})

	events := q.Drain()
	require.Len(t, events, 3)
	assert.Equal(t, EventMoveAxis, events[0].Type)
	assert.Equal(t, EventResize, events[1].Type)
	assert.Equal(t, EventQuit, events[2].Type)
}

func TestEventQueueToggleBlendKeepsOrder(t *testing.T) {
	q := NewEventQueue(8)

	q.Push(Event{Type: EventMoveAxis, Axis: AxisX, Delta: 1})
	q.Push(Event{Type: EventToggleBlend})
	q.Push(Event{Type: EventMoveAxis, Axis: AxisX, Delta: -1})

	events := q.Drain()
	require.Len(t, events, 3)
	assert.Equal(t, EventMoveAxis, events[0].Type)
	assert.Equal(t, EventToggleBlend, events[1].Type)
	assert.Equal(t, EventMoveAxis, events[2].Type)
}
