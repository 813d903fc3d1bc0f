package core

import (
	"sync"

	"prism/engine/containers"
)

// Axis identifies the world axis a movement event applies to.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

type EventType uint8

const (
	// EventMoveAxis translates the model along one axis by Delta units.
	EventMoveAxis EventType = iota
	// EventResize reports a new framebuffer size.
	EventResize
	// EventQuit requests a clean shutdown on the next frame.
	EventQuit
	// EventToggleBlend flips the texture blend fade target.
	EventToggleBlend
)

type Event struct {
	Type  EventType
	Axis  Axis
	Delta float32
	Width uint32
	// Height of the framebuffer for resize events.
	Height uint32
}

// EventQueue buffers input events between the windowing callbacks and the
// frame loop, which drains it exactly once per frame. Movement events keep
// arrival order; resize events are coalesced so only the most recent size
// survives, and quit is latched.
type EventQueue struct {
	mu       sync.Mutex
	moves    *containers.RingQueue[Event]
	resize   *Event
	quit     bool
	dropped  uint64
}

// NewEventQueue creates a queue holding at most capacity movement events.
// When full, the oldest movement is dropped in favor of newer input.
func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &EventQueue{
		moves: containers.NewRingQueue[Event](capacity),
	}
}

func (q *EventQueue) Push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch ev.Type {
	case EventResize:
		e := ev
		q.resize = &e
	case EventQuit:
		q.quit = true
	default:
		if q.moves.IsFull() {
			if _, err := q.moves.Dequeue(); err == nil {
				q.dropped++
			}
		}
		_ = q.moves.Enqueue(ev)
	}
}

// Drain returns all pending events: movements in arrival order, then the
// coalesced resize (if any), then quit (if requested). The queue is empty
// afterwards except that quit stays latched until consumed.
func (q *EventQueue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Event, 0, q.moves.Len()+2)
	for !q.moves.IsEmpty() {
		ev, err := q.moves.Dequeue()
		if err != nil {
			break
		}
		out = append(out, ev)
	}
	if q.resize != nil {
		out = append(out, *q.resize)
		q.resize = nil
	}
	if q.quit {
		out = append(out, Event{Type: EventQuit})
		q.quit = false
	}
	return out
}

// Dropped reports how many movement events were discarded due to backlog.
func (q *EventQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
