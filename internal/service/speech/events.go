package speech

import (
	"sync"
	"time"

	model "github.com/Lusa1101/FutureMe-Live/internal/model/speech"
)

// EventKind distinguishes the two state machines.
type EventKind string

const (
	EventRecognition EventKind = "recognition"
	EventSpeech      EventKind = "speech"
)

// Event 是状态机对外广播的状态变化。
type Event struct {
	Kind    EventKind    `json:"kind"`
	Status  model.Status `json:"status"`
	Interim string       `json:"interim,omitempty"`
	Input   string       `json:"input,omitempty"`
	Backend string       `json:"backend,omitempty"`
	Error   *EventError  `json:"error,omitempty"`
	At      time.Time    `json:"at"`
}

// EventError is the user-facing part of a failure.
type EventError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const defaultEventBuffer = 32

// eventQueue 是有界队列，满时丢弃最旧的事件，保证状态机永不阻塞。
type eventQueue struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func newEventQueue(size int) *eventQueue {
	if size <= 0 {
		size = defaultEventBuffer
	}
	return &eventQueue{ch: make(chan Event, size)}
}

func (q *eventQueue) push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	for {
		select {
		case q.ch <- ev:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
