package session

import (
	"sync"
	"time"

	"github.com/Lusa1101/FutureMe-Live/internal/fault"
	"github.com/Lusa1101/FutureMe-Live/internal/model/emotion"
	"github.com/Lusa1101/FutureMe-Live/internal/service/speech"
)

// EventType names what changed.
type EventType string

const (
	EventEmotion     EventType = "emotion"
	EventRecognition EventType = "recognition"
	EventSpeech      EventType = "speech"
	EventReply       EventType = "reply"
	EventError       EventType = "error"
)

// Event 是控制器向订阅者广播的消息，字段按 Type 填充。
type Event struct {
	Type    EventType       `json:"type"`
	Emotion *emotion.Sample `json:"emotion,omitempty"`
	State   *speech.Event   `json:"state,omitempty"`
	Reply   *Reply          `json:"reply,omitempty"`
	Error   string          `json:"error,omitempty"`
	Kind    fault.Kind      `json:"kind,omitempty"`
	At      time.Time       `json:"at"`
}

func errorEvent(err error) Event {
	return Event{Type: EventError, Error: fault.Message(err), Kind: fault.KindOf(err), At: time.Now()}
}

const subscriberBuffer = 64

// hub fans events out to subscribers. A slow subscriber misses events rather
// than stalling the controller.
type hub struct {
	mu     sync.RWMutex
	next   int
	subs   map[int]chan Event
	closed bool
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan Event)}
}

func (h *hub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.next
	h.next++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

func (h *hub) publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
