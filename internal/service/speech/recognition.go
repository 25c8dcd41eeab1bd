package speech

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Lusa1101/FutureMe-Live/internal/fault"
	model "github.com/Lusa1101/FutureMe-Live/internal/model/speech"
)

var (
	// ErrRecognitionUnsupported 表示客户端没有语音识别能力。
	ErrRecognitionUnsupported = fault.New(fault.Unsupported,
		"Speech recognition is not supported in your browser. Please use Chrome, Edge, or Safari.")
	// ErrAlreadyListening is returned by Start while a recognition is active.
	ErrAlreadyListening = errors.New("speech recognition is already listening")
)

// RecognitionError is a classified platform recognition error.
type RecognitionError struct {
	Code    model.RecognitionErrorCode
	Kind    fault.Kind
	Message string
}

func (e *RecognitionError) Error() string { return e.Message }

// ClassifyRecognitionError maps a native error code onto a user-facing message.
func ClassifyRecognitionError(code string) *RecognitionError {
	c := model.RecognitionErrorCode(strings.TrimSpace(code))
	switch c {
	case model.ErrCodeNotAllowed:
		return &RecognitionError{c, fault.Authorization, "Microphone access denied. Please allow microphone access and try again."}
	case model.ErrCodeNoSpeech:
		return &RecognitionError{c, fault.NoSignal, "No speech detected. Please try again."}
	case model.ErrCodeAudioCapture:
		return &RecognitionError{c, fault.Unsupported, "No microphone found. Please check your microphone connection."}
	case model.ErrCodeNetwork:
		return &RecognitionError{c, fault.Network, "Network error occurred. Please check your internet connection."}
	case model.ErrCodeUnsupported:
		return &RecognitionError{c, fault.Unsupported, ErrRecognitionUnsupported.Message}
	case model.ErrCodeStartFailed:
		return &RecognitionError{c, fault.Unknown, "Failed to start speech recognition. Please try again."}
	default:
		return &RecognitionError{c, fault.Unknown, fmt.Sprintf("Speech recognition error: %s", code)}
	}
}

// RecognitionSnapshot is a copy of the recognition state.
type RecognitionSnapshot struct {
	Status  model.Status      `json:"status"`
	Interim string            `json:"interim,omitempty"`
	Input   string            `json:"input,omitempty"`
	Error   *RecognitionError `json:"-"`
}

// Recognition 把平台语音识别的回调整理成显式状态机：idle -> listening -> idle。
// Errors park the machine in StatusError; Start is allowed again from there.
type Recognition struct {
	mu        sync.Mutex
	supported bool
	status    model.Status
	interim   string
	input     string
	lastErr   *RecognitionError
	events    *eventQueue
	now       func() time.Time
}

// NewRecognition returns an idle machine. supported reports whether the
// client has a recognition capability at all.
func NewRecognition(supported bool, buffer int) *Recognition {
	return &Recognition{
		supported: supported,
		status:    model.StatusIdle,
		events:    newEventQueue(buffer),
		now:       time.Now,
	}
}

// SetSupported updates the capability flag reported by the client.
func (r *Recognition) SetSupported(supported bool) {
	r.mu.Lock()
	r.supported = supported
	r.mu.Unlock()
}

// Events delivers state changes. The channel is closed by Close.
func (r *Recognition) Events() <-chan Event {
	return r.events.ch
}

// Start moves idle to listening. Failures are reported on the event channel
// as well as returned.
func (r *Recognition) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.supported {
		r.lastErr = ClassifyRecognitionError(string(model.ErrCodeUnsupported))
		r.emitLocked(model.StatusError)
		r.status = model.StatusIdle
		return ErrRecognitionUnsupported
	}
	if r.status == model.StatusListening {
		return ErrAlreadyListening
	}

	r.status = model.StatusListening
	r.interim = ""
	r.lastErr = nil
	r.emitLocked(model.StatusListening)
	return nil
}

// Stop returns to idle and clears interim text. Stopping an idle machine is a no-op.
func (r *Recognition) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == model.StatusIdle {
		return
	}
	r.toIdleLocked()
}

// HandleResult applies one native result event: finals are appended to the
// input, interim text replaces the previous interim text.
func (r *Recognition) HandleResult(fragments []model.Fragment) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != model.StatusListening {
		return
	}

	var interim strings.Builder
	for _, f := range fragments {
		text := strings.TrimSpace(f.Transcript)
		if text == "" {
			continue
		}
		if f.IsFinal {
			if r.input != "" {
				r.input += " "
			}
			r.input += text
			continue
		}
		if interim.Len() > 0 {
			interim.WriteByte(' ')
		}
		interim.WriteString(text)
	}
	r.interim = interim.String()
	r.emitLocked(model.StatusListening)
}

// HandleError records a native error. The machine can be started again afterwards.
func (r *Recognition) HandleError(code string) *RecognitionError {
	r.mu.Lock()
	defer r.mu.Unlock()

	recErr := ClassifyRecognitionError(code)
	r.lastErr = recErr
	r.status = model.StatusError
	r.interim = ""
	r.emitLocked(model.StatusError)
	return recErr
}

// HandleEnd handles the terminal native event.
func (r *Recognition) HandleEnd() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == model.StatusIdle {
		return
	}
	r.toIdleLocked()
}

// TakeInput returns the accumulated final text and clears it.
func (r *Recognition) TakeInput() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	input := r.input
	r.input = ""
	return input
}

// Snapshot returns the current state.
func (r *Recognition) Snapshot() RecognitionSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RecognitionSnapshot{Status: r.status, Interim: r.interim, Input: r.input, Error: r.lastErr}
}

// Close stops the machine and closes the event channel.
func (r *Recognition) Close() {
	r.Stop()
	r.events.close()
}

func (r *Recognition) toIdleLocked() {
	r.status = model.StatusIdle
	r.interim = ""
	r.emitLocked(model.StatusIdle)
}

func (r *Recognition) emitLocked(status model.Status) {
	ev := Event{
		Kind:    EventRecognition,
		Status:  status,
		Interim: r.interim,
		Input:   r.input,
		At:      r.now(),
	}
	if status == model.StatusError && r.lastErr != nil {
		ev.Error = &EventError{Code: string(r.lastErr.Code), Message: r.lastErr.Message}
	}
	r.events.push(ev)
}
