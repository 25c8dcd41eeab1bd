package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Lusa1101/FutureMe-Live/internal/fault"
	model "github.com/Lusa1101/FutureMe-Live/internal/model/speech"
)

// Backends reported in speech events.
const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

// Player plays encoded audio and blocks until playback ends or fails.
type Player interface {
	Play(ctx context.Context, audio []byte) error
	Stop()
}

// SynthesizerOptions tunes a Synthesizer.
type SynthesizerOptions struct {
	EventBuffer int
	Logger      *zap.Logger
}

// Synthesizer 朗读状态机：idle -> speaking -> idle，同一时间最多一个朗读。
// Remote TTS is tried first; any remote failure falls back to the local engine.
type Synthesizer struct {
	remote RemoteTTS
	player Player
	local  LocalEngine
	logger *zap.Logger
	events *eventQueue

	mu      sync.Mutex
	status  model.Status
	backend string
	cancel  context.CancelFunc
	gen     uint64
	// done 在最近一次 Speak 完全退出后关闭
	done chan struct{}
}

// NewSynthesizer wires the backends. remote or player may be nil, in which
// case every utterance goes to local.
func NewSynthesizer(remote RemoteTTS, player Player, local LocalEngine, opts SynthesizerOptions) *Synthesizer {
	if local == nil {
		local = NopEngine{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Synthesizer{
		remote: remote,
		player: player,
		local:  local,
		logger: opts.Logger,
		events: newEventQueue(opts.EventBuffer),
		status: model.StatusIdle,
	}
}

// Events delivers speaking/idle transitions and failures.
func (s *Synthesizer) Events() <-chan Event {
	return s.events.ch
}

// Status returns the current state.
func (s *Synthesizer) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Speak stops any active utterance and speaks text. It returns when playback
// ends, fails, or is stopped; a stop is not an error.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("nothing to speak")
	}

	ctx, cancel := context.WithCancel(ctx)
	mine := make(chan struct{})
	defer close(mine)

	s.mu.Lock()
	prev := s.done
	var prevCancel context.CancelFunc
	prevBackend := ""
	if s.status == model.StatusSpeaking {
		prevCancel, prevBackend = s.cancel, s.backend
		s.emitLocked(model.StatusIdle, nil)
	}
	s.gen++
	gen := s.gen
	s.done = mine
	s.cancel = cancel
	s.status = model.StatusSpeaking
	s.backend = ""
	s.emitLocked(model.StatusSpeaking, nil)
	s.mu.Unlock()

	s.halt(prevCancel, prevBackend)
	if prev != nil {
		// 上一次朗读退出之前不启动新的后端
		select {
		case <-prev:
		case <-ctx.Done():
		}
	}

	var err error
	if ctx.Err() == nil {
		err = s.speak(ctx, gen, text)
	}
	if ctx.Err() != nil {
		// 被 Stop 或调用方取消，不算失败
		err = nil
	}
	s.finish(gen, err)
	cancel()
	return err
}

func (s *Synthesizer) speak(ctx context.Context, gen uint64, text string) error {
	if s.remote != nil && s.player != nil {
		audio, err := s.remote.Synthesize(ctx, text)
		if err == nil {
			if !s.setBackend(gen, BackendRemote) {
				return nil
			}
			return s.player.Play(ctx, audio)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Info("remote speech unavailable, falling back to local synthesis",
			zap.String("reason", fault.Message(err)))
	}

	if !s.local.Available() {
		return ErrLocalUnavailable
	}
	if !s.setBackend(gen, BackendLocal) {
		return nil
	}
	return s.local.Speak(ctx, NewUtterance(text, s.local.Voices()))
}

// setBackend records the active backend; false means the utterance was stopped meanwhile.
func (s *Synthesizer) setBackend(gen uint64, backend string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.backend = backend
	s.emitLocked(model.StatusSpeaking, nil)
	return true
}

func (s *Synthesizer) finish(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// 已被 Stop 或新的 Speak 接管
		return
	}
	if err != nil {
		s.emitLocked(model.StatusError, err)
	}
	s.status = model.StatusIdle
	s.backend = ""
	s.cancel = nil
	s.emitLocked(model.StatusIdle, nil)
}

// Stop cancels whichever backend is active. Stopping while idle is a no-op.
func (s *Synthesizer) Stop() {
	s.mu.Lock()
	if s.status != model.StatusSpeaking {
		s.mu.Unlock()
		return
	}
	backend := s.backend
	cancel := s.cancel
	s.gen++
	s.status = model.StatusIdle
	s.backend = ""
	s.cancel = nil
	s.emitLocked(model.StatusIdle, nil)
	s.mu.Unlock()

	s.halt(cancel, backend)
}

func (s *Synthesizer) halt(cancel context.CancelFunc, backend string) {
	if cancel != nil {
		cancel()
	}
	switch backend {
	case BackendRemote:
		s.player.Stop()
	case BackendLocal:
		s.local.Cancel()
	}
}

// Close stops speaking and closes the event channel.
func (s *Synthesizer) Close() {
	s.Stop()
	s.events.close()
}

func (s *Synthesizer) emitLocked(status model.Status, err error) {
	ev := Event{Kind: EventSpeech, Status: status, Backend: s.backend, At: time.Now()}
	if err != nil {
		code := string(fault.KindOf(err))
		ev.Error = &EventError{Code: code, Message: fault.Message(err)}
	}
	s.events.push(ev)
}
