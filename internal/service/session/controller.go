// Package session drives one live conversation: the emotion sampler, speech
// recognition and synthesis, and the single in-flight chat turn.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Lusa1101/FutureMe-Live/internal/model/chat"
	emotionmodel "github.com/Lusa1101/FutureMe-Live/internal/model/emotion"
	"github.com/Lusa1101/FutureMe-Live/internal/model/persona"
	speechmodel "github.com/Lusa1101/FutureMe-Live/internal/model/speech"
	"github.com/Lusa1101/FutureMe-Live/internal/service/ai"
	"github.com/Lusa1101/FutureMe-Live/internal/service/emotion"
	"github.com/Lusa1101/FutureMe-Live/internal/service/speech"
)

var (
	// ErrBusy is returned by Send while the previous turn is still pending.
	ErrBusy = errors.New("a response is already being generated")
	// ErrEmptyMessage rejects blank input before any call is made.
	ErrEmptyMessage = errors.New("message content is required")
	// ErrClosed is returned once the controller has been torn down.
	ErrClosed = errors.New("session closed")

	errNoClient = errors.New("no live client attached")
)

// Store is the slice of the chat store a controller needs.
type Store interface {
	GetSession(ctx context.Context, sessionID string) (chat.Session, error)
	SaveMessage(ctx context.Context, message chat.Message) (chat.Message, error)
	LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error)
	RecordEmotion(ctx context.Context, sessionID string, entry chat.TimelineEntry) error
}

// Reply is the outcome of one Send.
type Reply struct {
	User      chat.Message `json:"user"`
	Assistant chat.Message `json:"assistant"`
	Mood      string       `json:"mood"`
	Offline   bool         `json:"offline,omitempty"`
}

// Capabilities 描述客户端上报的语音能力。
type Capabilities struct {
	Recognition bool                `json:"recognition"`
	Synthesis   bool                `json:"synthesis"`
	Voices      []speechmodel.Voice `json:"voices,omitempty"`
}

// Options wires a controller.
type Options struct {
	SessionID      string
	Persona        persona.Persona
	Store          Store
	Responder      ai.Responder
	Detector       emotion.Detector
	Remote         speech.RemoteTTS
	SampleInterval time.Duration
	Logger         *zap.Logger
}

// Controller owns the per-session state machines.
type Controller struct {
	id        string
	persona   persona.Persona
	store     Store
	responder ai.Responder
	logger    *zap.Logger

	frames      *emotion.FrameBuffer
	adapter     *emotion.Adapter
	recognition *speech.Recognition
	synth       *speech.Synthesizer
	bridge      *speech.ClientBridge
	events      *hub

	busy atomic.Bool

	mu       sync.Mutex
	client   func(speech.Command) error
	clientID uint64
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController builds a controller. Call Start to begin sampling.
func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		id:          opts.SessionID,
		persona:     opts.Persona,
		store:       opts.Store,
		responder:   opts.Responder,
		logger:      opts.Logger.With(zap.String("session_id", opts.SessionID)),
		frames:      &emotion.FrameBuffer{},
		recognition: speech.NewRecognition(false, 0),
		events:      newHub(),
		ctx:         ctx,
		cancel:      cancel,
	}
	c.bridge = speech.NewClientBridge(c.sendCommand)
	c.adapter = emotion.NewAdapter(opts.Detector, c.frames, emotion.Config{
		Interval: opts.SampleInterval,
		Logger:   c.logger,
		OnSample: func(s emotionmodel.Sample) {
			c.events.publish(Event{Type: EventEmotion, Emotion: &s})
		},
	})

	remote := opts.Remote
	if cfg, ok := remote.(interface{ Configured() bool }); ok && !cfg.Configured() {
		remote = nil
	}
	c.synth = speech.NewSynthesizer(remote, c.bridge, c.bridge, speech.SynthesizerOptions{Logger: c.logger})
	return c
}

// Start loads the expression model and begins sampling in the background.
func (c *Controller) Start() {
	c.wg.Add(3)
	go c.relay(EventRecognition, c.recognition.Events())
	go c.relay(EventSpeech, c.synth.Events())
	go func() {
		defer c.wg.Done()
		if err := c.adapter.Load(c.ctx); err != nil {
			c.logger.Info("emotion detection unavailable, manual selection enabled")
			return
		}
		c.adapter.Run(c.ctx)
	}()
}

func (c *Controller) relay(kind EventType, ch <-chan speech.Event) {
	defer c.wg.Done()
	for ev := range ch {
		ev := ev
		c.events.publish(Event{Type: kind, State: &ev, At: ev.At})
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Persona returns the persona the session talks to.
func (c *Controller) Persona() persona.Persona { return c.persona }

// Busy reports whether a chat turn is pending.
func (c *Controller) Busy() bool { return c.busy.Load() }

// Subscribe returns a stream of controller events and a cancel function.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.events.subscribe()
}

// Send runs one chat turn. The mood is the session's explicit mood, or the
// current emotion label when none is set.
func (c *Controller) Send(ctx context.Context, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}
	if c.isClosed() {
		return Reply{}, ErrClosed
	}
	if !c.busy.CompareAndSwap(false, true) {
		return Reply{}, ErrBusy
	}
	defer c.busy.Store(false)

	reply, err := c.turn(ctx, text)
	if err != nil {
		c.events.publish(errorEvent(err))
		return Reply{}, err
	}
	c.events.publish(Event{Type: EventReply, Reply: &reply})
	return reply, nil
}

func (c *Controller) turn(ctx context.Context, text string) (Reply, error) {
	session, err := c.store.GetSession(ctx, c.id)
	if err != nil {
		return Reply{}, err
	}
	current := c.adapter.Current()
	mood := session.Mood
	if mood == "" {
		mood = string(current.Label)
	}

	history, err := c.store.LoadTranscript(ctx, c.id)
	if err != nil {
		return Reply{}, err
	}

	user, err := c.store.SaveMessage(ctx, chat.Message{
		SessionID: c.id,
		Role:      chat.RoleUser,
		Content:   text,
		Emotion:   string(current.Label),
	})
	if err != nil {
		return Reply{}, err
	}
	if err := c.store.RecordEmotion(ctx, c.id, chat.TimelineEntry{
		At:         user.CreatedAt,
		Emotion:    string(current.Label),
		Confidence: current.Confidence,
		Snippet:    text,
	}); err != nil {
		c.logger.Warn("record emotion failed", zap.Error(err))
	}

	out, err := c.responder.Respond(ctx, ai.ChatRequest{
		Persona: c.persona,
		Mood:    mood,
		Emotion: string(current.Label),
		Message: text,
		History: chat.Turns(history),
	})
	if err != nil {
		return Reply{}, err
	}

	assistant, err := c.store.SaveMessage(ctx, chat.Message{
		SessionID: c.id,
		Role:      chat.RoleAssistant,
		Content:   out.Text,
	})
	if err != nil {
		return Reply{}, err
	}

	return Reply{User: user, Assistant: assistant, Mood: mood, Offline: out.Offline}, nil
}

// Speak reads text aloud and blocks until it finishes or is stopped.
func (c *Controller) Speak(ctx context.Context, text string) error {
	if c.isClosed() {
		return ErrClosed
	}
	return c.synth.Speak(ctx, text)
}

// StopSpeaking 立即停止当前朗读，空闲时无操作。
func (c *Controller) StopSpeaking() {
	c.synth.Stop()
}

// StartListening begins recognition.
func (c *Controller) StartListening() error {
	if c.isClosed() {
		return ErrClosed
	}
	return c.recognition.Start()
}

// StopListening ends recognition; safe to call repeatedly.
func (c *Controller) StopListening() {
	c.recognition.Stop()
}

// HandleTranscript feeds recognition results from the client.
func (c *Controller) HandleTranscript(fragments []speechmodel.Fragment) {
	c.recognition.HandleResult(fragments)
}

// HandleRecognitionError feeds a platform recognition error code.
func (c *Controller) HandleRecognitionError(code string) *speech.RecognitionError {
	return c.recognition.HandleError(code)
}

// HandleRecognitionEnd marks the platform session as finished.
func (c *Controller) HandleRecognitionEnd() {
	c.recognition.HandleEnd()
}

// TakeInput returns and clears the accumulated final transcript.
func (c *Controller) TakeInput() string {
	return c.recognition.TakeInput()
}

// Recognition returns a snapshot of the recognition state.
func (c *Controller) Recognition() speech.RecognitionSnapshot {
	return c.recognition.Snapshot()
}

// PushFrame stores the newest camera frame for the sampler.
func (c *Controller) PushFrame(frame emotion.Frame) {
	if frame.CapturedAt.IsZero() {
		frame.CapturedAt = time.Now()
	}
	c.frames.Put(frame)
}

// SetEmotion selects the emotion by hand when detection is unavailable.
func (c *Controller) SetEmotion(label emotionmodel.Label) (emotionmodel.Sample, error) {
	return c.adapter.Inject(label)
}

// Emotion returns the current emotion sample.
func (c *Controller) Emotion() emotionmodel.Sample {
	return c.adapter.Current()
}

// EmotionMode reports whether emotion comes from the detector or by hand.
func (c *Controller) EmotionMode() emotion.Mode {
	return c.adapter.Mode()
}

// SetCapabilities records what the attached client can do.
func (c *Controller) SetCapabilities(caps Capabilities) {
	c.recognition.SetSupported(caps.Recognition)
	c.bridge.SetCapabilities(caps.Synthesis, caps.Voices)
}

// Attach routes playback commands to a live client. The returned function
// detaches it and stops anything it was playing.
func (c *Controller) Attach(send func(speech.Command) error) func() {
	c.mu.Lock()
	c.clientID++
	id := c.clientID
	c.client = send
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		if c.clientID != id {
			c.mu.Unlock()
			return
		}
		c.client = nil
		c.mu.Unlock()

		c.synth.Stop()
		c.recognition.Stop()
		c.SetCapabilities(Capabilities{})
	}
}

// Complete resolves a playback command the client finished.
func (c *Controller) Complete(commandID string, err error) bool {
	return c.bridge.Complete(commandID, err)
}

func (c *Controller) sendCommand(cmd speech.Command) error {
	c.mu.Lock()
	send := c.client
	c.mu.Unlock()
	if send == nil {
		return errNoClient
	}
	return send(cmd)
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close tears the controller down. Subscribers see their channels closed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.synth.Close()
	c.recognition.Close()
	c.bridge.Close()
	c.wg.Wait()
	c.events.close()
	c.logger.Info("session controller closed")
}
