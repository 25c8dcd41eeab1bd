package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lusa1101/FutureMe-Live/internal/model/chat"
	emotionmodel "github.com/Lusa1101/FutureMe-Live/internal/model/emotion"
	"github.com/Lusa1101/FutureMe-Live/internal/model/persona"
	speechmodel "github.com/Lusa1101/FutureMe-Live/internal/model/speech"
	"github.com/Lusa1101/FutureMe-Live/internal/service/ai"
	chatsvc "github.com/Lusa1101/FutureMe-Live/internal/service/chat"
	"github.com/Lusa1101/FutureMe-Live/internal/service/emotion"
	"github.com/Lusa1101/FutureMe-Live/internal/service/speech"
)

type fakeResponder struct {
	mu      sync.Mutex
	reqs    []ai.ChatRequest
	release chan struct{}
	err     error
}

func (f *fakeResponder) Respond(ctx context.Context, req ai.ChatRequest) (ai.Reply, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ai.Reply{}, ctx.Err()
		}
	}
	if f.err != nil {
		return ai.Reply{}, f.err
	}
	return ai.Reply{Text: "echo: " + req.Message}, nil
}

func (f *fakeResponder) requests() []ai.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.ChatRequest(nil), f.reqs...)
}

type failingDetector struct{}

func (failingDetector) Load(context.Context) error { return errors.New("model missing") }
func (failingDetector) Detect(context.Context, emotion.Frame) (emotionmodel.Expressions, bool, error) {
	return nil, false, errors.New("unreachable")
}

func newTestController(t *testing.T, mood string, responder ai.Responder, detector emotion.Detector) (*Controller, *chatsvc.Service) {
	t.Helper()
	store := chatsvc.NewService()
	s, err := store.CreateSession(context.Background(), "futureme", mood)
	require.NoError(t, err)

	c := NewController(Options{
		SessionID:      s.ID,
		Persona:        persona.Persona{ID: "futureme", Name: "FutureMe"},
		Store:          store,
		Responder:      responder,
		Detector:       detector,
		SampleInterval: 10 * time.Millisecond,
	})
	c.Start()
	t.Cleanup(c.Close)
	return c, store
}

func TestSendFallsBackToCurrentEmotion(t *testing.T) {
	responder := &fakeResponder{}
	c, store := newTestController(t, "", responder, failingDetector{})

	require.Eventually(t, func() bool { return c.EmotionMode() == emotion.ModeManual }, time.Second, 5*time.Millisecond)
	_, err := c.SetEmotion(emotionmodel.Happy)
	require.NoError(t, err)

	reply, err := c.Send(context.Background(), "  I got promoted  ")
	require.NoError(t, err)
	assert.Equal(t, "happy", reply.Mood)
	assert.Equal(t, "echo: I got promoted", reply.Assistant.Content)
	assert.Equal(t, chat.RoleUser, reply.User.Role)
	assert.Equal(t, "happy", reply.User.Emotion)

	reqs := responder.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "happy", reqs[0].Mood)
	assert.Empty(t, reqs[0].History)

	transcript, err := store.LoadTranscript(context.Background(), c.ID())
	require.NoError(t, err)
	assert.Len(t, transcript, 2)

	timeline, err := store.Timeline(context.Background(), c.ID())
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, "happy", timeline[0].Emotion)
	assert.Equal(t, 1.0, timeline[0].Confidence)
}

func TestSendPrefersSessionMood(t *testing.T) {
	responder := &fakeResponder{}
	c, _ := newTestController(t, "sad", responder, failingDetector{})

	_, err := c.Send(context.Background(), "first")
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "second")
	require.NoError(t, err)

	reqs := responder.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "sad", reqs[1].Mood)
	assert.Equal(t, []chat.Turn{
		{Role: chat.RoleUser, Content: "first"},
		{Role: chat.RoleAssistant, Content: "echo: first"},
	}, reqs[1].History)
}

func TestSendRejectsEmptyAndBusy(t *testing.T) {
	responder := &fakeResponder{release: make(chan struct{})}
	c, _ := newTestController(t, "", responder, failingDetector{})

	_, err := c.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), "hello")
		done <- err
	}()
	require.Eventually(t, c.Busy, time.Second, 5*time.Millisecond)

	_, err = c.Send(context.Background(), "again")
	assert.ErrorIs(t, err, ErrBusy)

	close(responder.release)
	require.NoError(t, <-done)
	assert.False(t, c.Busy())
	assert.Len(t, responder.requests(), 1)
}

func TestSendFailurePublishesError(t *testing.T) {
	responder := &fakeResponder{err: errors.New("boom")}
	c, _ := newTestController(t, "", responder, failingDetector{})
	events, cancel := c.Subscribe()
	defer cancel()

	_, err := c.Send(context.Background(), "hello")
	require.Error(t, err)

	for ev := range events {
		if ev.Type == EventError {
			assert.Equal(t, "boom", ev.Error)
			return
		}
	}
	t.Fatal("no error event")
}

func TestSpeakThroughAttachedClient(t *testing.T) {
	c, _ := newTestController(t, "", &fakeResponder{}, failingDetector{})
	events, cancel := c.Subscribe()
	defer cancel()

	commands := make(chan speech.Command, 4)
	detach := c.Attach(func(cmd speech.Command) error {
		commands <- cmd
		return nil
	})
	defer detach()
	c.SetCapabilities(Capabilities{
		Synthesis: true,
		Voices:    []speechmodel.Voice{{Name: "Google US English", Lang: "en-US"}},
	})

	done := make(chan error, 1)
	go func() { done <- c.Speak(context.Background(), "Hello from the future") }()

	cmd := <-commands
	require.Equal(t, speech.CommandLocalSpeak, cmd.Type)
	require.NotNil(t, cmd.Utterance)
	assert.Equal(t, "Google US English", cmd.Utterance.Voice.Name)
	assert.InDelta(t, 0.9, cmd.Utterance.Rate, 1e-9)

	require.True(t, c.Complete(cmd.ID, nil))
	require.NoError(t, <-done)

	var statuses []speechmodel.Status
	timeout := time.After(time.Second)
	for len(statuses) < 2 {
		select {
		case ev := <-events:
			if ev.Type == EventSpeech {
				statuses = append(statuses, ev.State.Status)
			}
		case <-timeout:
			t.Fatalf("speech events missing, got %v", statuses)
		}
	}
	assert.Equal(t, speechmodel.StatusSpeaking, statuses[0])
}

func TestSpeakWithoutClientFails(t *testing.T) {
	c, _ := newTestController(t, "", &fakeResponder{}, failingDetector{})
	err := c.Speak(context.Background(), "hello")
	assert.ErrorIs(t, err, speech.ErrLocalUnavailable)

	c.StopSpeaking()
	c.StopSpeaking()
}

func TestListeningLifecycle(t *testing.T) {
	c, _ := newTestController(t, "", &fakeResponder{}, failingDetector{})

	assert.ErrorIs(t, c.StartListening(), speech.ErrRecognitionUnsupported)

	c.SetCapabilities(Capabilities{Recognition: true})
	require.NoError(t, c.StartListening())
	c.HandleTranscript([]speechmodel.Fragment{{Transcript: "what will", IsFinal: true}, {Transcript: "I be"}})
	assert.Equal(t, "I be", c.Recognition().Interim)

	c.StopListening()
	c.StopListening()
	assert.Equal(t, speechmodel.StatusIdle, c.Recognition().Status)
	assert.Equal(t, "what will", c.TakeInput())
}

func TestAutoModeSamplesReportedFrames(t *testing.T) {
	c, _ := newTestController(t, "", &fakeResponder{}, emotion.ReportedDetector{})
	require.Eventually(t, func() bool { return c.EmotionMode() == emotion.ModeAuto }, time.Second, 5*time.Millisecond)

	_, err := c.SetEmotion(emotionmodel.Sad)
	assert.ErrorIs(t, err, emotion.ErrNotManual)

	c.PushFrame(emotion.Frame{
		Expressions: emotionmodel.Expressions{"surprised": 0.8, "happy": 0.1},
		FaceFound:   true,
		Reported:    true,
		CapturedAt:  time.Now().Add(time.Second),
	})
	require.Eventually(t, func() bool { return c.Emotion().Label == emotionmodel.Surprised }, time.Second, 5*time.Millisecond)
}

func TestCloseEndsSubscriptions(t *testing.T) {
	c, _ := newTestController(t, "", &fakeResponder{}, failingDetector{})
	events, _ := c.Subscribe()

	c.Close()
	c.Close()

	for range events {
	}
	_, err := c.Send(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrClosed)
}
