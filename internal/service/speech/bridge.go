package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"

	"github.com/google/uuid"

	model "github.com/Lusa1101/FutureMe-Live/internal/model/speech"
)

// Command types sent to the connected client.
const (
	CommandAudio       = "audio"
	CommandAudioStop   = "audio.stop"
	CommandLocalSpeak  = "local.speak"
	CommandLocalCancel = "local.cancel"
)

// Command 指示浏览器播放音频或调用本地语音合成。
type Command struct {
	Type        string           `json:"type"`
	ID          string           `json:"id,omitempty"`
	AudioBase64 string           `json:"audioBase64,omitempty"`
	MimeType    string           `json:"mimeType,omitempty"`
	Utterance   *model.Utterance `json:"utterance,omitempty"`
}

var errBridgeClosed = errors.New("client disconnected")

// ClientBridge plays audio and runs local synthesis inside the connected
// browser. It implements both Player and LocalEngine; completions arrive
// through Complete.
type ClientBridge struct {
	send func(Command) error

	mu        sync.Mutex
	supported bool
	voices    []model.Voice
	pending   map[string]chan error
	closed    bool
}

// NewClientBridge returns a bridge that delivers commands through send.
func NewClientBridge(send func(Command) error) *ClientBridge {
	return &ClientBridge{send: send, pending: make(map[string]chan error)}
}

// SetCapabilities records whether the client can synthesize speech and which voices it has.
func (b *ClientBridge) SetCapabilities(supported bool, voices []model.Voice) {
	b.mu.Lock()
	b.supported = supported
	b.voices = append([]model.Voice(nil), voices...)
	b.mu.Unlock()
}

// Available implements LocalEngine.
func (b *ClientBridge) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.supported && !b.closed
}

// Voices implements LocalEngine.
func (b *ClientBridge) Voices() []model.Voice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Voice(nil), b.voices...)
}

// Play implements Player.
func (b *ClientBridge) Play(ctx context.Context, audio []byte) error {
	return b.roundTrip(ctx, Command{
		Type:        CommandAudio,
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		MimeType:    "audio/mpeg",
	})
}

// Stop implements Player.
func (b *ClientBridge) Stop() {
	_ = b.send(Command{Type: CommandAudioStop})
}

// Speak implements LocalEngine.
func (b *ClientBridge) Speak(ctx context.Context, u model.Utterance) error {
	return b.roundTrip(ctx, Command{Type: CommandLocalSpeak, Utterance: &u})
}

// Cancel implements LocalEngine.
func (b *ClientBridge) Cancel() {
	_ = b.send(Command{Type: CommandLocalCancel})
}

// Complete resolves the command with id. A nil err means it finished normally.
func (b *ClientBridge) Complete(id string, err error) bool {
	b.mu.Lock()
	ch, ok := b.pending[id]
	delete(b.pending, id)
	b.mu.Unlock()

	if !ok {
		return false
	}
	ch <- err
	return true
}

// Close fails every pending command.
func (b *ClientBridge) Close() {
	b.mu.Lock()
	b.closed = true
	pending := b.pending
	b.pending = make(map[string]chan error)
	b.mu.Unlock()

	for _, ch := range pending {
		ch <- errBridgeClosed
	}
}

func (b *ClientBridge) roundTrip(ctx context.Context, cmd Command) error {
	cmd.ID = uuid.NewString()
	ch := make(chan error, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errBridgeClosed
	}
	b.pending[cmd.ID] = ch
	b.mu.Unlock()

	if err := b.send(cmd); err != nil {
		b.forget(cmd.ID)
		return err
	}

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		b.forget(cmd.ID)
		return ctx.Err()
	}
}

func (b *ClientBridge) forget(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}
