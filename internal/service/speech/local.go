package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/Lusa1101/FutureMe-Live/internal/fault"
	model "github.com/Lusa1101/FutureMe-Live/internal/model/speech"
)

// ErrLocalUnavailable 表示本地语音合成不可用。
var ErrLocalUnavailable = fault.New(fault.Unsupported, "Text-to-speech is not available")

// LocalEngine is the platform speech synthesis used when remote TTS fails.
type LocalEngine interface {
	Available() bool
	Voices() []model.Voice
	// Speak blocks until the utterance ends, fails or is cancelled.
	Speak(ctx context.Context, u model.Utterance) error
	Cancel()
}

var voicePreference = []string{"Google", "Microsoft", "Natural"}

// SelectVoice picks a voice by name preference, then the platform default.
// ok is false when the platform default (no explicit voice) should be used.
func SelectVoice(voices []model.Voice) (model.Voice, bool) {
	for _, want := range voicePreference {
		for _, v := range voices {
			if strings.Contains(v.Name, want) {
				return v, true
			}
		}
	}
	for _, v := range voices {
		if v.Default {
			return v, true
		}
	}
	return model.Voice{}, false
}

// NewUtterance 按本地合成的默认语速和音调构造一次朗读。
func NewUtterance(text string, voices []model.Voice) model.Utterance {
	u := model.Utterance{Text: text, Rate: model.DefaultRate, Pitch: model.DefaultPitch}
	if v, ok := SelectVoice(voices); ok {
		u.Voice = &v
	}
	return u
}

// ExecEngine speaks through a host command: "say" on macOS, "espeak" elsewhere.
type ExecEngine struct {
	command string
	path    string

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewExecEngine looks up command, or the first of say/espeak when command is empty.
func NewExecEngine(command string) *ExecEngine {
	candidates := []string{"say", "espeak"}
	if command != "" {
		candidates = []string{command}
	}
	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return &ExecEngine{command: c, path: path}
		}
	}
	return &ExecEngine{}
}

// Available reports whether the command was found.
func (e *ExecEngine) Available() bool {
	return e != nil && e.path != ""
}

// Voices lists host voices. Only "say -v ?" output is parsed; espeak gets the default voice.
func (e *ExecEngine) Voices() []model.Voice {
	if !e.Available() {
		return nil
	}
	if e.command != "say" {
		return []model.Voice{{Name: e.command, Default: true}}
	}

	out, err := exec.Command(e.path, "-v", "?").Output()
	if err != nil {
		return nil
	}
	return parseSayVoices(out)
}

// "Alex                en_US    # Most people recognize me by my voice."
func parseSayVoices(out []byte) []model.Voice {
	var voices []model.Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		lang := fields[len(fields)-1]
		name := strings.Join(fields[:len(fields)-1], " ")
		voices = append(voices, model.Voice{Name: name, Lang: lang})
	}
	return voices
}

// Speak runs the command and waits for it to exit.
func (e *ExecEngine) Speak(ctx context.Context, u model.Utterance) error {
	if !e.Available() {
		return ErrLocalUnavailable
	}

	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.cancel = nil
		e.mu.Unlock()
		cancel()
	}()

	cmd := exec.CommandContext(ctx, e.path, e.args(u)...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w", e.command, err)
	}
	return nil
}

func (e *ExecEngine) args(u model.Utterance) []string {
	rate := u.Rate
	if rate <= 0 {
		rate = model.DefaultRate
	}
	var args []string
	switch e.command {
	case "say":
		// say 的语速单位是每分钟词数，约 180 为正常语速
		args = append(args, "-r", strconv.Itoa(int(180*rate)))
		if u.Voice != nil && u.Voice.Name != "" {
			args = append(args, "-v", u.Voice.Name)
		}
	case "espeak":
		args = append(args, "-s", strconv.Itoa(int(175*rate)))
		pitch := u.Pitch
		if pitch <= 0 {
			pitch = model.DefaultPitch
		}
		args = append(args, "-p", strconv.Itoa(int(50*pitch)))
	}
	return append(args, u.Text)
}

// Cancel stops the running command, if any.
func (e *ExecEngine) Cancel() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// NopEngine is a LocalEngine that is never available.
type NopEngine struct{}

func (NopEngine) Available() bool                              { return false }
func (NopEngine) Voices() []model.Voice                        { return nil }
func (NopEngine) Speak(context.Context, model.Utterance) error { return ErrLocalUnavailable }
func (NopEngine) Cancel()                                      {}
