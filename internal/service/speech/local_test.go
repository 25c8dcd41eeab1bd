package speech

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/Lusa1101/FutureMe-Live/internal/model/speech"
)

func TestSelectVoicePreferenceOrder(t *testing.T) {
	voices := []model.Voice{
		{Name: "Fred", Default: true},
		{Name: "Natural Aria"},
		{Name: "Microsoft Zira"},
		{Name: "Google UK English Female"},
	}
	v, ok := SelectVoice(voices)
	require.True(t, ok)
	assert.Equal(t, "Google UK English Female", v.Name)

	v, ok = SelectVoice(voices[:3])
	require.True(t, ok)
	assert.Equal(t, "Microsoft Zira", v.Name)

	v, ok = SelectVoice(voices[:2])
	require.True(t, ok)
	assert.Equal(t, "Natural Aria", v.Name)

	v, ok = SelectVoice(voices[:1])
	require.True(t, ok)
	assert.Equal(t, "Fred", v.Name)

	_, ok = SelectVoice([]model.Voice{{Name: "Fred"}})
	assert.False(t, ok)
}

func TestNewUtteranceDefaults(t *testing.T) {
	u := NewUtterance("hi", nil)
	assert.Nil(t, u.Voice)
	assert.Equal(t, model.DefaultRate, u.Rate)
	assert.Equal(t, model.DefaultPitch, u.Pitch)
}

func TestParseSayVoices(t *testing.T) {
	out := []byte("Alex                en_US    # Most people recognize me by my voice.\n" +
		"Bad News            en_US    # The light you see at the end of the tunnel.\n\n")
	voices := parseSayVoices(out)
	require.Len(t, voices, 2)
	assert.Equal(t, model.Voice{Name: "Alex", Lang: "en_US"}, voices[0])
	assert.Equal(t, "Bad News", voices[1].Name)
}

func TestExecEngineArgs(t *testing.T) {
	say := &ExecEngine{command: "say", path: "/usr/bin/say"}
	args := say.args(model.Utterance{Text: "hello", Rate: 0.9, Voice: &model.Voice{Name: "Alex"}})
	assert.Equal(t, []string{"-r", "162", "-v", "Alex", "hello"}, args)

	espeak := &ExecEngine{command: "espeak", path: "/usr/bin/espeak"}
	args = espeak.args(model.Utterance{Text: "hello", Rate: 1, Pitch: 1})
	assert.Equal(t, []string{"-s", "175", "-p", "50", "hello"}, args)
}

func TestExecEngineMissingCommand(t *testing.T) {
	e := NewExecEngine("definitely-not-a-real-tts-binary")
	assert.False(t, e.Available())
	assert.ErrorIs(t, e.Speak(context.Background(), model.Utterance{Text: "x"}), ErrLocalUnavailable)
	e.Cancel()
}
