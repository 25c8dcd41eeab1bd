package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedPersonas(t *testing.T) {
	items := Seed()
	require.Len(t, items, 2)

	store := NewMemoryStore(items, "futureme")
	future, ok := store.FindByID("futureme")
	require.True(t, ok)
	assert.Equal(t, []string{"sad", "angry", "disgusted", "happy", "fearful", "neutral"}, future.Moods)
	assert.Len(t, future.OfflineReplies["neutral"], 3)

	toilet, ok := store.FindByID("toiletgpt")
	require.True(t, ok)
	assert.Contains(t, toilet.Moods, "deep-flush")
	assert.Equal(t, "futureme", store.Default().ID)
}

func TestMoodInstructionFallback(t *testing.T) {
	store := NewMemoryStore(Seed(), "futureme")
	p := store.Default()

	text, ok := p.MoodInstruction("Happy")
	assert.True(t, ok)
	assert.Contains(t, text, "Match their energy")

	text, ok = p.MoodInstruction("ecstatic")
	assert.False(t, ok)
	assert.Equal(t, "Be emotionally responsive to how the user is feeling and meet them where they are.", text)
}

func TestDefaultFallsBackToFirst(t *testing.T) {
	store := NewMemoryStore(Seed(), "missing")
	assert.Equal(t, "futureme", store.Default().ID)

	p, ok := Resolve(store, "")
	assert.True(t, ok)
	assert.Equal(t, "futureme", p.ID)

	_, ok = Resolve(store, "nobody")
	assert.False(t, ok)
}

func TestDecodeRejectsInvalidCatalogue(t *testing.T) {
	_, err := Decode([]byte("[]"))
	assert.Error(t, err)

	_, err = Decode([]byte(`
- id: a
  identity: x
  defaultMoodInstruction: y
  moods: [calm]
`))
	assert.ErrorContains(t, err, "calm")

	_, err = Decode([]byte(`
- id: a
  identity: x
  defaultMoodInstruction: y
- id: a
  identity: x
  defaultMoodInstruction: y
`))
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- id: coach
  name: Coach
  identity: You are a running coach.
  defaultMoodInstruction: Keep going.
`), 0o600))

	items, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Coach", items[0].Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
