package wisdom

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeChoiceIsDeterministicWithSeed(t *testing.T) {
	a := NewRenderer(rand.New(rand.NewSource(42)))
	b := NewRenderer(rand.New(rand.NewSource(42)))
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.PickTheme().Name, b.PickTheme().Name)
	}
}

func TestThemeChoiceCoversPalette(t *testing.T) {
	r := NewRenderer(rand.New(rand.NewSource(9)))
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		seen[r.PickTheme().Name] = true
	}
	assert.Len(t, seen, len(Themes()))
}

func TestRenderEscapesMarkup(t *testing.T) {
	uri, _, err := NewRenderer(rand.New(rand.NewSource(1))).Render(`Be bold & kind <always> "today"`)
	require.NoError(t, err)

	svg := decodeSVG(t, uri)
	assertWellFormed(t, svg)
	assert.Contains(t, svg, "Be bold &amp; kind &lt;always&gt;")
	assert.NotContains(t, svg, "<always>")
}

func TestRenderDropsNonXMLCharacters(t *testing.T) {
	uri, _, err := NewRenderer(rand.New(rand.NewSource(1))).Render("Stay\x01 calm \xff\x1b and carry on\uFFFE")
	require.NoError(t, err)

	svg := decodeSVG(t, uri)
	assertWellFormed(t, svg)
	assert.True(t, utf8.ValidString(svg))
	assert.Contains(t, svg, "Stay calm and carry on")
	assert.NotContains(t, svg, "\x01")
}

func TestRenderRejectsEmpty(t *testing.T) {
	_, _, err := NewRenderer(nil).Render("  \n ")
	assert.Error(t, err)
}

func TestWrapRespectsWidth(t *testing.T) {
	lines := wrap("Sometimes the best insights come when we're sitting still and breathing", 20)
	require.NotEmpty(t, lines)
	for _, l := range lines {
		assert.LessOrEqual(t, utf8.RuneCountInString(l), 20)
	}
	assert.Equal(t, "Sometimes the best insights come when we're sitting still and breathing", strings.Join(lines, " "))

	assert.Equal(t, []string{"abcde", "fgh"}, wrap("abcdefgh", 5))
}

func TestLayoutShrinksFont(t *testing.T) {
	_, size, err := layout("short quote")
	require.NoError(t, err)
	assert.Equal(t, 44, size)

	_, size, err = layout(strings.Repeat("word ", 70))
	require.NoError(t, err)
	assert.Less(t, size, 44)

	_, _, err = layout(strings.Repeat("word ", 400))
	assert.ErrorIs(t, err, ErrQuoteTooLong)
}
