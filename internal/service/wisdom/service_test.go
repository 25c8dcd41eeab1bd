package wisdom

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lusa1101/FutureMe-Live/internal/fault"
)

type stubExtractor struct {
	quote string
	err   error
	calls int
}

func (s *stubExtractor) ExtractWisdom(context.Context, string) (string, error) {
	s.calls++
	return s.quote, s.err
}

func decodeSVG(t *testing.T, uri string) string {
	t.Helper()
	const prefix = "data:image/svg+xml;base64,"
	require.True(t, strings.HasPrefix(uri, prefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	require.NoError(t, err)
	return string(raw)
}

// 确认输出是合法的 XML。
func assertWellFormed(t *testing.T, svg string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		require.NoError(t, err)
	}
}

func TestGenerateSuccess(t *testing.T) {
	ext := &stubExtractor{quote: "Every ending is just a new beginning waiting to happen."}
	svc := NewService(ext, NewRenderer(rand.New(rand.NewSource(3))), nil)

	res := svc.Generate(context.Background(), "Flush it and move on! Every ending is just a new beginning waiting to happen.")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, ext.quote, res.ExtractedWisdom)
	assert.NotEmpty(t, res.Theme)

	svg := decodeSVG(t, res.ImageDataURI)
	assertWellFormed(t, svg)
	assert.Contains(t, svg, `width="1200" height="800"`)
	assert.Contains(t, svg, "new beginning")
}

func TestGenerateNoWisdomSkipsRendering(t *testing.T) {
	for _, quote := range []string{"", "   ", "ok", "Hey"} {
		svc := NewService(&stubExtractor{quote: quote}, NewRenderer(rand.New(rand.NewSource(1))), nil)
		res := svc.Generate(context.Background(), "What did you have for lunch?")

		assert.False(t, res.Success)
		assert.Empty(t, res.ExtractedWisdom)
		assert.Empty(t, res.ImageDataURI)
		assert.Equal(t, fault.NoSignal, res.Kind)
		assert.Contains(t, res.Error, "could not find meaningful wisdom")
	}
}

func TestGenerateExtractionError(t *testing.T) {
	ext := &stubExtractor{err: fault.New(fault.Quota, "API quota exceeded.")}
	res := NewService(ext, nil, nil).Generate(context.Background(), "some reply")

	assert.False(t, res.Success)
	assert.Equal(t, fault.Quota, res.Kind)
	assert.Equal(t, "API quota exceeded.", res.Error)
}

func TestGenerateRenderingFailureKeepsWisdom(t *testing.T) {
	long := strings.Repeat("flush ", 400)
	res := NewService(&stubExtractor{quote: long}, nil, nil).Generate(context.Background(), long)

	assert.False(t, res.Success)
	assert.Equal(t, fault.Rendering, res.Kind)
	assert.Equal(t, strings.TrimSpace(long), res.ExtractedWisdom)
	assert.True(t, strings.HasPrefix(res.Error, "Failed to generate elegant background: "))
}

func TestGenerateWithoutExtractor(t *testing.T) {
	res := NewService(nil, nil, nil).Generate(context.Background(), "text")
	assert.Equal(t, fault.Configuration, res.Kind)

	res = NewService(nil, nil, nil).Generate(context.Background(), "  ")
	assert.Equal(t, fault.NoSignal, res.Kind)
}
