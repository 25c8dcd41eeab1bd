package wisdom

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lusa1101/FutureMe-Live/internal/fault"
	"github.com/Lusa1101/FutureMe-Live/internal/service/wisdom"
)

type stubExtractor struct{ quote string }

func (s stubExtractor) ExtractWisdom(context.Context, string) (string, error) {
	return s.quote, nil
}

func post(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, wisdom.Result) {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/wisdom", bytes.NewBufferString(body)))

	var result wisdom.Result
	_ = json.NewDecoder(bytes.NewReader(resp.Body.Bytes())).Decode(&result)
	return resp, result
}

func TestWisdomRendersImage(t *testing.T) {
	svc := wisdom.NewService(stubExtractor{quote: "Every setback is a setup for a comeback."}, nil, nil)
	resp, result := post(t, New(svc), `{"messageText":"Remember, every setback is a setup for a comeback."}`)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, result.Success)
	assert.Contains(t, result.ImageDataURI, "data:image/svg+xml;base64,")
}

func TestWisdomNoSignal(t *testing.T) {
	svc := wisdom.NewService(stubExtractor{quote: ""}, nil, nil)
	resp, result := post(t, New(svc), `{"messageText":"ok"}`)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, result.Success)
	assert.Empty(t, result.ImageDataURI)
	assert.Equal(t, fault.NoSignal, result.Kind)
}

func TestWisdomUnconfigured(t *testing.T) {
	resp, result := post(t, New(wisdom.NewService(nil, nil, nil)), `{"messageText":"some reply"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, fault.Configuration, result.Kind)
}
