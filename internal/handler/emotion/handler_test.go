package emotion

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/Lusa1101/FutureMe-Live/internal/model/emotion"
)

func classify(t *testing.T, body string) model.Sample {
	t.Helper()
	h := New()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/emotion/classify", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, resp.Code)

	var sample model.Sample
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sample))
	assert.True(t, sample.SourceTimestamp.Equal(fixed))
	return sample
}

func TestClassifyPicksDominantExpression(t *testing.T) {
	sample := classify(t, `{"faceFound":true,"expressions":{"happy":0.1,"angry":0.7,"sad":0.2}}`)
	assert.Equal(t, model.Angry, sample.Label)
	assert.InDelta(t, 0.7, sample.Confidence, 1e-9)
}

func TestClassifyBelowThreshold(t *testing.T) {
	sample := classify(t, `{"faceFound":true,"expressions":{"happy":0.2,"sad":0.25}}`)
	assert.Equal(t, model.Neutral, sample.Label)
	assert.Zero(t, sample.Confidence)
}

func TestClassifyNoFace(t *testing.T) {
	sample := classify(t, `{"faceFound":false,"expressions":{"happy":0.9}}`)
	assert.Equal(t, model.Neutral, sample.Label)
}

func TestLabels(t *testing.T) {
	r := chi.NewRouter()
	New().RegisterRoutes(r)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/emotion/labels", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"disgusted"`)
}
