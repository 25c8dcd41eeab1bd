package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lusa1101/FutureMe-Live/internal/fault"
	"github.com/Lusa1101/FutureMe-Live/internal/model/persona"
	"github.com/Lusa1101/FutureMe-Live/internal/service/ai"
	chatservice "github.com/Lusa1101/FutureMe-Live/internal/service/chat"
	"github.com/Lusa1101/FutureMe-Live/internal/service/session"
)

type stubResponder struct {
	mu   sync.Mutex
	last ai.ChatRequest
	err  error
}

func (s *stubResponder) Respond(_ context.Context, req ai.ChatRequest) (ai.Reply, error) {
	s.mu.Lock()
	s.last = req
	s.mu.Unlock()
	if s.err != nil {
		return ai.Reply{}, s.err
	}
	return ai.Reply{Text: "from the future"}, nil
}

func setupRouter(t *testing.T, responder ai.Responder) (*chi.Mux, *chatservice.Service) {
	t.Helper()
	chatSvc := chatservice.NewService()
	store := persona.NewMemoryStore(persona.Seed(), "futureme")
	manager := session.NewManager(chatSvc, store, session.ManagerConfig{Responder: responder})
	t.Cleanup(manager.Shutdown)

	r := chi.NewRouter()
	New(chatSvc, manager, responder, store, nil).RegisterRoutes(r)
	return r, chatSvc
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateSessionValidPersona(t *testing.T) {
	r, _ := setupRouter(t, &stubResponder{})

	resp := do(r, http.MethodPost, "/session", map[string]string{"personaId": "toiletgpt", "mood": "deep-flush"})
	require.Equal(t, http.StatusCreated, resp.Code)

	var s struct {
		ID        string `json:"id"`
		PersonaID string `json:"personaId"`
		Mood      string `json:"mood"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "toiletgpt", s.PersonaID)
	assert.Equal(t, "deep-flush", s.Mood)
}

func TestCreateSessionDefaultsPersona(t *testing.T) {
	r, _ := setupRouter(t, &stubResponder{})
	resp := do(r, http.MethodPost, "/session", map[string]string{})
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), `"personaId":"futureme"`)
}

func TestCreateSessionInvalidPersona(t *testing.T) {
	r, _ := setupRouter(t, &stubResponder{})
	resp := do(r, http.MethodPost, "/session", map[string]string{"personaId": "non-existent"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSessionConversationFlow(t *testing.T) {
	responder := &stubResponder{}
	r, _ := setupRouter(t, responder)

	resp := do(r, http.MethodPost, "/session", map[string]string{"personaId": "futureme", "mood": "sad"})
	require.Equal(t, http.StatusCreated, resp.Code)
	var s struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))

	resp = do(r, http.MethodPost, "/session/"+s.ID+"/messages", map[string]string{"content": "I failed my exam"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "from the future")
	assert.Equal(t, "sad", responder.last.Mood)

	resp = do(r, http.MethodGet, "/session/"+s.ID+"/messages", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var messages []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&messages))
	assert.Len(t, messages, 2)

	resp = do(r, http.MethodGet, "/session/"+s.ID+"/timeline", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "I failed my exam")

	resp = do(r, http.MethodPost, "/session/"+s.ID+"/messages", map[string]string{"content": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(r, http.MethodDelete, "/session/"+s.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = do(r, http.MethodGet, "/session/"+s.ID+"/messages", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSendUnknownSession(t *testing.T) {
	r, _ := setupRouter(t, &stubResponder{})
	resp := do(r, http.MethodPost, "/session/missing/messages", map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestStatelessChat(t *testing.T) {
	responder := &stubResponder{}
	r, _ := setupRouter(t, responder)

	resp := do(r, http.MethodPost, "/chat", map[string]any{
		"message": "I got the job",
		"mood":    "happy",
		"history": []map[string]string{
			{"role": "user", "content": "hello"},
			{"role": "model", "content": "hi there"},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var body chatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "from the future", body.Response)
	assert.Equal(t, "futureme", responder.last.Persona.ID)
	require.Len(t, responder.last.History, 2)
	assert.Equal(t, "assistant", string(responder.last.History[1].Role))
}

func TestStatelessChatFault(t *testing.T) {
	r, _ := setupRouter(t, &stubResponder{err: fault.New(fault.Quota, "API quota exceeded. Please try again later.")})

	resp := do(r, http.MethodPost, "/chat", map[string]any{"message": "hello", "mood": "neutral"})
	require.Equal(t, http.StatusTooManyRequests, resp.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "quota", body["kind"])
}

func TestStatelessChatRejectsBadRole(t *testing.T) {
	r, _ := setupRouter(t, &stubResponder{})
	resp := do(r, http.MethodPost, "/chat", map[string]any{
		"message": "hello",
		"history": []map[string]string{{"role": "system", "content": "x"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
