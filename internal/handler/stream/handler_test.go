package stream

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lusa1101/FutureMe-Live/internal/model/persona"
	"github.com/Lusa1101/FutureMe-Live/internal/service/ai"
	chatservice "github.com/Lusa1101/FutureMe-Live/internal/service/chat"
	"github.com/Lusa1101/FutureMe-Live/internal/service/session"
)

type echoResponder struct{}

func (echoResponder) Respond(_ context.Context, req ai.ChatRequest) (ai.Reply, error) {
	return ai.Reply{Text: "echo " + req.Message}, nil
}

func readEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestEventStreamRelaysReplies(t *testing.T) {
	chatSvc := chatservice.NewService()
	manager := session.NewManager(chatSvc, persona.NewMemoryStore(persona.Seed(), ""), session.ManagerConfig{
		Responder:      echoResponder{},
		SampleInterval: time.Hour,
	})
	defer manager.Shutdown()

	r := chi.NewRouter()
	New(manager, nil).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx := context.Background()
	s, err := chatSvc.CreateSession(ctx, "futureme", "")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/session/" + s.ID + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	name, _ := readEvent(t, reader)
	require.Equal(t, "status", name)

	ctrl, ok := manager.Get(s.ID)
	require.True(t, ok)
	_, err = ctrl.Send(ctx, "hello")
	require.NoError(t, err)

	for {
		name, data := readEvent(t, reader)
		if name == "reply" {
			assert.Contains(t, data, "echo hello")
			break
		}
	}

	require.NoError(t, manager.Close(ctx, s.ID))
	for {
		name, _ := readEvent(t, reader)
		if name == "closed" {
			return
		}
	}
}

func TestEventStreamUnknownSession(t *testing.T) {
	manager := session.NewManager(chatservice.NewService(), persona.NewMemoryStore(persona.Seed(), ""), session.ManagerConfig{})
	r := chi.NewRouter()
	New(manager, nil).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/session/missing/events", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
