package stream

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatService "github.com/Lusa1101/FutureMe-Live/internal/service/chat"
	"github.com/Lusa1101/FutureMe-Live/internal/service/session"
	"github.com/Lusa1101/FutureMe-Live/pkg/utils"
)

const heartbeatInterval = 15 * time.Second

// Handler streams session controller events via Server-Sent Events
type Handler struct {
	sessions  *session.Manager
	logger    *zap.Logger
	heartbeat time.Duration
}

// New creates a new stream handler
func New(sessions *session.Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sessions: sessions, logger: logger, heartbeat: heartbeatInterval}
}

// RegisterRoutes 注册事件流路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session/{sessionID}/events", h.handleEvents)
}

// handleEvents 推送情绪、语音状态与回复事件，直到客户端断开或会话结束
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	ctrl, err := h.sessions.Open(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	events, cancel := ctrl.Subscribe()
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	logger := h.logger.With(zap.String("session_id", sessionID))
	logger.Info("opening event stream")
	defer logger.Info("closing event stream")

	if err := utils.SendSSEEvent(w, flusher, "status", map[string]any{
		"message":     "stream established",
		"emotionMode": ctrl.EmotionMode(),
		"emotion":     ctrl.Emotion(),
	}); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				_ = utils.SendSSEEvent(w, flusher, "closed", map[string]string{"sessionId": sessionID})
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(ev.Type), ev); err != nil {
				logger.Debug("event stream write failed", zap.Error(err))
				return
			}
		case t := <-ticker.C:
			if err := utils.SendSSEEvent(w, flusher, "heartbeat", map[string]string{
				"time": t.UTC().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}
	}
}
