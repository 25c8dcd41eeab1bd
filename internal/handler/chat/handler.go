package chat

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Lusa1101/FutureMe-Live/internal/model/chat"
	"github.com/Lusa1101/FutureMe-Live/internal/model/persona"
	"github.com/Lusa1101/FutureMe-Live/internal/service/ai"
	chatService "github.com/Lusa1101/FutureMe-Live/internal/service/chat"
	"github.com/Lusa1101/FutureMe-Live/internal/service/session"
	"github.com/Lusa1101/FutureMe-Live/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc      *chatService.Service
	sessions     *session.Manager
	responder    ai.Responder
	personaStore persona.Store
	logger       *zap.Logger
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, sessions *session.Manager, responder ai.Responder, personaStore persona.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc:      chatSvc,
		sessions:     sessions,
		responder:    responder,
		personaStore: personaStore,
		logger:       logger,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)

	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Patch("/", h.handleSetMood)
		r.Delete("/", h.handleEndSession)
		r.Get("/messages", h.handleTranscript)
		r.Post("/messages", h.handleSend)
		r.Get("/timeline", h.handleTimeline)
	})
}

type chatRequest struct {
	Message   string      `json:"message"`
	Mood      string      `json:"mood"`
	PersonaID string      `json:"personaId"`
	History   []chat.Turn `json:"history"`
}

type chatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Offline  bool   `json:"offline,omitempty"`
}

// handleChat 无状态对话：历史由调用方携带
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	p, ok := persona.Resolve(h.personaStore, payload.PersonaID)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "persona not found")
		return
	}

	history := make([]chat.Turn, 0, len(payload.History))
	for _, turn := range payload.History {
		role, err := chat.NormalizeRole(string(turn.Role))
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		history = append(history, chat.Turn{Role: role, Content: turn.Content})
	}

	reply, err := h.responder.Respond(r.Context(), ai.ChatRequest{
		Persona: p,
		Mood:    payload.Mood,
		Emotion: payload.Mood,
		Message: payload.Message,
		History: history,
	})
	if err != nil {
		utils.RespondFault(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, chatResponse{Success: true, Response: reply.Text, Offline: reply.Offline})
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
		Mood      string `json:"mood"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	p, ok := persona.Resolve(h.personaStore, payload.PersonaID)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "persona not found")
		return
	}

	s, err := h.chatSvc.CreateSession(r.Context(), p.ID, payload.Mood)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, s)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, s)
}

// handleSetMood 修改会话心情，空字符串表示跟随检测到的情绪
func (h *Handler) handleSetMood(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Mood string `json:"mood"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}
	s, err := h.chatSvc.SetMood(r.Context(), chi.URLParam(r, "sessionID"), payload.Mood)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, s)
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	entries, err := h.chatSvc.Timeline(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}

// handleSend 通过会话控制器生成回复
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	ctrl, err := h.sessions.Open(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	reply, err := ctrl.Send(r.Context(), payload.Content)
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, reply)
	case errors.Is(err, session.ErrBusy):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chatService.ErrSessionNotFound), errors.Is(err, session.ErrClosed):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	default:
		utils.RespondFault(w, err)
	}
}

func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, chatService.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error("session request failed", zap.Error(err))
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
