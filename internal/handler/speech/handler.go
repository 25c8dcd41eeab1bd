package speech

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Lusa1101/FutureMe-Live/internal/model/speech"
	"github.com/Lusa1101/FutureMe-Live/pkg/utils"
)

// SpeechService 抽象语音业务，便于测试与替换实现
type SpeechService interface {
	Synthesize(ctx context.Context, text string, voices []speech.Voice) speech.TTSResult
}

// Handler 语音服务的HTTP处理器
type Handler struct {
	speechSvc SpeechService
}

// New 创建语音处理器
func New(speechSvc SpeechService) *Handler {
	return &Handler{speechSvc: speechSvc}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/speech", func(speechRouter chi.Router) {
		speechRouter.Post("/synthesize", h.handleSynthesize)
	})
}

type synthesizeRequest struct {
	Text string `json:"text"`
	// Voices 是浏览器可用的本地语音，用于回退时挑选。
	Voices []speech.Voice `json:"voices,omitempty"`
}

// handleSynthesize 处理文本转语音请求。远程失败时返回 200 并要求客户端本地朗读。
func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.speechSvc.Synthesize(r.Context(), req.Text, req.Voices))
}
