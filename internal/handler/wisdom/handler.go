package wisdom

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lusa1101/FutureMe-Live/internal/fault"
	"github.com/Lusa1101/FutureMe-Live/internal/service/wisdom"
	"github.com/Lusa1101/FutureMe-Live/pkg/utils"
)

// Generator produces a quote image from a reply.
type Generator interface {
	Generate(ctx context.Context, text string) wisdom.Result
}

// Handler 名言图片接口
type Handler struct {
	generator Generator
}

// New 创建名言处理器
func New(generator Generator) *Handler {
	return &Handler{generator: generator}
}

// RegisterRoutes 注册名言相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/wisdom", h.handleGenerate)
}

// handleGenerate 结果中 success=false 仍以 200 返回，仅配置缺失时返回对应状态码
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageText string `json:"messageText"`
	}
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	result := h.generator.Generate(r.Context(), req.MessageText)
	status := http.StatusOK
	if !result.Success && result.Kind == fault.Configuration {
		status = fault.HTTPStatus(result.Kind)
	}
	utils.RespondJSON(w, status, result)
}
