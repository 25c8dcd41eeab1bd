package emotion

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	analysis "github.com/Lusa1101/FutureMe-Live/internal/analysis/emotion"
	model "github.com/Lusa1101/FutureMe-Live/internal/model/emotion"
	"github.com/Lusa1101/FutureMe-Live/pkg/utils"
)

// Handler 表情分数归约接口，供自行运行表情模型的客户端使用
type Handler struct {
	now func() time.Time
}

// New 创建情绪处理器
func New() *Handler {
	return &Handler{now: time.Now}
}

// RegisterRoutes 注册情绪相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/emotion/classify", h.handleClassify)
	r.Get("/emotion/labels", h.handleLabels)
}

type classifyRequest struct {
	Expressions model.Expressions `json:"expressions"`
	FaceFound   bool              `json:"faceFound"`
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	utils.RespondJSON(w, http.StatusOK, analysis.Classify(req.Expressions, req.FaceFound, h.now()))
}

func (h *Handler) handleLabels(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"labels":    model.Labels(),
		"threshold": analysis.Threshold,
	})
}
