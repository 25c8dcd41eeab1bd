package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Lusa1101/FutureMe-Live/internal/handler/chat"
	"github.com/Lusa1101/FutureMe-Live/internal/handler/emotion"
	"github.com/Lusa1101/FutureMe-Live/internal/handler/persona"
	"github.com/Lusa1101/FutureMe-Live/internal/handler/speech"
	"github.com/Lusa1101/FutureMe-Live/internal/handler/stream"
	"github.com/Lusa1101/FutureMe-Live/internal/handler/wisdom"
	middlewarePkg "github.com/Lusa1101/FutureMe-Live/internal/middleware"
	personaModel "github.com/Lusa1101/FutureMe-Live/internal/model/persona"
	aiService "github.com/Lusa1101/FutureMe-Live/internal/service/ai"
	chatService "github.com/Lusa1101/FutureMe-Live/internal/service/chat"
	"github.com/Lusa1101/FutureMe-Live/internal/service/session"
	speechService "github.com/Lusa1101/FutureMe-Live/internal/service/speech"
	wisdomService "github.com/Lusa1101/FutureMe-Live/internal/service/wisdom"
	"github.com/Lusa1101/FutureMe-Live/pkg/utils"
)

// Features 描述当前可用的能力，供前端决定降级方式
type Features struct {
	LLM             bool `json:"llm"`
	RemoteSpeech    bool `json:"remoteSpeech"`
	EmotionDetector bool `json:"emotionDetector"`
}

// Dependencies 汇总路由需要的服务
type Dependencies struct {
	Personas  personaModel.Store
	Chat      *chatService.Service
	Sessions  *session.Manager
	Responder aiService.Responder
	Speech    *speechService.Service
	Wisdom    *wisdomService.Service
	Features  Features
	Logger    *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":   "ok",
				"features": deps.Features,
			})
		})

		persona.New(deps.Personas).RegisterRoutes(api)
		chat.New(deps.Chat, deps.Sessions, deps.Responder, deps.Personas, logger.Named("chat")).RegisterRoutes(api)
		stream.New(deps.Sessions, logger.Named("stream")).RegisterRoutes(api)
		emotion.New().RegisterRoutes(api)
		wisdom.New(deps.Wisdom).RegisterRoutes(api)
		speech.New(deps.Speech).RegisterRoutes(api)
		speech.NewWebSocketHandler(deps.Sessions, logger.Named("live")).RegisterWebSocketRoutes(api)
	})

	return r
}
