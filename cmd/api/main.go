package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Lusa1101/FutureMe-Live/internal/config"
	"github.com/Lusa1101/FutureMe-Live/internal/handler"
	"github.com/Lusa1101/FutureMe-Live/internal/logging"
	"github.com/Lusa1101/FutureMe-Live/internal/model/persona"
	"github.com/Lusa1101/FutureMe-Live/internal/service/ai"
	"github.com/Lusa1101/FutureMe-Live/internal/service/chat"
	"github.com/Lusa1101/FutureMe-Live/internal/service/emotion"
	"github.com/Lusa1101/FutureMe-Live/internal/service/session"
	"github.com/Lusa1101/FutureMe-Live/internal/service/speech"
	"github.com/Lusa1101/FutureMe-Live/internal/service/wisdom"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		logger.Info("no .env file loaded, continuing with system environment variables only", zap.Error(envErr))
	}

	personas, err := loadPersonas(cfg.Persona)
	if err != nil {
		logger.Fatal("failed to load personas", zap.Error(err))
	}
	personaStore := persona.NewMemoryStore(personas, cfg.Persona.Default)
	chatService := chat.NewService()

	// 未配置大模型时使用离线回复，名言图片不可用
	var (
		responder ai.Responder = ai.NewOfflineResponder(nil)
		extractor wisdom.Extractor
	)
	if cfg.AI.Enabled() {
		aiService, err := ai.NewServiceFromConfig(ctx, cfg.AI, logging.Component(logger, "ai"))
		if err != nil {
			logger.Warn("failed to initialize AI service, using offline replies", zap.Error(err))
		} else {
			responder = aiService
			extractor = aiService
			logger.Info("AI service initialized", zap.String("model", cfg.AI.Model))
		}
	} else {
		logger.Info("LLM credentials not configured, using offline replies")
	}

	speechService := speech.NewService(cfg.TTS, logging.Component(logger, "speech"))
	if !speechService.RemoteEnabled() {
		logger.Info("ElevenLabs key not configured, speech will use local synthesis")
	}

	newDetector := func() emotion.Detector { return emotion.ReportedDetector{} }
	if cfg.Emotion.DetectorURL != "" {
		newDetector = func() emotion.Detector {
			return emotion.NewHTTPDetector(cfg.Emotion.DetectorURL, cfg.Emotion.SampleInterval*5)
		}
	}

	sessions := session.NewManager(chatService, personaStore, session.ManagerConfig{
		Responder:      responder,
		Remote:         speechService.Remote(),
		NewDetector:    newDetector,
		SampleInterval: cfg.Emotion.SampleInterval,
		Logger:         logging.Component(logger, "session"),
	})
	defer sessions.Shutdown()

	router := handler.NewRouter(handler.Dependencies{
		Personas:  personaStore,
		Chat:      chatService,
		Sessions:  sessions,
		Responder: responder,
		Speech:    speechService,
		Wisdom:    wisdom.NewService(extractor, nil, logging.Component(logger, "wisdom")),
		Features: handler.Features{
			LLM:             extractor != nil,
			RemoteSpeech:    speechService.RemoteEnabled(),
			EmotionDetector: cfg.Emotion.DetectorURL != "",
		},
		Logger: logging.Component(logger, "http"),
	})

	startServer(ctx, cfg.Server, router, logger)
}

func loadPersonas(cfg config.PersonaConfig) ([]persona.Persona, error) {
	if cfg.File == "" {
		return persona.Seed(), nil
	}
	return persona.LoadFile(cfg.File)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("FutureMe Live backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
