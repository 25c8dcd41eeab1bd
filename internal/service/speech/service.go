package speech

import (
	"context"
	"encoding/base64"
	"strings"

	"go.uber.org/zap"

	"github.com/Lusa1101/FutureMe-Live/internal/config"
	"github.com/Lusa1101/FutureMe-Live/internal/fault"
	model "github.com/Lusa1101/FutureMe-Live/internal/model/speech"
)

// Service 语音服务的 HTTP 入口，负责远程合成与本地回退的决策。
type Service struct {
	remote *ElevenLabsClient
	logger *zap.Logger
}

// NewService 创建语音服务实例
func NewService(cfg config.TTSConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		remote: NewElevenLabsClient(cfg, logger),
		logger: logger,
	}
}

// RemoteEnabled reports whether a remote credential is configured.
func (s *Service) RemoteEnabled() bool {
	return s.remote.Configured()
}

// Remote returns the remote synthesizer for per-session state machines.
func (s *Service) Remote() RemoteTTS {
	return s.remote
}

// Synthesize never fails: on any remote failure the result asks the client to
// speak locally, with the voice chosen from voices.
func (s *Service) Synthesize(ctx context.Context, text string, voices []model.Voice) model.TTSResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.TTSResult{Error: "text is required"}
	}

	audio, err := s.remote.Synthesize(ctx, text)
	if err == nil {
		return model.TTSResult{
			Success:     true,
			AudioBase64: base64.StdEncoding.EncodeToString(audio),
			MimeType:    "audio/mpeg",
		}
	}

	s.logger.Info("remote synthesis failed, client will use local speech",
		zap.String("kind", string(fault.KindOf(err))),
		zap.String("reason", fault.Message(err)))

	u := NewUtterance(text, voices)
	return model.TTSResult{
		Fallback: model.FallbackLocal,
		Voice:    u.Voice,
		Rate:     u.Rate,
		Pitch:    u.Pitch,
		Error:    fault.Message(err),
	}
}
