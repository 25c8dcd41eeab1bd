package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Lusa1101/FutureMe-Live/internal/config"
	"github.com/Lusa1101/FutureMe-Live/internal/fault"
	model "github.com/Lusa1101/FutureMe-Live/internal/model/speech"
)

const elevenLabsKeyPrefix = "sk_"

var (
	ErrAPIKeyMissing = fault.New(fault.Configuration, "ElevenLabs API key not configured")
	ErrAPIKeyFormat  = fault.New(fault.Configuration, "Invalid ElevenLabs API key format")
	ErrInvalidAPIKey = fault.New(fault.Authorization,
		"Invalid ElevenLabs API key. Please check your API key in the environment variables.")
	ErrInvalidVoice = fault.New(fault.Configuration, "Invalid voice ID or request parameters.")
	// ErrRemoteStatus 是其他非 2xx 响应的哨兵错误。
	ErrRemoteStatus = errors.New("elevenlabs returned an unexpected status")
)

const genericTTSFailure = "ElevenLabs speech generation failed"

// RemoteTTS synthesizes text into encoded audio.
type RemoteTTS interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ElevenLabsClient 调用 ElevenLabs 文本转语音接口。
type ElevenLabsClient struct {
	apiKey   string
	voiceID  string
	modelID  string
	baseURL  string
	settings model.VoiceSettings
	client   *http.Client
	logger   *zap.Logger
}

// NewElevenLabsClient builds a client from the TTS configuration.
func NewElevenLabsClient(cfg config.TTSConfig, logger *zap.Logger) *ElevenLabsClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}

	return &ElevenLabsClient{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		voiceID:  cfg.VoiceID,
		modelID:  cfg.ModelID,
		baseURL:  baseURL,
		settings: model.DefaultVoiceSettings(),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With(zap.String("provider", "elevenlabs")),
	}
}

// Configured reports whether a credential is present.
func (c *ElevenLabsClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Synthesize returns MPEG audio for text. Credential problems are detected
// before any request is made.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrAPIKeyMissing
	}
	if !strings.HasPrefix(c.apiKey, elevenLabsKeyPrefix) {
		return nil, ErrAPIKeyFormat
	}

	payload, err := json.Marshal(model.TTSRequest{
		Text:          text,
		ModelID:       c.modelID,
		VoiceSettings: c.settings,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fault.Wrap(err, fault.Network, genericTTSFailure)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidAPIKey
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, ErrInvalidVoice
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fault.Wrap(fmt.Errorf("%w: %d", ErrRemoteStatus, resp.StatusCode), fault.Quota, genericTTSFailure)
	case resp.StatusCode/100 != 2:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("elevenlabs request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fault.Wrap(fmt.Errorf("%w: %d", ErrRemoteStatus, resp.StatusCode), fault.Unknown, genericTTSFailure)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(err, fault.Network, genericTTSFailure)
	}

	c.logger.Info("elevenlabs synthesis complete",
		zap.String("voice", c.voiceID),
		zap.Int("audio_bytes", len(audio)),
		zap.Duration("latency", time.Since(start)))
	return audio, nil
}
