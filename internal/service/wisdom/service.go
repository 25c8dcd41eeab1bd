// Package wisdom turns a companion reply into a shareable quote image.
package wisdom

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Lusa1101/FutureMe-Live/internal/fault"
)

const minWisdomLength = 5

const noWisdomMessage = "The AI could not find meaningful wisdom in the response. " +
	"The message may not contain motivational content suitable for a quote image."

// Extractor derives a short quote from a longer reply.
type Extractor interface {
	ExtractWisdom(ctx context.Context, text string) (string, error)
}

// Result 对应一次图片生成请求的结果，不做保存。
type Result struct {
	ExtractedWisdom string     `json:"extractedWisdom"`
	ImageDataURI    string     `json:"imageDataUri"`
	Theme           string     `json:"theme,omitempty"`
	Success         bool       `json:"success"`
	Error           string     `json:"error,omitempty"`
	Kind            fault.Kind `json:"kind,omitempty"`
}

// Service runs extraction then rendering.
type Service struct {
	extractor Extractor
	renderer  *Renderer
	logger    *zap.Logger
}

// NewService wires the stages. A nil extractor reports a configuration error on every call.
func NewService(extractor Extractor, renderer *Renderer, logger *zap.Logger) *Service {
	if renderer == nil {
		renderer = NewRenderer(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{extractor: extractor, renderer: renderer, logger: logger}
}

// Generate never returns an error; failures are described in the Result.
func (s *Service) Generate(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return failure("", fault.NoSignal, "messageText is required")
	}
	if s.extractor == nil {
		return failure("", fault.Configuration,
			"LLM API key is not configured. Wisdom extraction is unavailable.")
	}

	wisdom, err := s.extractor.ExtractWisdom(ctx, text)
	if err != nil {
		s.logger.Warn("wisdom extraction failed", zap.Error(err))
		return failure("", fault.KindOf(err), fault.Message(err))
	}

	wisdom = strings.TrimSpace(wisdom)
	if utf8.RuneCountInString(wisdom) < minWisdomLength {
		return failure("", fault.NoSignal, noWisdomMessage)
	}

	uri, theme, err := s.renderer.Render(wisdom)
	if err != nil {
		s.logger.Warn("quote rendering failed", zap.Error(err))
		return failure(wisdom, fault.Rendering, "Failed to generate elegant background: "+err.Error())
	}

	s.logger.Info("wisdom image generated",
		zap.String("theme", theme.Name),
		zap.Int("image_kb", len(uri)/1024))
	return Result{
		ExtractedWisdom: wisdom,
		ImageDataURI:    uri,
		Theme:           theme.Name,
		Success:         true,
	}
}

func failure(wisdom string, kind fault.Kind, message string) Result {
	return Result{ExtractedWisdom: wisdom, Success: false, Error: message, Kind: kind}
}
