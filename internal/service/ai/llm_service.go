package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/Lusa1101/FutureMe-Live/internal/config"
	"github.com/Lusa1101/FutureMe-Live/internal/fault"
	"github.com/Lusa1101/FutureMe-Live/internal/model/chat"
	"github.com/Lusa1101/FutureMe-Live/internal/model/persona"
)

// Sampling parameters of the two generation calls.
const (
	ChatTemperature   float32 = 0.8
	ChatMaxTokens             = 300
	WisdomTemperature float32 = 0.2
	WisdomMaxTokens           = 150
)

// ChatRequest is one conversation turn.
type ChatRequest struct {
	Persona persona.Persona
	Mood    string
	// Emotion 是发送时检测到的情绪，离线回复据此选择话术。
	Emotion string
	Message string
	History []chat.Turn
}

// Reply is the generated answer.
type Reply struct {
	Text    string `json:"response"`
	Offline bool   `json:"offline,omitempty"`
}

// Responder produces a reply for a chat request.
type Responder interface {
	Respond(ctx context.Context, req ChatRequest) (Reply, error)
}

// Service encapsulates LLM-backed chat and wisdom extraction.
type Service struct {
	chain  compose.Runnable[map[string]any, *schema.Message]
	logger *zap.Logger
}

// NewServiceFromConfig builds the chat model from cfg. Missing credentials
// surface as a configuration fault before any network call.
func NewServiceFromConfig(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		if fault.KindOf(err) == fault.Configuration {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewService(ctx, chatModel, logger)
}

// NewService creates a new AI service instance around chatModel.
func NewService(ctx context.Context, chatModel model.BaseChatModel, logger *zap.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{chain: runnable, logger: logger}, nil
}

// Respond issues exactly one generation call for the turn.
func (s *Service) Respond(ctx context.Context, req ChatRequest) (Reply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Reply{}, errors.New("message is required")
	}

	input := map[string]any{
		"system":  BuildSystemPrompt(req.Persona, req.Mood),
		"history": buildHistoryMessages(req.Persona.Primer, req.History),
		"query":   message,
	}

	resp, err := s.chain.Invoke(ctx, input, compose.WithChatModelOption(
		model.WithTemperature(ChatTemperature),
		model.WithMaxTokens(ChatMaxTokens),
	))
	if err != nil {
		classified := ClassifyError(err, req.Persona.Name)
		s.logger.Warn("chat generation failed",
			zap.String("persona", req.Persona.ID),
			zap.String("kind", string(classified.Kind)),
			zap.Error(err))
		return Reply{}, classified
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return Reply{}, fault.New(fault.Unknown, fmt.Sprintf("%s returned an empty response", nameOr(req.Persona.Name)))
	}

	s.logger.Info("generated response",
		zap.String("persona", req.Persona.ID),
		zap.String("mood", req.Mood),
		zap.Int("history", len(req.History)),
		zap.Int("length", len(text)))
	return Reply{Text: text}, nil
}

// ExtractWisdom asks for a short quote drawn from text. An empty string means
// the text had none.
func (s *Service) ExtractWisdom(ctx context.Context, text string) (string, error) {
	input := map[string]any{
		"system":  wisdomSystemPrompt,
		"history": []*schema.Message{},
		"query":   wisdomUserPrompt(text),
	}

	resp, err := s.chain.Invoke(ctx, input, compose.WithChatModelOption(
		model.WithTemperature(WisdomTemperature),
		model.WithMaxTokens(WisdomMaxTokens),
	))
	if err != nil {
		return "", ClassifyError(err, "Wisdom extraction")
	}
	return cleanQuote(resp.Content), nil
}

// buildHistoryMessages 把客户端历史转换为模型消息，primer 作为开头的助手确认。
func buildHistoryMessages(primer string, turns []chat.Turn) []*schema.Message {
	history := make([]*schema.Message, 0, len(turns)+1)
	if primer = strings.TrimSpace(primer); primer != "" {
		history = append(history, schema.AssistantMessage(primer, nil))
	}
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		switch t.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(content, nil))
		}
	}
	return history
}

func cleanQuote(raw string) string {
	q := strings.TrimSpace(raw)
	for len(q) >= 2 {
		first, last := q[0], q[len(q)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '*' && last == '*') {
			q = strings.TrimSpace(q[1 : len(q)-1])
			continue
		}
		break
	}
	q = strings.TrimPrefix(q, "“")
	q = strings.TrimSuffix(q, "”")
	return strings.TrimSpace(q)
}

func nameOr(name string) string {
	if name == "" {
		return "The assistant"
	}
	return name
}
