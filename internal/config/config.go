package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/Lusa1101/FutureMe-Live/internal/fault"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	TTS     TTSConfig
	Emotion EmotionConfig
	Persona PersonaConfig
	Log     LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses configuration from the supplied map instead of the process environment.
func LoadFrom(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	addr, err := normalizeAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	cfg.AI.trim()
	cfg.TTS.APIKey = strings.TrimSpace(cfg.TTS.APIKey)

	if cfg.Emotion.SampleInterval <= 0 {
		return nil, fmt.Errorf("invalid EMOTION_SAMPLE_INTERVAL value %q", cfg.Emotion.SampleInterval)
	}

	return &cfg, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Addr string
}

// normalizeAddr 解析服务器监听地址。
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey    string        `env:"ARK_API_KEY"`
	AccessKey string        `env:"ARK_ACCESS_KEY"`
	SecretKey string        `env:"ARK_SECRET_KEY"`
	Model     string        `env:"ARK_MODEL"`
	BaseURL   string        `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region    string        `env:"ARK_REGION" envDefault:"cn-beijing"`
	Timeout   time.Duration `env:"ARK_TIMEOUT" envDefault:"60s"`
}

func (c *AIConfig) trim() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.AccessKey = strings.TrimSpace(c.AccessKey)
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.Model = strings.TrimSpace(c.Model)
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。采样参数按调用设置，这里不固定。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fault.New(fault.Configuration,
			"LLM API key is not configured. Please set ARK_API_KEY (or ARK_ACCESS_KEY/ARK_SECRET_KEY) and ARK_MODEL in your environment variables.")
	}

	timeout := c.Timeout
	cfg := &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
		Timeout:   &timeout,
	}

	return ark.NewChatModel(ctx, cfg)
}

// TTSConfig 描述远程语音合成配置。
type TTSConfig struct {
	APIKey      string        `env:"ELEVENLABS_API_KEY"`
	VoiceID     string        `env:"ELEVENLABS_VOICE_ID" envDefault:"v8DWAeuEGQSfwxqdH9t2"`
	ModelID     string        `env:"ELEVENLABS_MODEL_ID" envDefault:"eleven_monolingual_v1"`
	BaseURL     string        `env:"ELEVENLABS_BASE_URL" envDefault:"https://api.elevenlabs.io"`
	Timeout     time.Duration `env:"TTS_TIMEOUT" envDefault:"30s"`
	LocalEngine string        `env:"LOCAL_TTS_ENGINE"`
}

// Enabled reports whether a remote TTS credential is present. A missing key
// routes speech to local synthesis instead of failing.
func (c TTSConfig) Enabled() bool {
	return c.APIKey != ""
}

// EmotionConfig 描述表情识别相关配置。
type EmotionConfig struct {
	DetectorURL    string        `env:"EMOTION_DETECTOR_URL"`
	SampleInterval time.Duration `env:"EMOTION_SAMPLE_INTERVAL" envDefault:"1s"`
}

// PersonaConfig selects the persona catalogue.
type PersonaConfig struct {
	File    string `env:"PERSONA_FILE"`
	Default string `env:"DEFAULT_PERSONA" envDefault:"futureme"`
}

// LogConfig 控制日志输出。
type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Development bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}
