package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Lusa1101/FutureMe-Live/internal/config"
	"github.com/Lusa1101/FutureMe-Live/internal/logging"
	"github.com/Lusa1101/FutureMe-Live/internal/model/persona"
	"github.com/Lusa1101/FutureMe-Live/internal/service/ai"
	"github.com/Lusa1101/FutureMe-Live/internal/service/speech"
	"github.com/Lusa1101/FutureMe-Live/internal/service/wisdom"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	mode := flag.String("mode", "tts", "测试模式: tts, chat 或 wisdom")
	text := flag.String("text", "", "输入文本")
	outputPath := flag.String("out", "", "输出文件路径 (默认根据模式自动生成)")
	personaID := flag.String("persona", "", "persona ID，留空使用默认")
	mood := flag.String("mood", "neutral", "chat 模式下的心情")
	timeout := flag.Duration("timeout", 45*time.Second, "请求超时时间")

	flag.Parse()

	if strings.TrimSpace(*text) == "" {
		flag.Usage()
		log.Fatal("请通过 -text 提供输入文本")
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "tts":
		runTTS(ctx, cfg, logger, *text, *outputPath)
	case "chat":
		runChat(ctx, cfg, logger, *personaID, *mood, *text)
	case "wisdom":
		runWisdom(ctx, cfg, logger, *text, *outputPath)
	default:
		flag.Usage()
		log.Fatal("请通过 -mode=tts、-mode=chat 或 -mode=wisdom 指定测试模式")
	}
}

// filePlayer 把远程合成的音频写入文件，代替浏览器播放
type filePlayer struct {
	path string
}

func (p filePlayer) Play(_ context.Context, audio []byte) error {
	return os.WriteFile(p.path, audio, 0o644)
}

func (p filePlayer) Stop() {}

func runTTS(ctx context.Context, cfg *config.Config, logger *zap.Logger, text, outputPath string) {
	if outputPath == "" {
		outputPath = fmt.Sprintf("tts-output-%d.mp3", time.Now().Unix())
	}

	remote := speech.NewElevenLabsClient(cfg.TTS, logging.Component(logger, "elevenlabs"))
	local := speech.NewExecEngine(cfg.TTS.LocalEngine)

	var remoteTTS speech.RemoteTTS
	if remote.Configured() {
		remoteTTS = remote
	}
	synth := speech.NewSynthesizer(remoteTTS, filePlayer{path: outputPath}, local, speech.SynthesizerOptions{
		Logger: logging.Component(logger, "synthesizer"),
	})
	defer synth.Close()

	go func() {
		for ev := range synth.Events() {
			if ev.Error != nil {
				log.Printf("speech %s backend=%s error=%s", ev.Status, ev.Backend, ev.Error.Message)
				continue
			}
			log.Printf("speech %s backend=%s", ev.Status, ev.Backend)
		}
	}()

	log.Printf("开始进行 TTS 测试: remote=%v local=%v", remoteTTS != nil, local.Available())
	if err := synth.Speak(ctx, text); err != nil {
		log.Fatalf("TTS 调用失败: %v", err)
	}

	if _, err := os.Stat(outputPath); err == nil {
		log.Printf("TTS 合成成功: 输出文件 %s", outputPath)
		return
	}
	log.Printf("TTS 已通过本地引擎朗读")
}

func runChat(ctx context.Context, cfg *config.Config, logger *zap.Logger, personaID, mood, text string) {
	store := persona.NewMemoryStore(persona.Seed(), cfg.Persona.Default)
	p, ok := persona.Resolve(store, personaID)
	if !ok {
		log.Fatalf("未找到 persona: %s", personaID)
	}

	var responder ai.Responder = ai.NewOfflineResponder(nil)
	if cfg.AI.Enabled() {
		svc, err := ai.NewServiceFromConfig(ctx, cfg.AI, logging.Component(logger, "ai"))
		if err != nil {
			log.Fatalf("AI 服务初始化失败: %v", err)
		}
		responder = svc
	}

	reply, err := responder.Respond(ctx, ai.ChatRequest{Persona: p, Mood: mood, Emotion: mood, Message: text})
	if err != nil {
		log.Fatalf("对话失败: %v", err)
	}
	log.Printf("%s (offline=%v): %s", p.Name, reply.Offline, reply.Text)
}

func runWisdom(ctx context.Context, cfg *config.Config, logger *zap.Logger, text, outputPath string) {
	var extractor wisdom.Extractor
	if cfg.AI.Enabled() {
		svc, err := ai.NewServiceFromConfig(ctx, cfg.AI, logging.Component(logger, "ai"))
		if err != nil {
			log.Fatalf("AI 服务初始化失败: %v", err)
		}
		extractor = svc
	}

	result := wisdom.NewService(extractor, nil, logging.Component(logger, "wisdom")).Generate(ctx, text)
	if !result.Success {
		log.Fatalf("名言生成失败 (%s): %s", result.Kind, result.Error)
	}

	if outputPath == "" {
		outputPath = fmt.Sprintf("wisdom-%d.svg", time.Now().Unix())
	}
	encoded := strings.TrimPrefix(result.ImageDataURI, "data:image/svg+xml;base64,")
	svg, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		log.Fatalf("图片解码失败: %v", err)
	}
	if err := os.WriteFile(outputPath, svg, 0o644); err != nil {
		log.Fatalf("写入图片失败: %v", err)
	}
	log.Printf("名言: %q 主题=%s 输出文件 %s", result.ExtractedWisdom, result.Theme, outputPath)
}
