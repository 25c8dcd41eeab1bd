package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	emotionmodel "github.com/Lusa1101/FutureMe-Live/internal/model/emotion"
	"github.com/Lusa1101/FutureMe-Live/internal/model/speech"
	chatservice "github.com/Lusa1101/FutureMe-Live/internal/service/chat"
	"github.com/Lusa1101/FutureMe-Live/internal/service/emotion"
	"github.com/Lusa1101/FutureMe-Live/internal/service/session"
	speechsvc "github.com/Lusa1101/FutureMe-Live/internal/service/speech"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Inbound message types.
const (
	msgFrame             = "frame"
	msgEmotion           = "emotion"
	msgRecognitionStart  = "recognition.start"
	msgRecognitionStop   = "recognition.stop"
	msgRecognitionResult = "recognition.result"
	msgRecognitionError  = "recognition.error"
	msgRecognitionEnd    = "recognition.end"
	msgSend              = "send"
	msgSpeak             = "speak"
	msgStop              = "stop"
	msgPlaybackEnded     = "playback.ended"
	msgPlaybackError     = "playback.error"
	msgVoices            = "voices"
	msgLocalEnded        = "local.ended"
)

// WebSocketHandler 实时会话处理器：浏览器上报摄像头帧与语音回调，服务端下发状态与播放指令
type WebSocketHandler struct {
	sessions *session.Manager
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(sessions *session.Manager, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		sessions: sessions,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/live/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// FrameMessage 摄像头帧：图片或浏览器端算好的表情分数二选一
type FrameMessage struct {
	Image       string                   `json:"image"`
	MimeType    string                   `json:"mimeType"`
	Expressions emotionmodel.Expressions `json:"expressions"`
	FaceFound   bool                     `json:"faceFound"`
}

// RecognitionResultMessage 对应一次原生识别结果事件
type RecognitionResultMessage struct {
	Results []speech.Fragment `json:"results"`
}

// CompletionMessage 回报播放或本地朗读指令的结束
type CompletionMessage struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type textMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// liveConn 串行化写操作，gorilla 连接不支持并发写
type liveConn struct {
	conn      *websocket.Conn
	sessionID string
	logger    *zap.Logger
	mu        sync.Mutex
}

func (c *liveConn) write(msgType string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := c.conn.WriteJSON(outgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		c.logger.Debug("websocket write failed", zap.String("type", msgType), zap.Error(err))
	}
	return err
}

func (c *liveConn) sendError(message string) {
	_ = c.write("error", map[string]string{"error": message})
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	ctrl, err := h.sessions.Open(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := h.logger.With(zap.String("session_id", sessionID))
	logger.Info("live connection opened")
	defer logger.Info("live connection closed")

	lc := &liveConn{conn: conn, sessionID: sessionID, logger: logger}

	// 连接上下文不继承请求上下文，升级后由读循环决定生命周期
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	detach := ctrl.Attach(func(cmd speechsvc.Command) error {
		return lc.write(cmd.Type, cmd)
	})
	defer detach()

	events, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()
	go h.relayEvents(lc, events, cancel)

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	go h.pingLoop(ctx, lc)

	_ = lc.write("connected", map[string]any{
		"persona":     ctrl.Persona().ID,
		"emotionMode": ctrl.EmotionMode(),
		"emotion":     ctrl.Emotion(),
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Info("websocket read error", zap.Error(err))
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			lc.sendError("session mismatch")
			continue
		}

		h.handleMessage(ctx, lc, ctrl, &msg)
	}
}

// relayEvents 转发控制器事件；会话被关闭时断开连接
func (h *WebSocketHandler) relayEvents(lc *liveConn, events <-chan session.Event, cancel context.CancelFunc) {
	for ev := range events {
		if err := lc.write(string(ev.Type), ev); err != nil {
			break
		}
	}
	cancel()
	lc.mu.Lock()
	_ = lc.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
		time.Now().Add(writeTimeout))
	lc.mu.Unlock()
	_ = lc.conn.Close()
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, lc *liveConn, ctrl *session.Controller, msg *inboundMessage) {
	switch msg.Type {
	case msgFrame:
		h.handleFrame(lc, ctrl, msg.Data)
	case msgEmotion:
		var payload struct {
			Label string `json:"label"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			lc.sendError("invalid emotion payload")
			return
		}
		label, _ := emotionmodel.ParseLabel(payload.Label)
		if _, err := ctrl.SetEmotion(label); err != nil {
			lc.sendError(err.Error())
		}
	case msgRecognitionStart:
		// 失败同时以 recognition 事件下发
		_ = ctrl.StartListening()
	case msgRecognitionStop:
		ctrl.StopListening()
	case msgRecognitionResult:
		var payload RecognitionResultMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			lc.sendError("invalid recognition payload")
			return
		}
		ctrl.HandleTranscript(payload.Results)
	case msgRecognitionError:
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(msg.Data, &payload)
		ctrl.HandleRecognitionError(payload.Error)
	case msgRecognitionEnd:
		ctrl.HandleRecognitionEnd()
	case msgSend:
		var payload textMessage
		_ = json.Unmarshal(msg.Data, &payload)
		h.send(ctx, lc, ctrl, payload.Text)
	case msgSpeak:
		var payload textMessage
		_ = json.Unmarshal(msg.Data, &payload)
		go func() {
			// 失败已作为 speech 事件下发
			_ = ctrl.Speak(ctx, payload.Text)
		}()
	case msgStop:
		ctrl.StopSpeaking()
	case msgPlaybackEnded, msgLocalEnded, msgPlaybackError:
		var payload CompletionMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			lc.sendError("invalid completion payload")
			return
		}
		var err error
		if payload.Error != "" || msg.Type == msgPlaybackError {
			err = errors.New(strings.TrimSpace("playback failed: " + payload.Error))
		}
		ctrl.Complete(payload.ID, err)
	case msgVoices:
		var caps session.Capabilities
		if err := json.Unmarshal(msg.Data, &caps); err != nil {
			lc.sendError("invalid voices payload")
			return
		}
		ctrl.SetCapabilities(caps)
	default:
		lc.sendError("unsupported message type: " + msg.Type)
	}
}

func (h *WebSocketHandler) handleFrame(lc *liveConn, ctrl *session.Controller, raw json.RawMessage) {
	var payload FrameMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		lc.sendError("invalid frame payload")
		return
	}

	frame := emotion.Frame{
		MimeType:    payload.MimeType,
		Expressions: payload.Expressions,
		FaceFound:   payload.FaceFound,
		Reported:    payload.Expressions != nil || (payload.Image == "" && !payload.FaceFound),
		CapturedAt:  time.Now(),
	}
	if payload.Image != "" {
		image := payload.Image
		if i := strings.Index(image, ","); strings.HasPrefix(image, "data:") && i > 0 {
			image = image[i+1:]
		}
		data, err := base64.StdEncoding.DecodeString(image)
		if err != nil {
			lc.sendError("invalid frame image")
			return
		}
		frame.Image = data
	}
	ctrl.PushFrame(frame)
}

// send 在后台生成回复；空文本时使用语音识别累积的输入
func (h *WebSocketHandler) send(ctx context.Context, lc *liveConn, ctrl *session.Controller, text string) {
	if strings.TrimSpace(text) == "" {
		text = ctrl.TakeInput()
	}
	if ctrl.Busy() {
		lc.sendError(session.ErrBusy.Error())
		return
	}
	go func() {
		_, err := ctrl.Send(ctx, text)
		// 其余失败由控制器作为 error 事件广播
		if errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrEmptyMessage) {
			lc.sendError(err.Error())
		}
	}()
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, lc *liveConn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
