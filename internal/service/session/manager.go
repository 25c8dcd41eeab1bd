package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Lusa1101/FutureMe-Live/internal/model/persona"
	"github.com/Lusa1101/FutureMe-Live/internal/service/ai"
	"github.com/Lusa1101/FutureMe-Live/internal/service/emotion"
	"github.com/Lusa1101/FutureMe-Live/internal/service/speech"
)

// SessionStore is the chat store the manager opens controllers over.
type SessionStore interface {
	Store
	EndSession(ctx context.Context, sessionID string) error
}

// ManagerConfig holds the dependencies shared by every controller.
type ManagerConfig struct {
	Responder ai.Responder
	Remote    speech.RemoteTTS
	// NewDetector 为每个会话创建表情识别器，为空时使用客户端上报的分数。
	NewDetector    func() emotion.Detector
	SampleInterval time.Duration
	Logger         *zap.Logger
}

// Manager keeps one controller per session id.
type Manager struct {
	store    SessionStore
	personas persona.Store
	cfg      ManagerConfig
	logger   *zap.Logger

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewManager creates a manager.
func NewManager(store SessionStore, personas persona.Store, cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.NewDetector == nil {
		cfg.NewDetector = func() emotion.Detector { return emotion.ReportedDetector{} }
	}
	return &Manager{
		store:       store,
		personas:    personas,
		cfg:         cfg,
		logger:      cfg.Logger,
		controllers: make(map[string]*Controller),
	}
}

// Open returns the controller of sessionID, starting one on first use.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.controllers[sessionID]; ok {
		return c, nil
	}

	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p, ok := persona.Resolve(m.personas, session.PersonaID)
	if !ok {
		return nil, fmt.Errorf("persona %q not found", session.PersonaID)
	}

	c := NewController(Options{
		SessionID:      session.ID,
		Persona:        p,
		Store:          m.store,
		Responder:      m.cfg.Responder,
		Detector:       m.cfg.NewDetector(),
		Remote:         m.cfg.Remote,
		SampleInterval: m.cfg.SampleInterval,
		Logger:         m.logger,
	})
	c.Start()
	m.controllers[sessionID] = c

	m.logger.Info("session controller started",
		zap.String("session_id", sessionID),
		zap.String("persona", p.ID))
	return c, nil
}

// Get returns a running controller.
func (m *Manager) Get(sessionID string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.controllers[sessionID]
	return c, ok
}

// Close tears down the controller and discards the session.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	c, ok := m.controllers[sessionID]
	delete(m.controllers, sessionID)
	m.mu.Unlock()

	if ok {
		c.Close()
	}
	return m.store.EndSession(ctx, sessionID)
}

// Shutdown closes every controller. Sessions stay in the store until the process exits.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	controllers := m.controllers
	m.controllers = make(map[string]*Controller)
	m.mu.Unlock()

	for _, c := range controllers {
		c.Close()
	}
}
