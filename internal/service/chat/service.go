package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Lusa1101/FutureMe-Live/internal/model/chat"
)

var (
	ErrPersonaRequired = errors.New("persona id is required")
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("message content is required")
)

const (
	timelineLimit = 200
	snippetRunes  = 80
)

// Service keeps conversation state in memory. Everything about a session is
// discarded when it ends.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
	timeline map[string][]chat.TimelineEntry
}

// NewService bootstraps the in-memory chat service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		timeline: make(map[string][]chat.TimelineEntry),
	}
}

// CreateSession provisions an anonymous session bound to a persona and an optional mood.
func (s *Service) CreateSession(_ context.Context, personaID, mood string) (chat.Session, error) {
	if personaID == "" {
		return chat.Session{}, ErrPersonaRequired
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		PersonaID: personaID,
		Mood:      strings.TrimSpace(mood),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// SetMood changes the explicit mood; an empty mood falls back to the detected emotion.
func (s *Service) SetMood(_ context.Context, sessionID, mood string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	session.Mood = strings.TrimSpace(mood)
	s.sessions[sessionID] = session
	return session, nil
}

// SaveMessage appends a message to the session history and returns the stored copy.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	if message.SessionID == "" {
		return chat.Message{}, ErrSessionNotFound
	}
	if strings.TrimSpace(message.Content) == "" {
		return chat.Message{}, ErrEmptyMessage
	}
	if _, err := chat.NormalizeRole(string(message.Role)); err != nil {
		return chat.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[message.SessionID]; !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	return message, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// RecordEmotion 记录一次用户发言时的情绪，超过上限时丢弃最早的记录。
func (s *Service) RecordEmotion(_ context.Context, sessionID string, entry chat.TimelineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	entry.Snippet = snippet(entry.Snippet)

	entries := append(s.timeline[sessionID], entry)
	if len(entries) > timelineLimit {
		entries = entries[len(entries)-timelineLimit:]
	}
	s.timeline[sessionID] = entries
	return nil
}

// Timeline returns the emotional journey of the session, oldest first.
func (s *Service) Timeline(_ context.Context, sessionID string) ([]chat.TimelineEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}
	return append([]chat.TimelineEntry(nil), s.timeline[sessionID]...), nil
}

// EndSession discards the session and everything recorded for it.
func (s *Service) EndSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	delete(s.messages, sessionID)
	delete(s.timeline, sessionID)
	return nil
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= snippetRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:snippetRunes-1]) + "…"
}
