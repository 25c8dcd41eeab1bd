package chat

import "time"

// Session captures a transient anonymous conversation.
type Session struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"personaId"`
	Mood      string    `json:"mood,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TimelineEntry 记录用户每次发言时的情绪，用于展示成长时间线。
type TimelineEntry struct {
	At         time.Time `json:"at"`
	Emotion    string    `json:"emotion"`
	Confidence float64   `json:"confidence"`
	Snippet    string    `json:"snippet"`
}
