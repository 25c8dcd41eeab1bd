package ai

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	analysis "github.com/Lusa1101/FutureMe-Live/internal/analysis/emotion"
	"github.com/Lusa1101/FutureMe-Live/internal/model/emotion"
)

const offlineGeneric = "I'm here with you. Tell me a little more about what's on your mind."

// OfflineResponder answers from the persona's canned, emotion-keyed replies
// when no language model is configured.
type OfflineResponder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewOfflineResponder uses rng for reply choice; nil seeds from the clock.
func NewOfflineResponder(rng *rand.Rand) *OfflineResponder {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &OfflineResponder{rng: rng}
}

// Respond picks a reply for the detected emotion, then the mood, then the message text.
func (o *OfflineResponder) Respond(_ context.Context, req ChatRequest) (Reply, error) {
	if strings.TrimSpace(req.Message) == "" {
		return Reply{}, errors.New("message is required")
	}

	label := offlineLabel(req)
	replies := req.Persona.OfflineReplies[string(label)]
	if len(replies) == 0 {
		replies = req.Persona.OfflineReplies[string(emotion.Neutral)]
	}
	if len(replies) == 0 {
		text := strings.TrimSpace(req.Persona.FallbackReply)
		if text == "" {
			text = offlineGeneric
		}
		return Reply{Text: text, Offline: true}, nil
	}

	o.mu.Lock()
	idx := o.rng.Intn(len(replies))
	o.mu.Unlock()
	return Reply{Text: replies[idx], Offline: true}, nil
}

func offlineLabel(req ChatRequest) emotion.Label {
	if l, ok := emotion.ParseLabel(req.Emotion); ok && l != emotion.Neutral {
		return l
	}
	if l, ok := emotion.ParseLabel(req.Mood); ok {
		return l
	}
	l, _ := analysis.FromText(req.Message)
	return l
}
