// Package emotion defines the facial-expression vocabulary shared by the
// detector, the classifier and the conversation flow.
package emotion

import (
	"strings"
	"time"
)

// Label is one of the seven expression classes the detector reports.
type Label string

const (
	Happy     Label = "happy"
	Sad       Label = "sad"
	Angry     Label = "angry"
	Surprised Label = "surprised"
	Fearful   Label = "fearful"
	Disgusted Label = "disgusted"
	Neutral   Label = "neutral"
)

var labels = []Label{Happy, Sad, Angry, Surprised, Fearful, Disgusted, Neutral}

// Labels returns the vocabulary in a fixed order.
func Labels() []Label {
	return append([]Label(nil), labels...)
}

// ParseLabel reports whether s names a label of the vocabulary.
func ParseLabel(s string) (Label, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, l := range labels {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// Sample is the output of one detection tick.
type Sample struct {
	Label           Label     `json:"label"`
	Confidence      float64   `json:"confidence"`
	SourceTimestamp time.Time `json:"sourceTimestamp"`
}

// NeutralAt is the no-signal sample.
func NeutralAt(at time.Time) Sample {
	return Sample{Label: Neutral, Confidence: 0, SourceTimestamp: at}
}

// Expressions holds raw per-label scores as produced by the expression model.
type Expressions map[string]float64
