// Package emotion reduces raw expression scores to a single emotion sample.
package emotion

import (
	"time"

	model "github.com/Lusa1101/FutureMe-Live/internal/model/emotion"
)

// Threshold 是判定为有效情绪的最低分数，低于该值视为没有可靠信号。
const Threshold = 0.3

// Classify picks the highest scoring label of the vocabulary. Keys outside the
// vocabulary and scores outside [0, 1] (NaN included) are ignored. No face, or
// a best score below Threshold, yields neutral with confidence 0.
func Classify(expr model.Expressions, faceFound bool, at time.Time) model.Sample {
	if !faceFound || len(expr) == 0 {
		return model.NeutralAt(at)
	}

	best := model.Neutral
	bestScore := -1.0
	for _, label := range model.Labels() {
		score, ok := expr[string(label)]
		if !ok || !(score >= 0 && score <= 1) {
			continue
		}
		if score > bestScore {
			best, bestScore = label, score
		}
	}

	if bestScore < Threshold {
		return model.NeutralAt(at)
	}
	return model.Sample{Label: best, Confidence: bestScore, SourceTimestamp: at}
}
