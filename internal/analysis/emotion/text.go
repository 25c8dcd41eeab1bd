package emotion

import (
	"strings"

	model "github.com/Lusa1101/FutureMe-Live/internal/model/emotion"
)

var keywordBuckets = map[model.Label][]string{
	model.Happy: {
		"happy", "glad", "great", "awesome", "amazing", "promoted", "love", "excited", "thanks", "thank you",
		"yay", "lol", "开心", "高兴", "太棒了",
	},
	model.Sad: {
		"sad", "unhappy", "cry", "crying", "depressed", "lonely", "upset", "hurt", "miss", "lost",
		"难过", "伤心", "失落",
	},
	model.Angry: {
		"angry", "furious", "rage", "mad", "annoyed", "pissed", "hate", "unfair", "生气", "愤怒",
	},
	model.Surprised: {
		"wow", "unbelievable", "can't believe", "no way", "suddenly", "shocked", "surprise", "惊喜",
	},
	model.Fearful: {
		"afraid", "scared", "anxious", "worried", "nervous", "panic", "terrified", "害怕", "担心",
	},
	model.Disgusted: {
		"gross", "disgusting", "yuck", "ew", "nasty", "sick of", "恶心",
	},
}

// FromText 基于关键词粗略推断文本情绪，用于没有摄像头信号时的兜底。
// The returned confidence is the share of matched keywords, capped at 1.
func FromText(text string) (model.Label, float64) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return model.Neutral, 0
	}

	words := strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?' || r == '\n' || r == '\t'
	})
	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordSet[w] = struct{}{}
	}

	best := model.Neutral
	bestHits := 0
	for _, label := range model.Labels() {
		hits := 0
		for _, kw := range keywordBuckets[label] {
			if matchKeyword(normalized, wordSet, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = label, hits
		}
	}

	if bestHits == 0 {
		return model.Neutral, 0
	}
	confidence := float64(bestHits) / 3
	if confidence > 1 {
		confidence = 1
	}
	return best, confidence
}

// 多词短语和中文按子串匹配，单个英文词按整词匹配。
func matchKeyword(text string, words map[string]struct{}, kw string) bool {
	if strings.Contains(kw, " ") || kw[0] >= 0x80 {
		return strings.Contains(text, kw)
	}
	_, ok := words[kw]
	return ok
}
