package speech

// VoiceSettings 远程语音合成的音色参数。
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultVoiceSettings 是 FutureMe 语音使用的固定参数。
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{Stability: 0.5, SimilarityBoost: 0.75, Style: 0.5, UseSpeakerBoost: true}
}

// TTSRequest is the body posted to the remote synthesis endpoint.
type TTSRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Fallback values of TTSResult.
const (
	FallbackNone  = ""
	FallbackLocal = "local"
)

// TTSResult 是 HTTP 合成接口的返回。失败时 Fallback 为 local，由客户端本地朗读。
type TTSResult struct {
	Success     bool    `json:"success"`
	AudioBase64 string  `json:"audioBase64,omitempty"`
	MimeType    string  `json:"mimeType,omitempty"`
	Fallback    string  `json:"fallback,omitempty"`
	Voice       *Voice  `json:"voice,omitempty"`
	Rate        float64 `json:"rate,omitempty"`
	Pitch       float64 `json:"pitch,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Voice is one local synthesis voice.
type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang,omitempty"`
	Default bool   `json:"default,omitempty"`
}

// Utterance is one local synthesis request.
type Utterance struct {
	Text  string  `json:"text"`
	Voice *Voice  `json:"voice,omitempty"`
	Rate  float64 `json:"rate"`
	Pitch float64 `json:"pitch"`
}

// Local utterance defaults.
const (
	DefaultRate  = 0.9
	DefaultPitch = 1.0
)
