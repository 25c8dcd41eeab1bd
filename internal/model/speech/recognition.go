package speech

// Fragment is one piece of a native recognition result event.
type Fragment struct {
	Transcript string `json:"transcript"`
	IsFinal    bool   `json:"isFinal"`
}

// RecognitionErrorCode 是平台语音识别上报的错误码。
type RecognitionErrorCode string

const (
	ErrCodeNotAllowed   RecognitionErrorCode = "not-allowed"
	ErrCodeNoSpeech     RecognitionErrorCode = "no-speech"
	ErrCodeAudioCapture RecognitionErrorCode = "audio-capture"
	ErrCodeNetwork      RecognitionErrorCode = "network"
	ErrCodeUnsupported  RecognitionErrorCode = "unsupported"
	ErrCodeStartFailed  RecognitionErrorCode = "start-failed"
)

// Status is the state of a recognition or synthesis machine.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusListening Status = "listening"
	StatusSpeaking  Status = "speaking"
	StatusError     Status = "error"
)
