package emotion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	model "github.com/Lusa1101/FutureMe-Live/internal/model/emotion"
)

// Frame is one sampled camera frame. Browsers that run the expression model
// themselves send the scores instead of the image.
type Frame struct {
	Image       []byte            `json:"-"`
	MimeType    string            `json:"mimeType,omitempty"`
	Expressions model.Expressions `json:"expressions,omitempty"`
	FaceFound   bool              `json:"faceFound"`
	Reported    bool              `json:"-"`
	CapturedAt  time.Time         `json:"capturedAt"`
}

// Detector wraps an external expression model.
type Detector interface {
	Load(ctx context.Context) error
	Detect(ctx context.Context, frame Frame) (model.Expressions, bool, error)
}

// ErrNoScores is returned when a frame reaches ReportedDetector without scores.
var ErrNoScores = errors.New("frame carries no expression scores")

// ReportedDetector trusts the scores the client computed for the frame.
type ReportedDetector struct{}

// Load always succeeds; the model runs client side.
func (ReportedDetector) Load(context.Context) error { return nil }

// Detect returns the reported scores.
func (ReportedDetector) Detect(_ context.Context, frame Frame) (model.Expressions, bool, error) {
	if !frame.Reported {
		return nil, false, ErrNoScores
	}
	return frame.Expressions, frame.FaceFound, nil
}

// HTTPDetector calls a remote expression service.
type HTTPDetector struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPDetector returns a detector bound to baseURL.
func NewHTTPDetector(baseURL string, timeout time.Duration) *HTTPDetector {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPDetector{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Load probes the service health endpoint.
func (d *HTTPDetector) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("expression model unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("expression model health check returned %d", resp.StatusCode)
	}
	return nil
}

type detectRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mimeType"`
}

type detectResponse struct {
	FaceFound   bool               `json:"faceFound"`
	Expressions map[string]float64 `json:"expressions"`
}

// Detect posts the frame image and decodes the expression scores.
func (d *HTTPDetector) Detect(ctx context.Context, frame Frame) (model.Expressions, bool, error) {
	if len(frame.Image) == 0 {
		return nil, false, errors.New("frame has no image")
	}

	mime := frame.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	body, err := json.Marshal(detectRequest{
		Image:    base64.StdEncoding.EncodeToString(frame.Image),
		MimeType: mime,
	})
	if err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+"/detect", bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, false, fmt.Errorf("expression model returned %d", resp.StatusCode)
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("decode expression scores: %w", err)
	}
	return model.Expressions(out.Expressions), out.FaceFound, nil
}

// FrameSource yields the most recent frame.
type FrameSource interface {
	Latest() (Frame, bool)
}

// FrameBuffer keeps only the newest frame.
type FrameBuffer struct {
	mu    sync.Mutex
	frame Frame
	has   bool
}

// Put replaces the buffered frame.
func (b *FrameBuffer) Put(frame Frame) {
	b.mu.Lock()
	b.frame = frame
	b.has = true
	b.mu.Unlock()
}

// Latest returns the newest frame, if any.
func (b *FrameBuffer) Latest() (Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame, b.has
}

// Reset drops the buffered frame.
func (b *FrameBuffer) Reset() {
	b.mu.Lock()
	b.frame = Frame{}
	b.has = false
	b.mu.Unlock()
}
