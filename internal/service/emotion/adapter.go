// Package emotion samples camera frames, runs them through an expression
// detector and keeps the current emotion of one session.
package emotion

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	analysis "github.com/Lusa1101/FutureMe-Live/internal/analysis/emotion"
	model "github.com/Lusa1101/FutureMe-Live/internal/model/emotion"
)

// Mode 表示适配器的工作模式。
type Mode string

const (
	ModeLoading Mode = "loading"
	ModeAuto    Mode = "auto"
	// ModeManual 在模型加载失败后永久生效，只接受手动注入的情绪。
	ModeManual Mode = "manual"
)

// ErrNotManual is returned by Inject outside manual mode.
var ErrNotManual = errors.New("emotion can only be set manually when detection is unavailable")

// Config 控制采样节奏和回调。
type Config struct {
	Interval    time.Duration
	MaxFrameAge time.Duration
	OnSample    func(model.Sample)
	Logger      *zap.Logger
	Clock       func() time.Time
}

// Adapter turns frames into emotion samples at a fixed interval.
type Adapter struct {
	detector Detector
	source   FrameSource
	interval time.Duration
	maxAge   time.Duration
	onSample func(model.Sample)
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.RWMutex
	mode    Mode
	current model.Sample
}

// NewAdapter 创建情绪适配器，Load 之前处于 loading 模式。
func NewAdapter(detector Detector, source FrameSource, cfg Config) *Adapter {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxFrameAge <= 0 {
		cfg.MaxFrameAge = 5 * cfg.Interval
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Adapter{
		detector: detector,
		source:   source,
		interval: cfg.Interval,
		maxAge:   cfg.MaxFrameAge,
		onSample: cfg.OnSample,
		logger:   cfg.Logger,
		now:      cfg.Clock,
		mode:     ModeLoading,
		current:  model.NeutralAt(cfg.Clock()),
	}
}

// Load initialises the detector once. A failure switches to manual mode for
// the rest of the adapter's life; there is no retry.
func (a *Adapter) Load(ctx context.Context) error {
	a.mu.Lock()
	if a.mode != ModeLoading {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	var err error
	if a.detector == nil {
		err = errors.New("no expression detector configured")
	} else {
		err = a.detector.Load(ctx)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.mode = ModeManual
		a.logger.Warn("expression model failed to load, switching to manual mode", zap.Error(err))
		return err
	}
	a.mode = ModeAuto
	return nil
}

// Mode returns the current mode.
func (a *Adapter) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

// Current returns the latest sample.
func (a *Adapter) Current() model.Sample {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// Tick runs one detection. It reports false when nothing was sampled: the
// adapter is not in auto mode or no fresh frame is available. Detector errors
// are folded into a neutral sample.
func (a *Adapter) Tick(ctx context.Context) (model.Sample, bool) {
	if a.Mode() != ModeAuto || a.source == nil {
		return model.Sample{}, false
	}

	frame, ok := a.source.Latest()
	if !ok {
		return model.Sample{}, false
	}
	now := a.now()
	if !frame.CapturedAt.IsZero() && now.Sub(frame.CapturedAt) > a.maxAge {
		return model.Sample{}, false
	}

	at := frame.CapturedAt
	if at.IsZero() {
		at = now
	}

	expr, face, err := a.detector.Detect(ctx, frame)
	if err != nil {
		a.logger.Debug("expression detection failed", zap.Error(err))
		expr, face = nil, false
	}

	sample := analysis.Classify(expr, face, at)
	a.publish(sample)
	return sample, true
}

// Inject sets the current emotion by hand. Only valid in manual mode.
func (a *Adapter) Inject(label model.Label) (model.Sample, error) {
	if _, ok := model.ParseLabel(string(label)); !ok {
		return model.Sample{}, errors.New("unknown emotion label " + string(label))
	}
	if a.Mode() != ModeManual {
		return model.Sample{}, ErrNotManual
	}

	sample := model.Sample{Label: label, Confidence: 1, SourceTimestamp: a.now()}
	if label == model.Neutral {
		sample.Confidence = 0
	}
	a.publish(sample)
	return sample, nil
}

// Run ticks at the configured interval until ctx is done.
func (a *Adapter) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Tick(ctx)
		}
	}
}

func (a *Adapter) publish(sample model.Sample) {
	a.mu.Lock()
	a.current = sample
	a.mu.Unlock()

	if a.onSample != nil {
		a.onSample(sample)
	}
}
