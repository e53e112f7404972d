package detector

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/motionlab-ai/pose-backend/internal/backend"
	"github.com/motionlab-ai/pose-backend/internal/decode"
	"github.com/motionlab-ai/pose-backend/internal/frame"
	"github.com/motionlab-ai/pose-backend/internal/pose"
	"github.com/motionlab-ai/pose-backend/internal/profile"
	"github.com/motionlab-ai/pose-backend/internal/shared"
)

// Opener resolves a runtime for a profile, honoring an acceleration
// preference. *backend.Engine is the production implementation.
type Opener interface {
	Open(ctx context.Context, preferred backend.Mode, p profile.Profile) (*backend.Selection, error)
}

// Detector is the per-session pipeline: preprocess, invoke, decode, map,
// assemble. One runtime is open at a time and all calls serialize on the
// internal lock.
type Detector struct {
	mu     sync.Mutex
	cfg    Config
	prof   profile.Profile
	opener Opener
	sel    *backend.Selection
	mapper *pose.Mapper
	logger *slog.Logger
	closed bool
}

func New(ctx context.Context, cfg Config, opener Opener, logger *slog.Logger) (*Detector, error) {
	cfg = cfg.normalized()
	prof := cfg.selectProfile()

	sel, err := opener.Open(ctx, cfg.PreferredAcceleration, prof)
	if err != nil {
		return nil, err
	}

	mapper, err := pose.MapperFor(prof)
	if err != nil {
		sel.Runtime.Close()
		return nil, err
	}

	l := logger.With("component", "detector")
	l.Info("detector ready",
		"model", prof.Name, "mode", sel.Mode, "fallbacks", len(sel.Trail))

	return &Detector{
		cfg:    cfg,
		prof:   prof,
		opener: opener,
		sel:    sel,
		mapper: mapper,
		logger: l,
	}, nil
}

// Detect runs one frame through the full pipeline.
func (d *Detector) Detect(ctx context.Context, in frame.Input) (*pose.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, shared.InferenceFailure("detector closed", shared.ErrClosed)
	}

	pre, err := frame.Preprocess(in, d.prof)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := d.sel.Runtime.Invoke(ctx, pre.Tensor)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, shared.NewPipelineError(shared.KindCancelled, "inference interrupted", err)
		}
		return nil, err
	}
	elapsed := time.Since(start)

	raw, err := decode.Output(out, d.prof)
	if err != nil {
		return nil, err
	}

	for i := range raw {
		raw[i].X, raw[i].Y = pre.Mapping.Apply(raw[i].X, raw[i].Y)
	}
	landmarks := d.mapper.Map(raw)

	poses := make([]pose.Pose, 0, 1)
	if p, ok := pose.Assemble(landmarks); ok {
		poses = append(poses, p)
	}
	poses = pose.Rank(poses, d.cfg.MinConfidence, d.cfg.MaxPoses)

	return &pose.Result{
		Poses:         poses,
		SourceWidth:   pre.Mapping.SourceWidth,
		SourceHeight:  pre.Mapping.SourceHeight,
		CapturedAt:    start,
		InferenceTime: elapsed,
		Model:         d.prof.Name,
	}, nil
}

// UpdateConfig applies a new configuration. The runtime is reopened only
// when the resolved profile or the acceleration preference changed; filter
// tweaks are free.
func (d *Detector) UpdateConfig(ctx context.Context, cfg Config) error {
	cfg = cfg.normalized()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return shared.InferenceFailure("detector closed", shared.ErrClosed)
	}

	newProf := cfg.selectProfile()
	sameRuntime := newProf.Name == d.prof.Name &&
		cfg.PreferredAcceleration == d.cfg.PreferredAcceleration

	if sameRuntime {
		d.cfg = cfg
		return nil
	}

	sel, err := d.opener.Open(ctx, cfg.PreferredAcceleration, newProf)
	if err != nil {
		return err
	}
	mapper, err := pose.MapperFor(newProf)
	if err != nil {
		sel.Runtime.Close()
		return err
	}

	if err := d.sel.Runtime.Close(); err != nil {
		d.logger.Warn("closing previous runtime", "error", err)
	}

	d.logger.Info("detector reconfigured",
		"model", newProf.Name, "mode", sel.Mode, "previous", d.prof.Name)

	d.cfg = cfg
	d.prof = newProf
	d.sel = sel
	d.mapper = mapper
	return nil
}

func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.sel.Runtime.Close()
}

func (d *Detector) ActiveMode() backend.Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sel.Mode
}

// Trail reports the fallback attempts made before the active runtime
// committed.
func (d *Detector) Trail() []backend.Attempt {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]backend.Attempt(nil), d.sel.Trail...)
}

func (d *Detector) Profile() profile.Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prof
}

func (d *Detector) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}
