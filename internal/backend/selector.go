package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/motionlab-ai/pose-backend/internal/profile"
	"github.com/motionlab-ai/pose-backend/internal/shared"
)

// Attempt records one candidate that did not commit.
type Attempt struct {
	Mode Mode
	Err  error
}

// Selection is a committed runtime plus the trail of candidates tried
// before it.
type Selection struct {
	Mode    Mode
	Runtime Runtime
	Trail   []Attempt
}

type Selector struct {
	strategies map[Mode]Strategy
	logger     *slog.Logger
}

func NewSelector(logger *slog.Logger, strategies ...Strategy) *Selector {
	byMode := make(map[Mode]Strategy, len(strategies))
	for _, s := range strategies {
		byMode[s.Mode()] = s
	}
	return &Selector{
		strategies: byMode,
		logger:     logger.With("component", "backend-selector"),
	}
}

// Select walks the candidate order for the preference and commits the first
// strategy whose Open succeeds. Failures along the way are collected, not
// fatal, until the cpu candidate itself fails: cpu is the floor, so that is
// a model load failure.
func (s *Selector) Select(ctx context.Context, preferred Mode, p profile.Profile) (*Selection, error) {
	var trail []Attempt

	for _, mode := range Candidates(preferred) {
		strategy, ok := s.strategies[mode]
		if !ok {
			trail = append(trail, Attempt{
				Mode: mode,
				Err:  shared.BackendUnavailable(fmt.Sprintf("no %s strategy registered", mode), nil),
			})
			continue
		}

		if !strategy.Available(ctx) {
			s.logger.Debug("backend not available", "mode", mode, "model", p.Name)
			trail = append(trail, Attempt{
				Mode: mode,
				Err:  shared.BackendUnavailable(fmt.Sprintf("%s not available", mode), nil),
			})
			continue
		}

		rt, err := strategy.Open(ctx, p)
		if err != nil {
			s.logger.Warn("backend open failed", "mode", mode, "model", p.Name, "error", err)
			if mode == ModeCPU {
				return nil, shared.ModelLoadFailure(fmt.Sprintf("cpu fallback failed for %s", p.Name), err)
			}
			trail = append(trail, Attempt{Mode: mode, Err: err})
			continue
		}

		if len(trail) > 0 {
			s.logger.Info("backend committed after fallback",
				"mode", mode, "model", p.Name, "attempts", len(trail))
		} else {
			s.logger.Info("backend committed", "mode", mode, "model", p.Name)
		}
		return &Selection{Mode: mode, Runtime: rt, Trail: trail}, nil
	}

	// candidates always end with cpu, so reaching here means even the cpu
	// strategy was missing or unavailable
	return nil, shared.ModelLoadFailure(fmt.Sprintf("no backend could open %s", p.Name), lastErr(trail))
}

func lastErr(trail []Attempt) error {
	if len(trail) == 0 {
		return nil
	}
	return trail[len(trail)-1].Err
}
