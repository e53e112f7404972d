package backend

import (
	"context"
	"log/slog"

	"github.com/motionlab-ai/pose-backend/internal/profile"
)

// Engine owns both strategy families and routes an open request to the one
// the profile's runtime class needs.
type Engine struct {
	local  []Strategy
	remote []Strategy
	logger *slog.Logger
}

func NewEngine(local, remote []Strategy, logger *slog.Logger) *Engine {
	return &Engine{
		local:  local,
		remote: remote,
		logger: logger,
	}
}

func (e *Engine) Open(ctx context.Context, preferred Mode, p profile.Profile) (*Selection, error) {
	set := e.remote
	if p.Runtime == profile.RuntimeLocal {
		set = e.local
	}
	return NewSelector(e.logger, set...).Select(ctx, preferred, p)
}
