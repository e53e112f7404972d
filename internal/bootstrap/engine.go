package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/motionlab-ai/pose-backend/internal/backend"
	"github.com/motionlab-ai/pose-backend/internal/detector"
	"github.com/motionlab-ai/pose-backend/internal/gateway"
	"github.com/motionlab-ai/pose-backend/internal/videojob"
)

func ProvideEngineConfig(cfg *Config) backend.RemoteConfig {
	return backend.RemoteConfig{
		BaseURL: cfg.EngineURL,
		APIKey:  cfg.EngineAPIKey,
	}
}

func ProvideEngine(cfg *Config, remoteCfg backend.RemoteConfig, logger *slog.Logger) *backend.Engine {
	local := backend.NewLocalStrategies(cfg.ModelDir, logger)
	remote := backend.NewRemoteStrategies(remoteCfg, logger)
	return backend.NewEngine(local, remote, logger)
}

// applyDetectorDefaults fills request-level gaps from the deployment
// configuration.
func applyDetectorDefaults(cfg *Config, dc detector.Config) detector.Config {
	if dc.PreferredAcceleration == "" {
		dc.PreferredAcceleration = backend.ParseMode(cfg.Acceleration)
	}
	return dc
}

func ProvideStreamDetectors(cfg *Config, engine *backend.Engine, logger *slog.Logger) gateway.DetectorFactory {
	return func(ctx context.Context, dc detector.Config) (gateway.StreamDetector, error) {
		return detector.New(ctx, applyDetectorDefaults(cfg, dc), engine, logger)
	}
}

func ProvideJobDetectors(cfg *Config, engine *backend.Engine, logger *slog.Logger) videojob.DetectorFactory {
	return func(ctx context.Context, dc detector.Config) (videojob.Detector, error) {
		return detector.New(ctx, applyDetectorDefaults(cfg, dc), engine, logger)
	}
}

var EngineModule = fx.Options(
	fx.Provide(
		ProvideEngineConfig,
		ProvideEngine,
		ProvideStreamDetectors,
		ProvideJobDetectors,
	),
)
