package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/motionlab-ai/pose-backend/internal/gateway"
	"github.com/motionlab-ai/pose-backend/internal/publish"
	"github.com/motionlab-ai/pose-backend/internal/stream"
	"github.com/motionlab-ai/pose-backend/internal/video"
	"github.com/motionlab-ai/pose-backend/internal/videojob"
)

func ProvidePublisherConfig(cfg *Config) publish.Config {
	return publish.Config{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
	}
}

func ProvidePublisher(lc fx.Lifecycle, cfg publish.Config, logger *slog.Logger) *publish.Publisher {
	p := publish.NewPublisher(cfg, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !p.Enabled() {
				return nil
			}
			return p.Connect()
		},
		OnStop: func(ctx context.Context) error {
			p.Disconnect()
			return nil
		},
	})
	return p
}

func ProvideVideoSources() videojob.SourceFactory {
	return func(path string) (stream.FrameSource, error) {
		return video.Open(path)
	}
}

func ProvideVideoJobService(
	lc fx.Lifecycle,
	store *videojob.Store,
	detectors videojob.DetectorFactory,
	sources videojob.SourceFactory,
	logger *slog.Logger,
) *videojob.Service {
	svc := videojob.NewService(store, detectors, sources, logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			svc.Shutdown()
			return nil
		},
	})
	return svc
}

func ProvideStreamServer(
	detectors gateway.DetectorFactory,
	store *stream.Store,
	publisher *publish.Publisher,
	logger *slog.Logger,
) *gateway.StreamServer {
	return gateway.NewStreamServer(detectors, store, publisher, logger)
}

var ServicesModule = fx.Options(
	fx.Provide(
		ProvidePublisherConfig,
		ProvidePublisher,
		ProvideVideoSources,
		ProvideVideoJobService,
		ProvideStreamServer,
	),
)
