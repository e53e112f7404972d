package bootstrap

import (
	"log/slog"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"

	"github.com/motionlab-ai/pose-backend/internal/gateway"
	"github.com/motionlab-ai/pose-backend/internal/videojob"
)

type HandlerParams struct {
	fx.In

	GatewayHandler *gateway.Handler
	Config         *Config
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/v1")
	api.Use(gateway.BearerAuth(params.Config.AuthTokens))
	api.Use(gateway.RateLimiter(gateway.RateLimiterConfig{
		RequestsPerSecond: params.Config.RateLimitPerSecond,
		Burst:             params.Config.RateLimitBurst,
		CleanupInterval:   5 * time.Minute,
	}))
	params.GatewayHandler.RegisterRoutes(api)

	e.GET("/swagger/*", echoSwagger.WrapHandler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideGatewayHandler(
	detectors gateway.DetectorFactory,
	jobs *videojob.Service,
	streams *gateway.StreamServer,
	logger *slog.Logger,
) *gateway.Handler {
	return gateway.NewHandler(detectors, jobs, streams, logger.With("handler", "gateway"))
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideGatewayHandler,
	),
	fx.Invoke(RegisterRoutes),
)
