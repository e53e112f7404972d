package bootstrap

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/motionlab-ai/pose-backend/internal/backend"
	"github.com/motionlab-ai/pose-backend/internal/gateway"
	"github.com/motionlab-ai/pose-backend/internal/health"
	"github.com/motionlab-ai/pose-backend/internal/publish"
	"github.com/motionlab-ai/pose-backend/internal/stream"
	"github.com/motionlab-ai/pose-backend/internal/videojob"
)

const version = "1.0.0"

func ProvideHealthHandler(
	db *gorm.DB,
	redis *redis.Client,
	engineCfg backend.RemoteConfig,
	publisher *publish.Publisher,
	streams *stream.Store,
	server *gateway.StreamServer,
	jobs *videojob.Service,
) *health.Handler {
	return health.NewHandler(
		db,
		redis,
		engineCfg,
		publisher,
		streams,
		server,
		jobs,
		version,
	)
}

func metricsMiddleware(h *health.Handler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h.IncrementRequests()
			h.IncrementConnections()
			defer h.DecrementConnections()
			return next(c)
		}
	}
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler) {
	e.Use(metricsMiddleware(h))
	h.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
