package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/motionlab-ai/pose-backend/internal/stream"
	"github.com/motionlab-ai/pose-backend/internal/videojob"
)

func ProvideJobStore(db *gorm.DB) *videojob.Store {
	return videojob.NewStore(db)
}

func ProvideStreamStore(redisClient *redis.Client) *stream.Store {
	return stream.NewStore(redisClient)
}

func RunMigrations(jobStore *videojob.Store) error {
	return jobStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideJobStore,
		ProvideStreamStore,
	),
	fx.Invoke(RunMigrations),
)
