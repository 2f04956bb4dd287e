package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/scholaris/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ratelimit",
	fx.Provide(NewLimiter),
)

// NewLimiter prefers the Redis limiter when REDIS_ADDR is set, so limits
// hold across instances, and falls back to the in-process one otherwise.
func NewLimiter(cfg config.Config, log *zap.Logger) Limiter {
	if cfg.RedisAddr == "" {
		log.Named("ratelimit").Info("redis not configured, using in-process limiter")
		return NewWindowLimiter()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return NewRedisLimiter(client)
}
