package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// RedisConfigured reports whether any Redis address is set. When it is not,
// the job queue runs inline and nothing is cached.
func RedisConfigured() bool {
	return redisAddr() != ""
}

func redisAddr() string {
	for _, key := range []string{"REDIS_ADDR", "REDIS_URI", "REDIS_URL"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func InitRedis() error {
	val := redisAddr()
	if val == "" {
		return errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) environment variable is not set")
	}

	if strings.HasPrefix(val, "redis://") || strings.HasPrefix(val, "rediss://") {
		opt, err := redis.ParseURL(val)
		if err != nil {
			return err
		}
		RedisClient = redis.NewClient(opt)
	} else {
		RedisClient = redis.NewClient(&redis.Options{Addr: val})
	}

	_, err := RedisClient.Ping(context.Background()).Result()
	return err
}
