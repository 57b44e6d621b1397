package database

import (
	"fmt"
	"strconv"

	"portal-chat/config"
	"portal-chat/logger"

	"github.com/redis/go-redis/v9"
)

// Redis databases by role.
const (
	RedisFeedDB   = 0
	RedisSocketDB = 1
)

var Redis = make(map[int]*redis.Client)

func RedisConnect() {
	for _, db := range config.ConfigList("REDIS_DB", "0,1") {
		dbNumber, err := strconv.Atoi(db)
		if err != nil {
			panic(fmt.Sprintf("invalid REDIS_DB entry %q", db))
		}

		options := &redis.Options{
			Addr: fmt.Sprintf(
				"%s:%s",
				config.ConfigDefault("REDIS_HOST", "localhost"),
				config.ConfigDefault("REDIS_PORT", "6379"),
			),
			Password: config.Config("REDIS_PASSWORD"),
			DB:       dbNumber,
		}

		Redis[dbNumber] = redis.NewClient(options)
	}

	logger.Info().Int("clients", len(Redis)).Msg("connections opened to Redis")
}

// RedisClient returns the client for db, connecting lazily when RedisConnect
// was not given that database.
func RedisClient(db int) *redis.Client {
	if c, ok := Redis[db]; ok {
		return c
	}
	c := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf(
			"%s:%s",
			config.ConfigDefault("REDIS_HOST", "localhost"),
			config.ConfigDefault("REDIS_PORT", "6379"),
		),
		Password: config.Config("REDIS_PASSWORD"),
		DB:       db,
	})
	Redis[db] = c
	return c
}

func RedisClose() {
	for db, c := range Redis {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Int("db", db).Msg("close redis client")
		}
	}
}
