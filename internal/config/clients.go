package config

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OpenPostgres connects to the database named by the config and applies
// pooling limits suited to a long-running daemon.
func OpenPostgres(c Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(c.PostgresURI), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// OpenRedis connects to the broker at c.RedisAddr, which may be a bare
// host:port or a redis:// URL. The connection is verified with a ping.
func OpenRedis(ctx context.Context, c Config) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(c.RedisAddr, "redis://") || strings.HasPrefix(c.RedisAddr, "rediss://") {
		opt, err := redis.ParseURL(c.RedisAddr)
		if err != nil {
			return nil, err
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	}

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
