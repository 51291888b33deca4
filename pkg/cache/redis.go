package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-timetable-api/pkg/config"
)

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "sma-timetable:"

const (
	dialTimeout = 3 * time.Second
	ioTimeout   = time.Second
	pingTimeout = 5 * time.Second
)

// NewRedis connects and pings Redis. It returns a nil client when Redis is disabled.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return client, nil
}

// Key joins parts under KeyPrefix, e.g. Key("timetable", termID, "class", classID).
func Key(parts ...string) string {
	return KeyPrefix + strings.Join(parts, ":")
}
