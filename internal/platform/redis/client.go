package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/store"
)

// NewClient connects to the configured Redis server and verifies it with a
// ping. The client is closed if the ping fails.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis addr is required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

// Keys builds the namespaced keys shared by every store.
type Keys struct {
	Prefix string
}

func (k Keys) join(parts ...string) string {
	if k.Prefix == "" {
		return strings.Join(parts, ":")
	}
	return k.Prefix + ":" + strings.Join(parts, ":")
}

func (k Keys) Results(userID string) string    { return k.join("results", userID) }
func (k Keys) History(userID string) string    { return k.join("history", userID) }
func (k Keys) HistoryIDs(userID string) string { return k.join("history_ids", userID) }
func (k Keys) Curricula(userID string) string  { return k.join("curricula", userID) }
func (k Keys) User(id string) string           { return k.join("user", id) }
func (k Keys) UserEmail(email string) string   { return k.join("user_email", strings.ToLower(email)) }

// mapError maps redis.Nil to notFound and wraps everything else.
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, goredis.Nil) {
		return notFound
	}
	return store.NewStoreError("redis", "command", "redis command failed", err)
}
