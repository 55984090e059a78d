package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/platform/memory"
	"github.com/phrazzld/recall-api/internal/platform/postgres"
	"github.com/phrazzld/recall-api/internal/platform/redis"
	"github.com/phrazzld/recall-api/internal/service/backup"
	"github.com/phrazzld/recall-api/internal/store"
)

// backend is the set of stores for the configured storage backend.
type backend struct {
	name      string
	results   store.ResultStore
	history   store.HistoryLog
	curricula store.CurriculumStore
	users     store.UserStore

	db  *sql.DB         // postgres only
	rdb *goredis.Client // redis only
}

// openBackend connects the configured storage backend. Callers must Close it.
func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error) {
	b := &backend{name: cfg.Storage.Backend}

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := openDatabase(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, db, "up", log); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		b.db = db
		b.results = postgres.NewPostgresResultStore(db, log)
		b.history = postgres.NewPostgresHistoryLog(db, log)
		b.curricula = postgres.NewPostgresCurriculumStore(db, log)
		b.users = postgres.NewPostgresUserStore(db, log)

	case config.BackendRedis:
		rdb, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		keys := redis.Keys{Prefix: cfg.Redis.KeyPrefix}
		b.rdb = rdb
		b.results = redis.NewResultStore(rdb, keys, log)
		b.history = redis.NewHistoryLog(rdb, keys, log)
		b.curricula = redis.NewCurriculumStore(rdb, keys, log)
		b.users = redis.NewUserStore(rdb, keys, log)
		log.Info("redis connection established", slog.String("key_prefix", cfg.Redis.KeyPrefix))

	case config.BackendMemory:
		b.results = memory.NewResultStore()
		b.history = memory.NewHistoryLog()
		b.curricula = memory.NewCurriculumStore()
		b.users = memory.NewUserStore()
		log.Warn("using in-memory storage; data is lost on shutdown")

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	return b, nil
}

// openDatabase opens a pgx-backed pool and verifies it with a ping.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connection established")
	return db, nil
}

// txBeginner returns the SQL pool for transactional writes, or nil.
func (b *backend) txBeginner() store.TxBeginner {
	if b.db == nil {
		return nil
	}
	return b.db
}

func (b *backend) backupStores() backup.Stores {
	return backup.Stores{
		Results:   b.results,
		History:   b.history,
		Curricula: b.curricula,
		DB:        b.txBeginner(),
	}
}

// Ping checks that the backend is reachable.
func (b *backend) Ping(ctx context.Context) error {
	switch {
	case b.db != nil:
		return b.db.PingContext(ctx)
	case b.rdb != nil:
		return b.rdb.Ping(ctx).Err()
	default:
		return nil
	}
}

// Close releases connections. It is safe to call more than once.
func (b *backend) Close() {
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			slog.Error("error closing database connection", slog.String("error", err.Error()))
		}
		b.db = nil
	}
	if b.rdb != nil {
		if err := b.rdb.Close(); err != nil {
			slog.Error("error closing redis connection", slog.String("error", err.Error()))
		}
		b.rdb = nil
	}
}
