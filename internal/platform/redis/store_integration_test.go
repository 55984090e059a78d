//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/recall-api/internal/ciutil"
	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/store"
)

func testAddr(t *testing.T) string {
	t.Helper()

	addr := ciutil.TestRedisAddr(nil)
	if addr == "" {
		if ciutil.IsCI() {
			t.Fatal("REDIS_ADDR must be set for integration tests in CI")
		}
		t.Skip("REDIS_ADDR not set - skipping redis integration test")
	}
	return addr
}

func TestStores_Integration(t *testing.T) {
	addr := testAddr(t)
	keys := Keys{Prefix: "recall-test-" + uuid.NewString()}
	ctx := context.Background()

	rdb, err := NewClient(ctx, config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() {
		iter := rdb.Scan(ctx, 0, keys.Prefix+":*", 100).Iterator()
		for iter.Next(ctx) {
			_ = rdb.Del(ctx, iter.Val()).Err()
		}
		_ = rdb.Close()
	})

	userID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("results", func(t *testing.T) {
		results := NewResultStore(rdb, keys, nil)

		_, err := results.Get(ctx, userID, "c1")
		assert.ErrorIs(t, err, store.ErrScheduleRecordNotFound)

		rec := &domain.ScheduleRecord{ConceptID: "c1", KnowledgeBaseID: "kb", Score: 70, IntervalDays: 1, RepetitionCount: 1, NextReviewAt: now, UpdatedAt: now}
		require.NoError(t, results.Put(ctx, userID, rec))
		rec.Score = 95
		require.NoError(t, results.Put(ctx, userID, rec))
		require.NoError(t, results.Put(ctx, userID, &domain.ScheduleRecord{ConceptID: "a0", KnowledgeBaseID: "other", NextReviewAt: now}))

		got, err := results.Get(ctx, userID, "c1")
		require.NoError(t, err)
		assert.Equal(t, 95, got.Score)

		all, err := results.ListAll(ctx, userID)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "a0", all[0].ConceptID)

		byKB, err := results.ListByKnowledgeBase(ctx, userID, "kb")
		require.NoError(t, err)
		require.Len(t, byKB, 1)
	})

	t.Run("history", func(t *testing.T) {
		history := NewHistoryLog(rdb, keys, nil)
		e1 := &domain.AttemptLogEntry{ID: uuid.New(), ConceptID: "c1", Score: 40, CreatedAt: now}
		e2 := &domain.AttemptLogEntry{ID: uuid.New(), ConceptID: "c1", Score: 80, CreatedAt: now.Add(time.Second)}

		require.NoError(t, history.Append(ctx, userID, e1))
		require.NoError(t, history.Append(ctx, userID, e2))
		require.NoError(t, history.Append(ctx, userID, e1))

		entries, err := history.ListAll(ctx, userID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, e1.ID, entries[0].ID)
		assert.Equal(t, e2.ID, entries[1].ID)
	})

	t.Run("users", func(t *testing.T) {
		users := NewUserStore(rdb, keys, nil)
		u, err := domain.NewUser("redis@example.com", "", "long-enough-password")
		require.NoError(t, err)
		u.Password = ""
		u.HashedPassword = "hash"

		require.NoError(t, users.Create(ctx, u))
		assert.ErrorIs(t, users.Create(ctx, u), store.ErrEmailExists)

		got, err := users.GetByEmail(ctx, "REDIS@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "hash", got.HashedPassword)
	})
}
