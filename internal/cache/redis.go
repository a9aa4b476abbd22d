// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/e-moran/debugduel/internal/models"
)

// Rdb is the global Redis client. Connect it once at application startup;
// callers treat a nil client as "redis disabled".
var Rdb *redis.Client

// DefaultEventQueueName is the Redis list that receives duel event records
// for external consumers (history, push notifiers).
var DefaultEventQueueName = "debugduel_events"

// LeaderboardTTL bounds how stale a cached leaderboard may be. The
// leaderboard is otherwise recomputed per request.
const LeaderboardTTL = 5 * time.Second

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishEvent serializes the event record to JSON and pushes it onto the
// event queue. Delivery past this point is the consumer's concern.
func PublishEvent(ctx context.Context, record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal event record: %w", err)
	}

	queueName := getEnv("EVENT_QUEUE_NAME", DefaultEventQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

func leaderboardKey(n int) string {
	return "debugduel:leaderboard:" + strconv.Itoa(n)
}

// CacheLeaderboard stores a computed top-n with a short expiry.
func CacheLeaderboard(ctx context.Context, n int, entries []models.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard: %w", err)
	}
	return Rdb.Set(ctx, leaderboardKey(n), data, LeaderboardTTL).Err()
}

// CachedLeaderboard returns the cached top-n if present and unexpired.
func CachedLeaderboard(ctx context.Context, n int) ([]models.LeaderboardEntry, bool) {
	data, err := Rdb.Get(ctx, leaderboardKey(n)).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
