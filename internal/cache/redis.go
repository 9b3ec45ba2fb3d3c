// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/genki-league/ratings-service/internal/models"
)

// Rdb is the global Redis client. Connect it once at application startup.
// All cache operations degrade to DB reads when it is nil or unreachable.
var Rdb *redis.Client

// DefaultTTL bounds staleness for cached leaderboard pages between explicit
// invalidations.
var DefaultTTL = 60 * time.Second

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
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// LifetimeLeaderboardKey names one page of an org's lifetime leaderboard.
func LifetimeLeaderboardKey(orgID uuid.UUID, category string, limit, offset int) string {
	return fmt.Sprintf("lb:lifetime:%s:%s:%d:%d", orgID, category, limit, offset)
}

// SeasonLeaderboardKey names one page of a season leaderboard.
func SeasonLeaderboardKey(seasonID uuid.UUID, category string, limit, offset int) string {
	return fmt.Sprintf("lb:season:%s:%s:%d:%d", seasonID, category, limit, offset)
}

// GetLeaderboard returns a cached page, or (nil, false) on miss or any Redis
// failure.
func GetLeaderboard(ctx context.Context, key string) ([]models.LeaderboardEntry, bool) {
	if Rdb == nil {
		return nil, false
	}
	data, err := Rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// SetLeaderboard stores a page with the default TTL. Failures are logged and
// otherwise ignored.
func SetLeaderboard(ctx context.Context, key string, entries []models.LeaderboardEntry) {
	if Rdb == nil {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := Rdb.Set(ctx, key, data, DefaultTTL).Err(); err != nil {
		log.Debugf("leaderboard cache set failed for %s: %v", key, err)
	}
}

// InvalidateLeaderboards drops every cached page for the org's lifetime
// leaderboard and, when a season applies, the season leaderboard. Called
// after a tournament's ratings are committed.
func InvalidateLeaderboards(ctx context.Context, orgID uuid.UUID, category string, seasonID *uuid.UUID) {
	if Rdb == nil {
		return
	}
	patterns := []string{
		fmt.Sprintf("lb:lifetime:%s:%s:*", orgID, category),
	}
	if seasonID != nil {
		patterns = append(patterns, fmt.Sprintf("lb:season:%s:%s:*", seasonID, category))
	}
	for _, pattern := range patterns {
		iter := Rdb.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := Rdb.Del(ctx, iter.Val()).Err(); err != nil {
				log.Debugf("leaderboard cache invalidation failed for %s: %v", iter.Val(), err)
			}
		}
		if err := iter.Err(); err != nil {
			log.Debugf("leaderboard cache scan failed for %s: %v", pattern, err)
		}
	}
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
