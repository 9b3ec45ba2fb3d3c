// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/genki-league/ratings-service/internal/cache"
	"github.com/genki-league/ratings-service/internal/database"
	"github.com/genki-league/ratings-service/internal/handlers"
	"github.com/genki-league/ratings-service/internal/processor"
	"github.com/genki-league/ratings-service/internal/season"
)

func main() {
	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	pool, err := database.Connect(context.Background())
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer pool.Close()
	store := database.NewStore(pool)

	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, leaderboard caching disabled: %v", err)
		cache.Rdb = nil
	}

	seasons := season.NewManager(store)
	sched, err := seasons.StartStatusScheduler(time.Minute)
	if err != nil {
		log.Fatalf("season scheduler failed to start: %v", err)
	}
	defer func() { _ = sched.Shutdown() }()

	proc := processor.New(store, seasons)

	srv := &handlers.Server{
		Log:       logger,
		Processor: proc,
		Seasons:   seasons,
		Store:     store,
		DB:        pool,
	}

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
