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

	"github.com/e-moran/debugduel/internal/auth"
	"github.com/e-moran/debugduel/internal/cache"
	"github.com/e-moran/debugduel/internal/database"
	"github.com/e-moran/debugduel/internal/duel"
	"github.com/e-moran/debugduel/internal/handlers"
	"github.com/e-moran/debugduel/internal/leaderboard"
	"github.com/e-moran/debugduel/internal/match"
	"github.com/e-moran/debugduel/internal/middleware"
	"github.com/e-moran/debugduel/internal/relay"
	"github.com/e-moran/debugduel/internal/snippet"
	"github.com/e-moran/debugduel/internal/store"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	backend := newStateBackend(logger)

	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, leaderboard cache and event queue disabled: %v", err)
	}

	var provider snippet.Provider
	if os.Getenv("AI_API_KEY") != "" {
		provider = snippet.NewAIProviderFromEnv(logger)
	} else {
		logger.Warn("AI_API_KEY not set, serving static snippets")
		provider = snippet.NewStaticProvider()
	}

	hub := relay.NewHub(logger)
	matchmaker := match.NewMatchmaker(backend, provider, hub, logger)
	engine := duel.NewEngine(backend, hub, logger)
	lb := leaderboard.NewService(backend, logger)

	srv := handlers.NewServer(backend, matchmaker, engine, lb, hub, logger)
	handler := middleware.LogMiddleware(logger)(srv.Routes())

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

// newStateBackend picks Postgres when PG_HOST is configured, otherwise a
// local JSON file snapshot.
func newStateBackend(logger *logrus.Logger) store.Backend {
	if os.Getenv("PG_HOST") != "" {
		database.ConnectDB()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pg, err := database.NewPostgresStore(ctx, database.DB)
		if err != nil {
			log.Fatalf("failed to initialize postgres state store: %v", err)
		}
		return pg
	}

	path := os.Getenv("STATE_FILE")
	if path == "" {
		path = "debugduel_state.json"
	}
	logger.Infof("Using file state store at %s", path)
	return store.NewFileStore(path)
}
