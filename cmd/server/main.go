package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"support-finder/internal/api"
	"support-finder/internal/assistant"
	"support-finder/internal/auth"
	"support-finder/internal/chat"
	"support-finder/internal/config"
	"support-finder/internal/db"
	"support-finder/internal/dialogue"
	"support-finder/internal/llm"
	"support-finder/internal/logger"
	"support-finder/internal/prioritize"
	redisdb "support-finder/internal/redis"
	"support-finder/internal/resource"
	"support-finder/internal/search"
)

func main() {
	defaultPath := "config.json"
	if p := os.Getenv("SUPPORT_FINDER_CONFIG"); p != "" {
		defaultPath = p
	}
	configPath := flag.String("config", defaultPath, "path to the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", map[string]interface{}{"error": err})
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	store := resource.NewStore(gdb)
	if err := store.EnsureCategories(ctx, resource.DefaultCategories); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redisdb.NewClient(cfg)
		defer rdb.Close()
		if err := redisdb.Ping(ctx, rdb); err != nil {
			// The category cache and sessions degrade; startup continues.
			log.Warn("redis unreachable at startup", map[string]interface{}{"error": err})
		}
	}

	cache := resource.NewCategoryCache(store, rdb, cfg.Redis.CategoryTTL(), log)
	chats := chat.NewStore(gdb)
	rules := dialogue.DefaultRules().WithPlaces(cfg.Dialogue.Areas, cfg.Dialogue.Cities)
	engine := assistant.NewEngine(chats, prioritize.NewFetcher(store, cache, log), dialogue.NewInferrer(rules), cfg.Chat.HistoryLimit, log)
	completion := llm.NewClient(cfg.Completion, log)

	svc := &api.Services{
		DB:         gdb,
		Redis:      rdb,
		Resources:  store,
		Categories: cache,
		Chats:      chats,
		Searcher:   search.NewSearcher(store, log),
		Engine:     engine,
		Responder:  assistant.NewResponder(completion, chats, cfg.Completion.ContextSize, log),
		Sessions:   auth.NewSessions(rdb),
		Completion: completion,
		Log:        log,
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.SetupRouter(cfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]interface{}{"addr": srv.Addr, "subpath": cfg.Server.Subpath})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
