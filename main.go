package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"card-session-server/api"
	"card-session-server/auth"
	"card-session-server/cards"
	"card-session-server/config"
	"card-session-server/effects"
	"card-session-server/loghandler"
	"card-session-server/matchmaking"
	"card-session-server/storage"
	"card-session-server/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; using environment variables", "tag", "main")
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, loghandler.ParseLevel(cfg.LogLevel))))

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "tag", "main", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger := slog.Default().With("tag", "main")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	fx := effects.NewRegistry()
	effects.RegisterAll(fx)
	for _, id := range catalog.IDs() {
		def, _ := catalog.Get(id)
		if _, ok := fx.Handler(def.EffectKey()); !ok {
			logger.Warn("card has no effect handler", "card", id)
		}
	}
	logger.Info("configuration",
		"cards", catalog.Len(), "ready_check_sec", cfg.ReadyCheckSec, "opening_hand", cfg.OpeningHandSize,
		"starting_health", cfg.StartingHealth, "combat", cfg.CombatPolicy, "port", cfg.WSPort)

	var results storage.ResultStore
	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if store != nil {
		defer store.Close()
		results = store
		logger.Info("result storage enabled")
	} else {
		logger.Info("DATABASE_URL not set; results kept in memory only")
	}

	var validator api.TokenValidator
	v, err := auth.NewValidator(cfg.AuthBaseURL)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if v != nil {
		validator = v
		logger.Info("auth configured", "base_url", cfg.AuthBaseURL)
	} else {
		logger.Info("AUTH_BASE_URL not set; accepting anonymous players")
	}

	registry := matchmaking.NewRegistry(cfg, catalog, fx, results)
	hub := ws.NewHub(cfg, registry)
	hub.Auth = validator

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WSPort),
		Handler: api.NewRouter(api.NewHandler(registry, results, validator), http.HandlerFunc(hub.ServeWS)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("card session server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("http shutdown", "err", err)
		}
		return registry.Shutdown(sctx)
	})
	return g.Wait()
}

func loadCatalog(cfg *config.Config) (*cards.Catalog, error) {
	if cfg.CardCatalogPath != "" {
		c, err := cards.LoadFile(cfg.CardCatalogPath)
		if err != nil {
			return nil, fmt.Errorf("card catalog %s: %w", cfg.CardCatalogPath, err)
		}
		return c, nil
	}
	return cards.Default()
}
