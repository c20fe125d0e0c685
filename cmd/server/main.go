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

	"github.com/gin-gonic/gin"
	"github.com/silenos/silenos-server-go/internal/auth"
	"github.com/silenos/silenos-server-go/internal/config"
	"github.com/silenos/silenos-server-go/internal/game"
	"github.com/silenos/silenos-server-go/internal/game/catalog"
	"github.com/silenos/silenos-server-go/internal/repository"
	"github.com/silenos/silenos-server-go/internal/server"
	"github.com/silenos/silenos-server-go/internal/session"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting Silenos server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	if cfg.Auth.AdminPasswordHash == "" {
		logger.Warn("admin password not configured; admin routes disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open game store", zap.Error(err))
	}
	defer store.Close()

	if pg, ok := store.(*repository.Postgres); ok {
		stats := pg.Stats()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)
	}

	loadCatalog, err := catalogLoader(cfg.Catalog, store)
	if err != nil {
		logger.Fatal("failed to configure catalog", zap.Error(err))
	}

	var replays *game.ReplayRecorder
	if cfg.Replay.Enabled {
		replays = game.NewReplayRecorder(logger, cfg.Replay.Directory)
		logger.Info("replay recording enabled", zap.String("directory", cfg.Replay.Directory))
	}

	sessions, err := session.New(ctx, session.Options{
		Store:          store,
		Engine:         game.NewEngine(cfg.Rules, logger),
		DeckRules:      cfg.Deck,
		LoadCatalog:    loadCatalog,
		Replays:        replays,
		DefenseTimeout: cfg.Session.DefenseTimeout,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("failed to initialize session service", zap.Error(err))
	}
	logger.Info("session service initialized",
		zap.Int("cards", sessions.Catalog().Len()),
		zap.Duration("defense_timeout", cfg.Session.DefenseTimeout),
	)

	// Start the stalled-attack sweeper
	go sessions.RunSweeper(ctx, cfg.Session.SweepInterval)

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("failed to initialize token verifier", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	api, err := server.New(server.Options{
		Config:            cfg.Server,
		Sessions:          sessions,
		Verifier:          verifier,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		Logger:            logger,
	})
	if err != nil {
		logger.Fatal("failed to initialize HTTP server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(serveErr))
			stop()
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	logger.Info("shutting down gracefully...")

	// Websockets are hijacked, so Shutdown does not wait for them.
	api.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("Silenos server stopped")
}

// catalogLoader returns the loader for the configured catalog source.
func catalogLoader(cfg config.CatalogConfig, store repository.Store) (session.CatalogLoader, error) {
	switch cfg.Source {
	case config.CatalogFromFile:
		path := cfg.Path
		return func(context.Context) (*catalog.Catalog, error) {
			return catalog.LoadFile(path)
		}, nil
	case config.CatalogFromDatabase:
		source, ok := store.(repository.CardSource)
		if !ok {
			return nil, fmt.Errorf("catalog source %q needs a store with a cards table", cfg.Source)
		}
		return func(ctx context.Context) (*catalog.Catalog, error) {
			cards, err := source.ListCards(ctx)
			if err != nil {
				return nil, err
			}
			return catalog.New(cards)
		}, nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
