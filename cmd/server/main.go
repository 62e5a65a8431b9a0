package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloaca/cloaca-server/internal/auth"
	"github.com/cloaca/cloaca-server/internal/broadcast"
	"github.com/cloaca/cloaca-server/internal/config"
	"github.com/cloaca/cloaca-server/internal/repository"
	"github.com/cloaca/cloaca-server/internal/server"
	"github.com/cloaca/cloaca-server/internal/session"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting cloaca server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open game store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer store.Close()

	var regOpts []session.RegistryOption
	if cfg.Storage.ArchiveDir != "" {
		archive, err := repository.NewArchive(cfg.Storage.ArchiveDir, nil, logger)
		if err != nil {
			logger.Fatal("failed to open archive", zap.Error(err))
		}
		regOpts = append(regOpts, session.WithArchive(archive))
		logger.Info("archiving games", zap.String("dir", cfg.Storage.ArchiveDir))
	}

	verifier, err := newVerifier(cfg.Auth, logger)
	if err != nil {
		logger.Fatal("failed to initialize token verifier", zap.Error(err))
	}

	gateway := broadcast.NewGateway(cfg.Server.WebSocket.SendBuffer, logger)
	registry := session.NewRegistry(store, gateway, session.Options{
		LockTimeout:   cfg.Server.LockTimeout,
		SnapshotEvery: cfg.Server.SnapshotEvery,
	}, logger, regOpts...)
	dispatcher := server.NewDispatcher(registry, gateway, logger)

	ws := server.NewWebSocketHandler(dispatcher, gateway, verifier, cfg.Server.WebSocket.MaxDecodeErrors, logger)
	httpServer := server.NewHTTPServer(cfg.Server.WebSocket.Address, cfg.Server.WebSocket.Path, ws)

	monitor := server.NewHealthMonitor(store, 5*time.Second, logger)
	grpcServer := server.NewGRPCServer(monitor, logger)
	go monitor.Run(ctx)

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("starting gRPC health server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	go func() {
		logger.Info("starting WebSocket server",
			zap.String("address", cfg.Server.WebSocket.Address),
			zap.String("path", cfg.Server.WebSocket.Path),
		)
		if wsErr := httpServer.ListenAndServe(); wsErr != nil && !errors.Is(wsErr, http.ErrServerClosed) {
			logger.Error("WebSocket server error", zap.Error(wsErr))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("WebSocket server shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	logger.Info("cloaca server stopped")
}

// openStore connects the configured game store.
func openStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case "memory":
		logger.Warn("using in-memory game store; games are lost on restart")
		return repository.NewMemoryStore(), nil
	case "postgres":
		pg, err := repository.NewPostgresStore(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case "redis":
		return repository.NewRedisStore(ctx, repository.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}, logger)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// newVerifier falls back to a random secret, which invalidates every token
// on restart.
func newVerifier(cfg config.AuthConfig, logger *zap.Logger) (*auth.TokenVerifier, error) {
	secret := []byte(cfg.TokenSecret)
	if len(secret) == 0 {
		logger.Warn("auth.token_secret not configured; using a random secret")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
	}
	return auth.NewTokenVerifier(secret)
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
