package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	searchcore "github.com/arenahq/searchcore"
	"github.com/arenahq/searchcore/internal/config"
	logpkg "github.com/arenahq/searchcore/internal/logger"
	"github.com/arenahq/searchcore/internal/store"
	storeMemory "github.com/arenahq/searchcore/internal/store/memory"
	storeRedis "github.com/arenahq/searchcore/internal/store/redis"
	chiTransport "github.com/arenahq/searchcore/internal/transport/chi"
	"github.com/arenahq/searchcore/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchcore API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Strings("store_addrs", cfg.Store.Addrs),
	)

	ctx := context.Background()

	// Create store based on driver. Both drivers implement the querier and
	// the KV contract.
	var (
		querier store.Querier
		kv      store.KV
	)
	switch cfg.Store.Driver {
	case "memory":
		mem := storeMemory.New()
		querier, kv = mem, mem
	case "redis":
		rs, err := storeRedis.NewStore(storeRedis.Config{
			Addrs:     cfg.Store.Addrs,
			Password:  cfg.Store.Password,
			KeyPrefix: cfg.Store.KeyPrefix,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer rs.Close()

		readiness := time.Duration(cfg.Store.ReadinessTimeout) * time.Second
		if err := rs.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Store not ready", zap.Error(err))
		}
		logger.Info("Connected to redis store")
		querier, kv = rs, rs
	default:
		logger.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}

	engine, err := searchcore.New(ctx, querier, kv, logger, searchcore.Options{
		EnableCaching:       config.EnabledOr(cfg.Search.EnableCaching, true),
		EnableFuzzyMatching: config.EnabledOr(cfg.Search.EnableFuzzyMatching, true),
		EnableAnalytics:     config.EnabledOr(cfg.Search.EnableAnalytics, true),
		DefaultLimit:        cfg.Search.DefaultLimit,
		MaxSearchTime:       cfg.Search.MaxSearchTime.Std(),
		DebounceDelay:       cfg.Search.DebounceDelay.Std(),
		DebounceMaxWait:     cfg.Search.DebounceMaxWait.Std(),
		ResultsTTL:          cfg.Cache.ResultsTTL.Std(),
		AutocompleteTTL:     cfg.Cache.AutocompleteTTL.Std(),
		AnalyticsTTL:        cfg.Cache.AnalyticsTTL.Std(),
		HistorySize:         cfg.Monitor.HistorySize,
	})
	if err != nil {
		logger.Fatal("Failed to create search engine", zap.Error(err))
	}

	server := chiTransport.NewServer(engine, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Flush search history so popular terms survive the restart.
	if err := engine.Destroy(shutdownCtx); err != nil {
		logger.Error("Error destroying engine", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
