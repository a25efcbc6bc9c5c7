package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhartig/offer-comb/app/api"
	"github.com/jhartig/offer-comb/app/cache"
	"github.com/jhartig/offer-comb/app/cfg"
	"github.com/jhartig/offer-comb/app/database"
	"github.com/jhartig/offer-comb/app/offers"
	"github.com/jhartig/offer-comb/app/providers"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Offer Comb server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	providerCfg, err := providers.LoadConfig(appCfg.ProvidersFile, providers.Credentials{
		WebWunderAPIKey:          appCfg.WebWunderAPIKey,
		ByteMeAPIKey:             appCfg.ByteMeAPIKey,
		PingPerfectClientID:      appCfg.PingPerfectClientID,
		PingPerfectSigningSecret: appCfg.PingPerfectSigningSecret,
		VerbynDichAPIKey:         appCfg.VerbynDichAPIKey,
		ServusSpeedUsername:      appCfg.ServusSpeedUsername,
		ServusSpeedPassword:      appCfg.ServusSpeedPassword,
	})
	if err != nil {
		slog.Error("Failed to load provider configuration", "file", appCfg.ProvidersFile, "error", err)
		os.Exit(1)
	}

	httpClient := providers.NewHTTPClient(appCfg.UserAgent)
	fetchers := providers.Build(providerCfg, httpClient)
	slog.Info("Providers configured", "count", len(fetchers))

	aggregator := offers.NewAggregator(fetchers, appCfg.WorkerCount,
		time.Duration(appCfg.TaskTimeout)*time.Second,
		time.Duration(appCfg.BatchTimeout)*time.Second)

	shareRepo := database.NewShareRepo(db)

	var shareCache api.ShareCache
	if appCfg.RedisAddr != "" {
		redisCache, err := cache.New(appCfg.RedisAddr, time.Duration(appCfg.ShareCacheTTL)*time.Second)
		if err != nil {
			slog.Warn("Share cache disabled", "addr", appCfg.RedisAddr, "error", err)
		} else {
			defer redisCache.Close()
			shareCache = redisCache
			slog.Info("Share cache enabled", "addr", appCfg.RedisAddr)
		}
	}

	handler := api.NewHandler(aggregator, shareRepo, shareCache, appCfg.Version)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
