package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/api"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/config"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/httpclient"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/limiter"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/logger"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/bundle"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/credential"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/gemini"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/imagegen"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/orchestrator"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/session"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/storage"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Init logger
	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	// Credentials: host header, then environment, then the persisted key
	credStore, err := credential.OpenSQLiteStore(cfg.Credential.DBPath)
	if err != nil {
		zapLogger.Error("failed to open credential store", "path", cfg.Credential.DBPath, "error", err)
		os.Exit(1)
	}
	defer credStore.Close()

	gate := credential.NewGate(credential.Chain{
		credential.ContextProvider{},
		credential.EnvProvider{Key: cfg.Credential.APIKey},
		credential.StoreProvider{Store: credStore},
	}, credStore, nil, zapLogger)

	// Init HTTP client shared by the model SDK clients
	httpClient := httpclient.New(httpclient.Options{
		Timeout:    time.Duration(cfg.HTTPClient.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.HTTPClient.MaxRetries,
	})
	clients := gemini.NewClientFactory(httpClient, "")

	// Init limiter
	lim := limiter.New(cfg.Limiter.MaxConcurrent, cfg.Limiter.RatePerSecond)

	// Init services
	geminiSvc := gemini.New(clients, gate, cfg.Gemini.Model, cfg.Gemini.Temperature, zapLogger)
	imageGenSvc := imagegen.New(clients, gate, cfg.ImageGen.Model, cfg.ImageGen.AspectRatio, zapLogger)
	bundleSvc := bundle.New(zapLogger)
	storageSvc, err := storage.New(cfg.Storage, zapLogger)
	if err != nil {
		zapLogger.Error("failed to init storage", "type", cfg.Storage.Type, "error", err)
		os.Exit(1)
	}

	// One orchestrator per carousel session
	sessions := session.New(func(id string) *orchestrator.Orchestrator {
		return orchestrator.New(id, geminiSvc, imageGenSvc, gate, storageSvc, lim, zapLogger)
	}, storageSvc, time.Duration(cfg.Session.TTLMinutes)*time.Minute, zapLogger)
	sessions.Start(time.Minute)
	defer sessions.Close()

	// Init router
	filesDir := ""
	if storageSvc.Type() == storage.TypeLocal {
		filesDir = cfg.Storage.BasePath
	}
	handler := api.NewHandler(sessions, geminiSvc, gate, bundleSvc, storageSvc, zapLogger)
	var router http.Handler = api.NewRouter(handler, filesDir, zapLogger)
	if cfg.Server.MaxUploadBytes > 0 {
		router = http.MaxBytesHandler(router, cfg.Server.MaxUploadBytes)
	}

	// Create server
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	// Start server
	go func() {
		zapLogger.Info("starting server",
			"addr", cfg.Server.Addr,
			"storage", storageSvc.Type(),
			"credential_ready", gate.IsAvailable(context.Background()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Error("server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server forced to shutdown", "error", err)
	}
	zapLogger.Info("server stopped")
}
