package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tradeTracker/config"
	"tradeTracker/internal/adapters/binanceclient"
	"tradeTracker/internal/adapters/logger"
	"tradeTracker/internal/adapters/sqlite"
	"tradeTracker/internal/adapters/wshub"
	"tradeTracker/internal/app"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()

	// 4. Initialize Price Source (Binance Adapter)
	priceSource, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	// Root context cancelled on shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLogger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	// 5. Initialize Broadcast Hub and /ws endpoint
	hub := wshub.NewHub(appLogger)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	go func() {
		appLogger.Info(ctx, "WebSocket endpoint listening", map[string]interface{}{"addr": cfg.WSListenAddr})
		if err := http.ListenAndServe(cfg.WSListenAddr, mux); err != nil {
			appLogger.Error(ctx, err, "WebSocket listener stopped")
			cancel()
		}
	}()

	// 6. Initialize Lifecycle Engine
	engine, err := app.NewEngine(app.EngineConfig{
		Logger:       appLogger,
		Repo:         repo,
		Prices:       priceSource,
		Broadcaster:  hub,
		DefaultQuote: cfg.DefaultQuote,
		PriceTimeout: cfg.PriceTimeout,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize lifecycle engine")
		log.Fatalf("FATAL: Failed to initialize lifecycle engine: %v", err)
	}

	// 7. Run the Scheduler (blocks until the context is cancelled)
	scheduler, err := app.NewScheduler(cfg.PollInterval, appLogger, engine.RunTick)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize scheduler")
		log.Fatalf("FATAL: Failed to initialize scheduler: %v", err)
	}
	scheduler.Run(ctx)

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
