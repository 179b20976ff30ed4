package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biocatalyst/internal/client/alpaca"
	"biocatalyst/internal/config"
	cronrunner "biocatalyst/internal/cron"
	"biocatalyst/internal/db"
	"biocatalyst/internal/engine"
	"biocatalyst/internal/handler"
	"biocatalyst/internal/ingest"
	"biocatalyst/internal/logger"
	gormrepository "biocatalyst/internal/repository/gorm"
	"biocatalyst/internal/selector"
	"biocatalyst/internal/service"
)

func main() {
	cfgPath := os.Getenv("CT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("CT_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	brokerHTTP := &http.Client{Timeout: cfg.Broker.Timeout}
	broker := alpaca.NewClient(brokerHTTP,
		cfg.Broker.TradingBaseURL, cfg.Broker.DataBaseURL,
		os.Getenv(cfg.Broker.APIKeyEnv), os.Getenv(cfg.Broker.APISecretEnv))

	ingestSvc := &service.IngestService{
		Store: store,
		Calendar: &ingest.CalendarScraper{
			HTTPClient: &http.Client{Timeout: cfg.Calendar.Timeout},
			Logger:     logger,
			Config:     cfg.Calendar,
		},
		Registry: &ingest.RegistryClient{
			HTTPClient: &http.Client{Timeout: cfg.Registry.Timeout},
			Logger:     logger,
			Config:     cfg.Registry,
		},
		Logger: logger,
	}
	if cfg.Verifier.Enabled {
		ingestSvc.Verifier = &ingest.DecisionVerifier{
			HTTPClient: &http.Client{Timeout: cfg.Verifier.Timeout},
			Logger:     logger,
			Config:     cfg.Verifier,
		}
	}

	tradingEngine := &engine.Engine{
		Repo: store,
		Selector: &selector.Selector{
			Quotes: broker,
			Chain:  broker,
			Logger: logger,
			Config: cfg.Selector,
		},
		Orders: broker,
		Logger: logger,
		Config: cfg.Engine,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(router)
	catalystHandler := &handler.CatalystHandler{Store: store, Logger: logger}
	catalystHandler.Register(router)
	ordersHandler := &handler.OrdersHandler{Store: store, Logger: logger}
	ordersHandler.Register(router)
	runsHandler := &handler.RunsHandler{Engine: tradingEngine}
	runsHandler.Register(router)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runIngest := func(ctx context.Context) {
		if !cfg.Ingest.Enabled {
			return
		}
		if _, err := ingestSvc.RunOnce(ctx, time.Now().UTC()); err != nil {
			logger.Warn("ingest run failed", zap.Error(err))
		}
	}
	runTrade := func(ctx context.Context) {
		if !cfg.Engine.Enabled {
			return
		}
		if _, err := tradingEngine.RunOnce(ctx, time.Now().UTC()); err != nil {
			logger.Warn("trading run failed", zap.Error(err))
		}
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		if _, err := cronRunner.Add(cfg.Cron.Ingest, runIngest); err != nil {
			logger.Warn("cron register ingest failed", zap.Error(err))
		}
		if _, err := cronRunner.Add(cfg.Cron.Trade, runTrade); err != nil {
			logger.Warn("cron register trade failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	if cfg.App.RunOnStart {
		go func() {
			runIngest(ctx)
			runTrade(ctx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
