package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avelore/consignpos-import-service/config"
	"github.com/avelore/consignpos-import-service/internal/auth"
	"github.com/avelore/consignpos-import-service/pkg/broker"
	"github.com/avelore/consignpos-import-service/pkg/cache"
	"github.com/avelore/consignpos-import-service/pkg/logger"
	"github.com/avelore/consignpos-import-service/pkg/postgres"
	"github.com/avelore/consignpos-import-service/pkg/search"

	catalogClient "github.com/avelore/consignpos-import-service/internal/catalog/client"
	consignorClient "github.com/avelore/consignpos-import-service/internal/consignor/client"

	impH "github.com/avelore/consignpos-import-service/internal/importer/handler"
	impListenerPkg "github.com/avelore/consignpos-import-service/internal/importer/listener"
	impUCPkg "github.com/avelore/consignpos-import-service/internal/importer/usecase"

	piH "github.com/avelore/consignpos-import-service/internal/pendingimport/handler"
	piRepoPkg "github.com/avelore/consignpos-import-service/internal/pendingimport/repository"
	piUCPkg "github.com/avelore/consignpos-import-service/internal/pendingimport/usecase"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka Consumer
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 6. Initialize Elasticsearch
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (catalog sync disabled)", zap.Error(err))
		esClient = nil
	} else {
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 7. External service clients
	timeout := time.Duration(cfg.Services.RequestTimeout) * time.Second
	directory := consignorClient.NewCachedDirectory(
		consignorClient.NewHTTPDirectory(cfg.Services.ConsignorDirectoryURL, timeout),
		redisClient,
		appLogger,
	)
	catalogSvc := catalogClient.NewHTTPService(cfg.Services.CatalogURL, timeout)

	// 8. Repositories and UseCases
	piRepo := piRepoPkg.NewPGRepository(db)
	piUC := piUCPkg.NewPendingImportUseCase(piRepo, directory, catalogSvc, redisClient, esClient, appLogger)
	impUC := impUCPkg.NewImporterUseCase(piRepo, directory, catalogSvc, redisClient, appLogger)

	// 9. Manifest Listener
	manifestListener := impListenerPkg.NewManifestListener(kafkaConsumer, impUC, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manifestListener.Start(ctx)

	// 10. Handlers and Router
	impHandler := impH.NewImporterHandler(impUC, appLogger)
	piHandler := piH.NewPendingImportHandler(piUC, appLogger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(auth.Middleware)
		impHandler.RegisterRoutes(api)
		piHandler.RegisterRoutes(api)
	})

	// 11. Start HTTP Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	server := &http.Server{
		Addr:         port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
