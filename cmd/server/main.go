package main

import (
	"ascend/physique-app/internal/ai"
	"ascend/physique-app/internal/api"
	"ascend/physique-app/internal/config"
	"ascend/physique-app/internal/mail"
	"ascend/physique-app/internal/repository"
	appmongo "ascend/physique-app/internal/repository/mongo"
	"ascend/physique-app/internal/service"
	"ascend/physique-app/internal/storage"
	"ascend/physique-app/internal/store"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting physique app server")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	// --- Record Store Backend ---
	var kv repository.KeyValue
	var userRepo repository.UserRepository
	switch cfg.Storage.Driver {
	case "memory":
		logger.Warn("using in-memory storage; all records are lost on restart")
		kv = store.NewMemoryKeyValue()
		userRepo = store.NewMemoryUserRepository()
	default:
		dbClient, err := appmongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			logger.Fatal("could not connect to MongoDB", zap.Error(err))
		}
		defer func() {
			if err := appmongo.DisconnectDB(dbClient); err != nil {
				logger.Error("failed to disconnect MongoDB", zap.Error(err))
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)
		logger.Info("database connection established", zap.String("db", cfg.Database.Name))

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			defer cancel()
			appmongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		}()

		kv = appmongo.NewMongoKeyValue(appDB)
		userRepo = appmongo.NewMongoUserRepository(appDB)
	}
	// --- File Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3, logger)
	if err != nil {
		logger.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	// --- Core Components ---
	recordStore := store.NewStore(kv, logger)
	promos := store.NewPromoRegistry(kv, logger)

	generator := ai.NewClient(cfg.Gemini.APIKey, logger,
		ai.WithModel(cfg.Gemini.Model),
		ai.WithRetry(cfg.Gemini.MaxRetries, cfg.Gemini.RetryDelay),
	)
	mailer := mail.NewTransport(cfg.SMTP, logger)

	// --- Services ---
	creditService := service.NewCreditService(recordStore, promos, logger)
	authService := service.NewAuthService(userRepo, recordStore, cfg.JWT.Secret, cfg.JWT.Expiration)
	profileService := service.NewProfileService(recordStore, creditService, logger)
	planService := service.NewPlanService(recordStore, creditService, generator, fileStorage, logger)
	reportService := service.NewReportService(recordStore, creditService, mailer, logger)

	// --- HTTP ---
	router := gin.Default()
	api.SetupRoutes(router, cfg.JWT.Secret,
		authService, profileService, creditService, planService, reportService,
		promos, recordStore)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen and serve error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
