package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apolloyim/the-match/internal/app"
	"github.com/apolloyim/the-match/internal/config"
	"github.com/apolloyim/the-match/internal/controller"
	"github.com/apolloyim/the-match/internal/repository"
	"github.com/apolloyim/the-match/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting match server", zap.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// Репозитории
	controlRepo := repository.NewControlRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	confirmationRepo := repository.NewConfirmationRepository(pool)
	archiveRepo := repository.NewArchiveRepository(pool)
	hourLogRepo := repository.NewHourLogRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	// Сервисы
	archiveService := service.NewArchiveService(slotRepo, studentRepo, confirmationRepo, archiveRepo, logger)
	matchingService := service.NewMatchingService(controlRepo, slotRepo, confirmationRepo, auditRepo, archiveService, logger)
	studentService := service.NewStudentService(studentRepo, slotRepo, auditRepo, logger)
	hoursService := service.NewHoursService(hourLogRepo, archiveRepo, slotRepo, logger)
	analyticsService := service.NewAnalyticsService(slotRepo, studentRepo)

	// Фоновая очистка истории
	scheduler := app.NewScheduler(archiveService, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	ctrl := controller.NewController(
		matchingService,
		studentService,
		archiveService,
		hoursService,
		analyticsService,
		logger,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      ctrl.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
