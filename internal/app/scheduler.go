package app

import (
	"context"
	"time"

	"github.com/apolloyim/the-match/internal/service"
	"go.uber.org/zap"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	archiveService *service.ArchiveService
	logger         *zap.Logger
	stopChan       chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(archiveService *service.ArchiveService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		archiveService: archiveService,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go s.runHistoryPurgeTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runHistoryPurgeTask периодически чистит историю давно архивированных студентов
func (s *Scheduler) runHistoryPurgeTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.purgeHistory(ctx)

	// Затем каждые 24 часа
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purgeHistory(ctx)
		case <-s.stopChan:
			s.logger.Info("History purge task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("History purge task cancelled")
			return
		}
	}
}

// purgeHistory один проход очистки. PurgeOldHistory никогда не
// возвращает ошибку: неудачный прогон логируется внутри и даёт
// нулевой результат, следующий запуск по расписанию не отменяется.
func (s *Scheduler) purgeHistory(ctx context.Context) {
	s.logger.Info("Starting scheduled history purge")

	res := s.archiveService.PurgeOldHistory(ctx)

	s.logger.Info("Scheduled history purge completed",
		zap.Int64("deleted_records", res.Deleted),
		zap.Int("affected_students", res.Students),
	)
}
