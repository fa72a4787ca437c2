package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/apolloyim/the-match/internal/timeutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Историю храним год после архивации студента
const retentionWindow = 365 * 24 * time.Hour

// Параллельность bulk-записи снапшота
const snapshotWorkers = 8

// ArchiveService снимает подтверждённые слоты в историю и чистит её
type ArchiveService struct {
	slots         SlotStore
	students      StudentStore
	confirmations ConfirmationStore
	history       HistoryStore
	logger        *zap.Logger
}

func NewArchiveService(
	slots SlotStore,
	students StudentStore,
	confirmations ConfirmationStore,
	history HistoryStore,
	logger *zap.Logger,
) *ArchiveService {
	return &ArchiveService{
		slots:         slots,
		students:      students,
		confirmations: confirmations,
		history:       history,
		logger:        logger,
	}
}

// Snapshot идемпотентно копирует текущие слоты студента в историю.
// Ключ (email, source_slot_id) гарантирует отсутствие дубликатов при
// повторных вызовах. Записи пишутся независимо: сбой одной не
// блокирует остальные. Возвращает число новых (не тронутых) записей.
func (s *ArchiveService) Snapshot(ctx context.Context, email, season string) (int, error) {
	email = normalizeEmail(email)
	if email == "" {
		return 0, nil
	}

	claimed, err := s.slots.GetByStudent(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("get claimed slots: %w", err)
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	var inserted atomic.Int64
	var g errgroup.Group
	g.SetLimit(snapshotWorkers)

	for _, slot := range claimed {
		rec := &model.ArchivedSlot{
			StudentEmail:  email,
			StudentName:   slot.StudentName,
			PhysName:      slot.PhysName,
			PhysSpecialty: slot.PhysSpecialty,
			Date:          slot.Date,
			TimeStart:     slot.TimeStart,
			TimeEnd:       slot.TimeEnd,
			Location:      slot.Location,
			Notes:         slot.Notes,
			Season:        season,
			SourceSlotID:  slot.ID,
		}

		g.Go(func() error {
			isNew, err := s.history.Upsert(ctx, rec)
			if err != nil {
				return fmt.Errorf("snapshot slot %s: %w", rec.SourceSlotID, err)
			}
			if isNew {
				inserted.Add(1)
			}
			return nil
		})
	}

	err = g.Wait()

	s.logger.Info("Snapshot completed",
		zap.String("student", email),
		zap.String("season", season),
		zap.Int("claimed", len(claimed)),
		zap.Int64("inserted", inserted.Load()),
	)

	return int(inserted.Load()), err
}

// SnapshotConfirmed снимает слоты всех подтвердившихся студентов (свип).
// Ошибки отдельных студентов логируются, свип продолжается.
func (s *ArchiveService) SnapshotConfirmed(ctx context.Context) (int, error) {
	emails, err := s.confirmations.ListConfirmed(ctx)
	if err != nil {
		return 0, fmt.Errorf("list confirmed: %w", err)
	}

	season := CurrentSeason()
	total := 0
	for _, email := range emails {
		inserted, err := s.Snapshot(ctx, email, season)
		if err != nil {
			s.logger.Error("Sweep snapshot failed", zap.String("student", email), zap.Error(err))
			continue
		}
		total += inserted
	}

	return total, nil
}

// PurgeResult итог одного прохода очистки истории
type PurgeResult struct {
	Deleted  int64 `json:"deleted"`
	Students int   `json:"students"`
}

// PurgeOldHistory удаляет историю студентов, архивированных больше года
// назад. Никогда не возвращает ошибку: любой сбой логируется и даёт
// нулевой результат, чтобы не ронять планировщик.
func (s *ArchiveService) PurgeOldHistory(ctx context.Context) PurgeResult {
	cutoff := time.Now().Add(-retentionWindow)

	emails, err := s.students.ListArchivedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("Purge: list archived students failed", zap.Error(err))
		return PurgeResult{}
	}
	if len(emails) == 0 {
		s.logger.Info("Purge: no archived students older than a year")
		return PurgeResult{}
	}

	deleted, err := s.history.DeleteByEmails(ctx, emails)
	if err != nil {
		s.logger.Error("Purge: delete history failed", zap.Error(err))
		return PurgeResult{}
	}

	s.logger.Info("Purge completed",
		zap.Int64("deleted_records", deleted),
		zap.Int("students", len(emails)),
	)

	return PurgeResult{Deleted: deleted, Students: len(emails)}
}

// History возвращает историю студента, новые записи первыми
func (s *ArchiveService) History(ctx context.Context, email string) ([]*model.ArchivedSlot, error) {
	return s.history.ListByEmail(ctx, normalizeEmail(email))
}

// ArchivedHours суммирует часы по истории студента
func (s *ArchiveService) ArchivedHours(ctx context.Context, email string) (float64, error) {
	recs, err := s.history.ListByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return 0, fmt.Errorf("list history: %w", err)
	}

	total := 0.0
	for _, rec := range recs {
		total += timeutil.SlotHours(rec.TimeStart, rec.TimeEnd)
	}

	return timeutil.Round2(total), nil
}

// CreateRecord добавляет запись истории вручную
func (s *ArchiveService) CreateRecord(ctx context.Context, rec *model.ArchivedSlot) error {
	rec.StudentEmail = normalizeEmail(rec.StudentEmail)

	st, err := s.students.GetByEmail(ctx, rec.StudentEmail)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	if st == nil {
		return ErrStudentNotFound
	}
	if rec.StudentName == "" {
		rec.StudentName = st.DisplayName()
	}

	return s.history.Create(ctx, rec)
}

// UpdateRecord правит описательные поля записи истории
func (s *ArchiveService) UpdateRecord(ctx context.Context, rec *model.ArchivedSlot) error {
	rec.StudentEmail = normalizeEmail(rec.StudentEmail)
	return s.history.Update(ctx, rec)
}

// DeleteRecord удаляет одну запись истории
func (s *ArchiveService) DeleteRecord(ctx context.Context, id uuid.UUID, email string) error {
	return s.history.Delete(ctx, id, normalizeEmail(email))
}
