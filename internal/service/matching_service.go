package service

import (
	"context"
	"fmt"
	"time"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Snapshotter снимает текущие слоты студента в постоянную историю
type Snapshotter interface {
	Snapshot(ctx context.Context, email, season string) (int, error)
}

// MatchingService машина состояний claim/unclaim/confirm
type MatchingService struct {
	controls      ControlStore
	slots         SlotStore
	confirmations ConfirmationStore
	audit         AuditStore
	snapshotter   Snapshotter
	logger        *zap.Logger
}

func NewMatchingService(
	controls ControlStore,
	slots SlotStore,
	confirmations ConfirmationStore,
	audit AuditStore,
	snapshotter Snapshotter,
	logger *zap.Logger,
) *MatchingService {
	return &MatchingService{
		controls:      controls,
		slots:         slots,
		confirmations: confirmations,
		audit:         audit,
		snapshotter:   snapshotter,
		logger:        logger,
	}
}

// Claim занимает слот за студентом с учётом фазы, блокировки и лимита.
// Финальная запись — условный UPDATE "только если слот свободен":
// при одновременных запросах выигрывает ровно один.
func (s *MatchingService) Claim(ctx context.Context, email string, slotID uuid.UUID, displayName string) error {
	email = normalizeEmail(email)

	ctrl, err := s.controls.Get(ctx)
	if err != nil {
		return fmt.Errorf("get control: %w", err)
	}

	// Жёсткая блокировка отдельно от фазы
	if ctrl.MatchingLocked {
		return ErrMatchingLocked
	}

	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return ErrSlotNotFound
	}

	policy := model.PolicyFor(ctrl)
	if !policy.CanClaim(slot) {
		return ErrPhaseForbidden
	}

	if policy.Cap > 0 {
		count, err := s.slots.CountByStudent(ctx, email)
		if err != nil {
			return fmt.Errorf("count claimed slots: %w", err)
		}
		if count >= policy.Cap {
			return ErrCapExceeded
		}
	}

	if !slot.IsOpen() {
		return ErrSlotAlreadyClaimed
	}

	claimed, err := s.slots.Claim(ctx, slotID, email, displayName)
	if err != nil {
		return fmt.Errorf("claim slot: %w", err)
	}
	if !claimed {
		// проиграли гонку между проверкой и записью
		return ErrSlotAlreadyClaimed
	}

	s.recordAudit(ctx, model.AuditActionClaim, email, slotID)

	s.logger.Info("Slot claimed",
		zap.String("student", email),
		zap.String("slot_id", slotID.String()),
		zap.Int("phase", int(ctrl.Phase)),
	)

	return nil
}

// Unclaim освобождает слот студента. Разрешено даже при matchingLocked —
// блокировка запрещает только новые выборы. Подтверждение, напротив,
// запрещает освобождение и проверяется первым.
func (s *MatchingService) Unclaim(ctx context.Context, email string, slotID uuid.UUID) error {
	email = normalizeEmail(email)

	conf, err := s.confirmations.Get(ctx, email)
	if err != nil {
		return fmt.Errorf("get confirmation: %w", err)
	}
	if conf != nil && conf.Confirmed {
		return ErrAlreadyConfirmed
	}

	released, err := s.slots.Unclaim(ctx, slotID, email)
	if err != nil {
		return fmt.Errorf("unclaim slot: %w", err)
	}

	if released {
		s.recordAudit(ctx, model.AuditActionUnclaim, email, slotID)
		s.logger.Info("Slot unclaimed",
			zap.String("student", email),
			zap.String("slot_id", slotID.String()),
		)
	}

	return nil
}

// Confirm фиксирует выбор студента и синхронно снимает его слоты в
// историю. Успешный ответ гарантирует что снапшот был выполнен;
// частичные сбои снапшота логируются, а не возвращаются наверх.
func (s *MatchingService) Confirm(ctx context.Context, email string) (int, error) {
	email = normalizeEmail(email)

	ctrl, err := s.controls.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("get control: %w", err)
	}
	if !ctrl.ConfirmationsEnabled {
		return 0, ErrConfirmationsDisabled
	}

	if err := s.confirmations.SetConfirmed(ctx, email); err != nil {
		return 0, fmt.Errorf("set confirmed: %w", err)
	}

	inserted, err := s.snapshotter.Snapshot(ctx, email, CurrentSeason())
	if err != nil {
		s.logger.Error("Snapshot after confirm failed", zap.String("student", email), zap.Error(err))
	}

	s.logger.Info("Selection confirmed",
		zap.String("student", email),
		zap.Int("snapshot_inserted", inserted),
	)

	return inserted, nil
}

// AdminConfirm подтверждает выбор от имени администратора.
// Окно подтверждений не проверяется.
func (s *MatchingService) AdminConfirm(ctx context.Context, email string) (int, error) {
	email = normalizeEmail(email)

	if err := s.confirmations.SetConfirmed(ctx, email); err != nil {
		return 0, fmt.Errorf("set confirmed: %w", err)
	}

	inserted, err := s.snapshotter.Snapshot(ctx, email, CurrentSeason())
	if err != nil {
		s.logger.Error("Snapshot after admin confirm failed", zap.String("student", email), zap.Error(err))
	}

	return inserted, nil
}

// ClearConfirmation снимает подтверждение одного студента
func (s *MatchingService) ClearConfirmation(ctx context.Context, email string) error {
	return s.confirmations.Clear(ctx, normalizeEmail(email))
}

// ClearAllConfirmations снимает все подтверждения перед новым циклом
func (s *MatchingService) ClearAllConfirmations(ctx context.Context) (int64, error) {
	return s.confirmations.ClearAll(ctx)
}

// UpdateMatchSettings обновляет фазу, числовой лимит и блокировку
func (s *MatchingService) UpdateMatchSettings(ctx context.Context, phase model.Phase, maxSlots int, locked bool) error {
	if phase < model.PhaseViewOnly || phase > model.PhaseUnlimited {
		return fmt.Errorf("unknown phase %d", phase)
	}
	if maxSlots < 0 {
		maxSlots = 0
	}

	if err := s.controls.UpdateMatchSettings(ctx, phase, maxSlots, locked); err != nil {
		return fmt.Errorf("update match settings: %w", err)
	}

	s.logger.Info("Match settings updated",
		zap.Int("phase", int(phase)),
		zap.Int("max_slots", maxSlots),
		zap.Bool("matching_locked", locked),
	)

	return nil
}

// SetConfirmationsEnabled переключает окно подтверждений
func (s *MatchingService) SetConfirmationsEnabled(ctx context.Context, enabled bool) error {
	if err := s.controls.SetConfirmationsEnabled(ctx, enabled); err != nil {
		return fmt.Errorf("set confirmations enabled: %w", err)
	}

	s.logger.Info("Confirmations toggled", zap.Bool("enabled", enabled))
	return nil
}

// GetControl возвращает управляющую запись (создавая при первом обращении)
func (s *MatchingService) GetControl(ctx context.Context) (*model.Control, error) {
	return s.controls.Get(ctx)
}

// CreateSlot создаёт свободный слот (админ)
func (s *MatchingService) CreateSlot(ctx context.Context, slot *model.Slot) error {
	slot.StudentEmail = ""
	slot.StudentName = ""
	return s.slots.Create(ctx, slot)
}

// ListSlots возвращает все слоты
func (s *MatchingService) ListSlots(ctx context.Context) ([]*model.Slot, error) {
	return s.slots.GetAll(ctx)
}

// OpenSlots возвращает свободные слоты
func (s *MatchingService) OpenSlots(ctx context.Context) ([]*model.Slot, error) {
	return s.slots.GetOpen(ctx)
}

// StudentSlots возвращает слоты, занятые студентом
func (s *MatchingService) StudentSlots(ctx context.Context, email string) ([]*model.Slot, error) {
	return s.slots.GetByStudent(ctx, normalizeEmail(email))
}

// RecentAudit возвращает последние записи журнала claim/unclaim
func (s *MatchingService) RecentAudit(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.audit.ListRecent(ctx, limit)
}

// recordAudit best-effort запись в журнал. Любая ошибка здесь
// логируется и отбрасывается: журнал не должен ронять claim/unclaim.
// Пропавший слот молча пропускается.
func (s *MatchingService) recordAudit(ctx context.Context, action model.AuditAction, actor string, slotID uuid.UUID) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil || slot == nil {
		return
	}

	date := ""
	if slot.Date != nil {
		date = slot.Date.Format("2006-01-02")
	}

	entry := &model.AuditEntry{
		Action:   action,
		Actor:    actor,
		SlotID:   slotID,
		SlotInfo: fmt.Sprintf("%s %s %s", slot.PhysName, slot.TimeStart, date),
	}

	if err := s.audit.Insert(ctx, entry); err != nil {
		s.logger.Warn("Audit entry dropped", zap.String("actor", actor), zap.Error(err))
	}
}

// CurrentSeason метка сезона вида "2025-09"
func CurrentSeason() string {
	return time.Now().Format("2006-01")
}
