package service

import (
	"context"
	"fmt"
	"math"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/apolloyim/the-match/internal/timeutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HoursService ручные корректировки часов и сводка по часам студента
type HoursService struct {
	hourLogs HourLogStore
	history  HistoryStore
	slots    SlotStore
	logger   *zap.Logger
}

func NewHoursService(hourLogs HourLogStore, history HistoryStore, slots SlotStore, logger *zap.Logger) *HoursService {
	return &HoursService{
		hourLogs: hourLogs,
		history:  history,
		slots:    slots,
		logger:   logger,
	}
}

// AddAdjustment добавляет корректировку. Нулевая, NaN или бесконечная
// дельта отклоняется.
func (s *HoursService) AddAdjustment(ctx context.Context, email string, deltaHours float64, reason string) (*model.HourAdjustment, error) {
	if deltaHours == 0 || math.IsNaN(deltaHours) || math.IsInf(deltaHours, 0) {
		return nil, ErrInvalidDelta
	}

	adj := &model.HourAdjustment{
		StudentEmail: normalizeEmail(email),
		DeltaHours:   deltaHours,
		Reason:       reason,
	}

	if err := s.hourLogs.Insert(ctx, adj); err != nil {
		return nil, fmt.Errorf("insert adjustment: %w", err)
	}

	s.logger.Info("Hour adjustment added",
		zap.String("student", adj.StudentEmail),
		zap.Float64("delta_hours", deltaHours),
	)

	return adj, nil
}

// RemoveAdjustment удаляет корректировку в рамках email (идемпотентно)
func (s *HoursService) RemoveAdjustment(ctx context.Context, email string, id uuid.UUID) error {
	return s.hourLogs.Delete(ctx, id, normalizeEmail(email))
}

// Adjustments возвращает корректировки студента
func (s *HoursService) Adjustments(ctx context.Context, email string) ([]*model.HourAdjustment, error) {
	return s.hourLogs.ListByEmail(ctx, normalizeEmail(email))
}

// HourTotals сводка часов студента
type HourTotals struct {
	CurrentClaimedHours float64 `json:"current_claimed_hours"`
	ArchivedHours       float64 `json:"archived_hours"`
	Adjustments         float64 `json:"adjustments"`
	LifetimeHours       float64 `json:"lifetime_hours"`
}

// Totals детерминированная сводка без побочных эффектов:
// lifetime = архивные часы + сумма корректировок.
func (s *HoursService) Totals(ctx context.Context, email string) (*HourTotals, error) {
	email = normalizeEmail(email)

	claimed, err := s.slots.GetByStudent(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get claimed slots: %w", err)
	}
	current := 0.0
	for _, slot := range claimed {
		current += timeutil.SlotHours(slot.TimeStart, slot.TimeEnd)
	}

	history, err := s.history.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	archived := 0.0
	for _, rec := range history {
		archived += timeutil.SlotHours(rec.TimeStart, rec.TimeEnd)
	}

	adjustments, err := s.hourLogs.SumByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("sum adjustments: %w", err)
	}

	return &HourTotals{
		CurrentClaimedHours: timeutil.Round2(current),
		ArchivedHours:       timeutil.Round2(archived),
		Adjustments:         timeutil.Round2(adjustments),
		LifetimeHours:       timeutil.Round2(archived + adjustments),
	}, nil
}
