package service

import (
	"context"
	"strings"
	"time"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/google/uuid"
)

// Интерфейсы хранилищ, которые нужны сервисам. Реализуются
// репозиториями из internal/repository, в тестах — in-memory фейками.

type ControlStore interface {
	Get(ctx context.Context) (*model.Control, error)
	UpdateMatchSettings(ctx context.Context, phase model.Phase, maxSlots int, locked bool) error
	SetConfirmationsEnabled(ctx context.Context, enabled bool) error
}

type SlotStore interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	GetAll(ctx context.Context) ([]*model.Slot, error)
	GetOpen(ctx context.Context) ([]*model.Slot, error)
	GetByStudent(ctx context.Context, email string) ([]*model.Slot, error)
	CountByStudent(ctx context.Context, email string) (int, error)
	Claim(ctx context.Context, slotID uuid.UUID, email, studentName string) (bool, error)
	Unclaim(ctx context.Context, slotID uuid.UUID, email string) (bool, error)
}

type StudentStore interface {
	Create(ctx context.Context, st *model.Student) (bool, error)
	GetByEmail(ctx context.Context, email string) (*model.Student, error)
	GetAll(ctx context.Context) ([]*model.Student, error)
	Activate(ctx context.Context, email, firstName, lastName string) error
	UpdateProfile(ctx context.Context, email, firstName, lastName, school, groupLabel string, isLyte bool) error
	SetArchived(ctx context.Context, email string, archived bool) error
	ArchiveByEmails(ctx context.Context, emails []string) (int64, error)
	ArchiveByGroup(ctx context.Context, groupLabel string) (int64, error)
	ListActiveGroups(ctx context.Context) ([]string, error)
	ListArchivedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

type ConfirmationStore interface {
	Get(ctx context.Context, email string) (*model.Confirmation, error)
	SetConfirmed(ctx context.Context, email string) error
	Clear(ctx context.Context, email string) error
	ClearAll(ctx context.Context) (int64, error)
	ListConfirmed(ctx context.Context) ([]string, error)
}

type HistoryStore interface {
	Upsert(ctx context.Context, rec *model.ArchivedSlot) (bool, error)
	Create(ctx context.Context, rec *model.ArchivedSlot) error
	Update(ctx context.Context, rec *model.ArchivedSlot) error
	Delete(ctx context.Context, id uuid.UUID, email string) error
	ListByEmail(ctx context.Context, email string) ([]*model.ArchivedSlot, error)
	DeleteByEmails(ctx context.Context, emails []string) (int64, error)
}

type HourLogStore interface {
	Insert(ctx context.Context, adj *model.HourAdjustment) error
	Delete(ctx context.Context, id uuid.UUID, email string) error
	ListByEmail(ctx context.Context, email string) ([]*model.HourAdjustment, error)
	SumByEmail(ctx context.Context, email string) (float64, error)
}

type AuditStore interface {
	Insert(ctx context.Context, entry *model.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]*model.AuditEntry, error)
}

// normalizeEmail приводит email к канонической форме (нижний регистр)
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
