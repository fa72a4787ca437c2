package service

import (
	"context"
	"fmt"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// StudentService жизненный цикл аккаунтов: импорт, активация, архив
type StudentService struct {
	students StudentStore
	slots    SlotStore
	audit    AuditStore
	logger   *zap.Logger
}

func NewStudentService(students StudentStore, slots SlotStore, audit AuditStore, logger *zap.Logger) *StudentService {
	return &StudentService{
		students: students,
		slots:    slots,
		audit:    audit,
		logger:   logger,
	}
}

// NewAccount одна строка массового импорта (уже разобранная)
type NewAccount struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Group    string `json:"group"`
	IsLyte   bool   `json:"is_lyte"`
	School   string `json:"school"`
}

// BulkCreate создаёт неактивированные аккаунты. Дубликаты email
// пропускаются на уровне базы, остаётся первая запись.
func (s *StudentService) BulkCreate(ctx context.Context, accounts []NewAccount) (int, error) {
	created := 0
	for _, acc := range accounts {
		email := normalizeEmail(acc.Email)
		if email == "" || acc.Password == "" {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcrypt.DefaultCost)
		if err != nil {
			return created, fmt.Errorf("hash password: %w", err)
		}

		inserted, err := s.students.Create(ctx, &model.Student{
			Email:        email,
			PasswordHash: string(hash),
			GroupLabel:   acc.Group,
			School:       acc.School,
			IsLyte:       acc.IsLyte,
		})
		if err != nil {
			return created, fmt.Errorf("create account %s: %w", email, err)
		}
		if inserted {
			created++
		}
	}

	s.logger.Info("Bulk account import processed",
		zap.Int("received", len(accounts)),
		zap.Int("created", created),
	)

	return created, nil
}

// Activate одноразовая активация аккаунта: проверяет пароль из письма
// и заполняет имя. Архивные аккаунты активировать нельзя.
func (s *StudentService) Activate(ctx context.Context, email, password, firstName, lastName string) (*model.Student, error) {
	email = normalizeEmail(email)

	st, err := s.students.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if st == nil {
		return nil, ErrStudentNotFound
	}
	if st.Activated() {
		return nil, ErrAlreadyActivated
	}
	if st.IsArchived {
		return nil, ErrStudentArchived
	}

	if err := bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	st.FirstName = titleCaser.String(firstName)
	st.LastName = titleCaser.String(lastName)

	if err := s.students.Activate(ctx, email, st.FirstName, st.LastName); err != nil {
		return nil, fmt.Errorf("activate student: %w", err)
	}

	s.logger.Info("Account activated", zap.String("student", email))

	return st, nil
}

// Get возвращает студента по email
func (s *StudentService) Get(ctx context.Context, email string) (*model.Student, error) {
	st, err := s.students.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrStudentNotFound
	}
	return st, nil
}

// UpdateProfile правит анкетные поля студента
func (s *StudentService) UpdateProfile(ctx context.Context, email, firstName, lastName, school, group string, isLyte bool) error {
	return s.students.UpdateProfile(ctx, normalizeEmail(email), firstName, lastName, school, group, isLyte)
}

// Archive отключает аккаунт и помечает время архивации
func (s *StudentService) Archive(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := s.students.SetArchived(ctx, email, true); err != nil {
		return err
	}
	s.logger.Info("Student archived", zap.String("student", email))
	return nil
}

// Unarchive возвращает аккаунт из архива
func (s *StudentService) Unarchive(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := s.students.SetArchived(ctx, email, false); err != nil {
		return err
	}
	s.logger.Info("Student unarchived", zap.String("student", email))
	return nil
}

// ArchiveByGroup архивирует всех активных студентов группы
func (s *StudentService) ArchiveByGroup(ctx context.Context, group string) (int64, error) {
	if group == "" {
		return 0, fmt.Errorf("group is required")
	}

	archived, err := s.students.ArchiveByGroup(ctx, group)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Group archived", zap.String("group", group), zap.Int64("students", archived))
	return archived, nil
}

// ArchiveByGradYear архивирует студентов, чья группа заканчивается
// указанным годом выпуска (по строке вида "2025-2027")
func (s *StudentService) ArchiveByGradYear(ctx context.Context, gradYear int) (int64, error) {
	if gradYear <= 0 {
		return 0, fmt.Errorf("graduation year is required")
	}

	students, err := s.students.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list students: %w", err)
	}

	var emails []string
	for _, st := range students {
		if st.IsArchived {
			continue
		}
		if _, endYear, ok := model.ParseGroupYears(st.GroupLabel); ok && endYear == gradYear {
			emails = append(emails, st.Email)
		}
	}

	archived, err := s.students.ArchiveByEmails(ctx, emails)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Graduation year archived",
		zap.Int("grad_year", gradYear),
		zap.Int64("students", archived),
	)

	return archived, nil
}

// ListGroups группы активных студентов, считается по запросу
func (s *StudentService) ListGroups(ctx context.Context) ([]string, error) {
	return s.students.ListActiveGroups(ctx)
}

// AssignSlot прикрепляет свободный слот к студенту от имени админа.
// Тот же условный UPDATE, что и у обычного claim.
func (s *StudentService) AssignSlot(ctx context.Context, email string, slotID uuid.UUID) error {
	email = normalizeEmail(email)

	st, err := s.students.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	if st == nil {
		return ErrStudentNotFound
	}

	claimed, err := s.slots.Claim(ctx, slotID, email, st.DisplayName())
	if err != nil {
		return fmt.Errorf("assign slot: %w", err)
	}
	if !claimed {
		return ErrSlotAlreadyClaimed
	}

	// Журнал best-effort, как и у обычного claim
	if slot, err := s.slots.GetByID(ctx, slotID); err == nil && slot != nil {
		entry := &model.AuditEntry{
			Action:   model.AuditActionAssign,
			Actor:    email,
			SlotID:   slotID,
			SlotInfo: fmt.Sprintf("%s %s", slot.PhysName, slot.TimeStart),
		}
		if err := s.audit.Insert(ctx, entry); err != nil {
			s.logger.Warn("Audit entry dropped", zap.String("actor", email), zap.Error(err))
		}
	}

	s.logger.Info("Slot assigned by admin",
		zap.String("student", email),
		zap.String("slot_id", slotID.String()),
	)

	return nil
}

// RemoveSlot открепляет слот студента. Админская операция обходит
// блокировку подтверждения.
func (s *StudentService) RemoveSlot(ctx context.Context, email string, slotID uuid.UUID) error {
	_, err := s.slots.Unclaim(ctx, slotID, normalizeEmail(email))
	return err
}

// CreateAssignedSlot создаёт новый слот сразу за студентом
func (s *StudentService) CreateAssignedSlot(ctx context.Context, email string, slot *model.Slot) error {
	email = normalizeEmail(email)

	st, err := s.students.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	if st == nil {
		return ErrStudentNotFound
	}

	slot.StudentEmail = email
	slot.StudentName = st.DisplayName()

	return s.slots.Create(ctx, slot)
}
