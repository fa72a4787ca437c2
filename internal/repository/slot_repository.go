package repository

import (
	"context"
	"fmt"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

const slotColumns = `id, phys_name, phys_specialty, date, time_start, time_end,
		location, notes, student_email, student_name, created_at`

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.PhysName,
		&slot.PhysSpecialty,
		&slot.Date,
		&slot.TimeStart,
		&slot.TimeEnd,
		&slot.Location,
		&slot.Notes,
		&slot.StudentEmail,
		&slot.StudentName,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}

	query := `
		INSERT INTO slots (id, phys_name, phys_specialty, date, time_start, time_end,
			location, notes, student_email, student_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		slot.ID,
		slot.PhysName,
		slot.PhysSpecialty,
		slot.Date,
		slot.TimeStart,
		slot.TimeEnd,
		slot.Location,
		slot.Notes,
		slot.StudentEmail,
		slot.StudentName,
	).Scan(&slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetAll получает все слоты, отсортированные по дате
func (r *SlotRepository) GetAll(ctx context.Context) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots ORDER BY date NULLS LAST, time_start`
	return r.querySlots(ctx, query)
}

// GetOpen получает свободные слоты
func (r *SlotRepository) GetOpen(ctx context.Context) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE student_email = '' ORDER BY date NULLS LAST, time_start`
	return r.querySlots(ctx, query)
}

// GetByStudent получает все слоты, занятые студентом
func (r *SlotRepository) GetByStudent(ctx context.Context, email string) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE student_email = $1 ORDER BY date NULLS LAST, time_start`
	return r.querySlots(ctx, query, email)
}

func (r *SlotRepository) querySlots(ctx context.Context, query string, args ...interface{}) ([]*model.Slot, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// CountByStudent считает занятые студентом слоты
func (r *SlotRepository) CountByStudent(ctx context.Context, email string) (int, error) {
	query := `SELECT COUNT(*) FROM slots WHERE student_email = $1`

	var count int
	err := r.pool.QueryRow(ctx, query, email).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count slots by student: %w", err)
	}

	return count, nil
}

// Claim занимает слот за студентом. Единственный условный UPDATE:
// успех только если слот прямо сейчас свободен, это закрывает гонку
// между предварительной проверкой и записью.
func (r *SlotRepository) Claim(ctx context.Context, slotID uuid.UUID, email, studentName string) (bool, error) {
	query := `
		UPDATE slots
		SET student_email = $1, student_name = $2
		WHERE id = $3 AND student_email = ''
	`

	result, err := r.pool.Exec(ctx, query, email, studentName, slotID)
	if err != nil {
		return false, fmt.Errorf("claim slot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Unclaim освобождает слот, занятый этим студентом
func (r *SlotRepository) Unclaim(ctx context.Context, slotID uuid.UUID, email string) (bool, error) {
	query := `
		UPDATE slots
		SET student_email = '', student_name = ''
		WHERE id = $1 AND student_email = $2
	`

	result, err := r.pool.Exec(ctx, query, slotID, email)
	if err != nil {
		return false, fmt.Errorf("unclaim slot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
