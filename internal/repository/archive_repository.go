package repository

import (
	"context"
	"fmt"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ArchiveRepository struct {
	pool *pgxpool.Pool
}

func NewArchiveRepository(pool *pgxpool.Pool) *ArchiveRepository {
	return &ArchiveRepository{pool: pool}
}

const archivedColumns = `id, student_email, student_name, phys_name, phys_specialty,
		date, time_start, time_end, location, notes, season, source_slot_id, captured_at`

func scanArchived(row pgx.Row) (*model.ArchivedSlot, error) {
	var rec model.ArchivedSlot
	err := row.Scan(
		&rec.ID,
		&rec.StudentEmail,
		&rec.StudentName,
		&rec.PhysName,
		&rec.PhysSpecialty,
		&rec.Date,
		&rec.TimeStart,
		&rec.TimeEnd,
		&rec.Location,
		&rec.Notes,
		&rec.Season,
		&rec.SourceSlotID,
		&rec.CapturedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Upsert идемпотентная запись снапшота по ключу (student_email, source_slot_id).
// Поля снимка неизменны после первой вставки: повтор обновляет только
// captured_at. Возвращает true если запись новая.
func (r *ArchiveRepository) Upsert(ctx context.Context, rec *model.ArchivedSlot) (bool, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	insert := `
		INSERT INTO archived_slots (id, student_email, student_name, phys_name, phys_specialty,
			date, time_start, time_end, location, notes, season, source_slot_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (student_email, source_slot_id) DO NOTHING
	`

	result, err := r.pool.Exec(
		ctx, insert,
		rec.ID,
		rec.StudentEmail,
		rec.StudentName,
		rec.PhysName,
		rec.PhysSpecialty,
		rec.Date,
		rec.TimeStart,
		rec.TimeEnd,
		rec.Location,
		rec.Notes,
		rec.Season,
		rec.SourceSlotID,
	)
	if err != nil {
		return false, fmt.Errorf("upsert archived slot: %w", err)
	}

	if result.RowsAffected() > 0 {
		return true, nil
	}

	touch := `
		UPDATE archived_slots
		SET captured_at = now()
		WHERE student_email = $1 AND source_slot_id = $2
	`
	if _, err := r.pool.Exec(ctx, touch, rec.StudentEmail, rec.SourceSlotID); err != nil {
		return false, fmt.Errorf("touch archived slot: %w", err)
	}

	return false, nil
}

// Create создаёт запись истории вручную (админ)
func (r *ArchiveRepository) Create(ctx context.Context, rec *model.ArchivedSlot) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.SourceSlotID == uuid.Nil {
		// ручные записи не привязаны к живому слоту
		rec.SourceSlotID = uuid.New()
	}

	query := `
		INSERT INTO archived_slots (id, student_email, student_name, phys_name, phys_specialty,
			date, time_start, time_end, location, notes, season, source_slot_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING captured_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		rec.ID,
		rec.StudentEmail,
		rec.StudentName,
		rec.PhysName,
		rec.PhysSpecialty,
		rec.Date,
		rec.TimeStart,
		rec.TimeEnd,
		rec.Location,
		rec.Notes,
		rec.Season,
		rec.SourceSlotID,
	).Scan(&rec.CapturedAt)

	if err != nil {
		return fmt.Errorf("create archived slot: %w", err)
	}

	return nil
}

// Update правит описательные поля записи истории (админ)
func (r *ArchiveRepository) Update(ctx context.Context, rec *model.ArchivedSlot) error {
	query := `
		UPDATE archived_slots
		SET phys_name = $1, phys_specialty = $2, date = $3, time_start = $4,
		    time_end = $5, location = $6, notes = $7, season = $8
		WHERE id = $9 AND student_email = $10
	`

	result, err := r.pool.Exec(
		ctx, query,
		rec.PhysName,
		rec.PhysSpecialty,
		rec.Date,
		rec.TimeStart,
		rec.TimeEnd,
		rec.Location,
		rec.Notes,
		rec.Season,
		rec.ID,
		rec.StudentEmail,
	)
	if err != nil {
		return fmt.Errorf("update archived slot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("archived slot not found")
	}

	return nil
}

// Delete удаляет одну запись истории, привязанную к email
func (r *ArchiveRepository) Delete(ctx context.Context, id uuid.UUID, email string) error {
	query := `DELETE FROM archived_slots WHERE id = $1 AND student_email = $2`

	if _, err := r.pool.Exec(ctx, query, id, email); err != nil {
		return fmt.Errorf("delete archived slot: %w", err)
	}

	return nil
}

// ListByEmail возвращает историю студента, новые записи первыми
func (r *ArchiveRepository) ListByEmail(ctx context.Context, email string) ([]*model.ArchivedSlot, error) {
	query := `SELECT ` + archivedColumns + ` FROM archived_slots WHERE student_email = $1 ORDER BY captured_at DESC`

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("list archived slots: %w", err)
	}
	defer rows.Close()

	var recs []*model.ArchivedSlot
	for rows.Next() {
		rec, err := scanArchived(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archived slot: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// DeleteByEmails удаляет всю историю перечисленных студентов
func (r *ArchiveRepository) DeleteByEmails(ctx context.Context, emails []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}

	query := `DELETE FROM archived_slots WHERE student_email = ANY($1)`

	result, err := r.pool.Exec(ctx, query, emails)
	if err != nil {
		return 0, fmt.Errorf("delete archived slots: %w", err)
	}

	return result.RowsAffected(), nil
}
