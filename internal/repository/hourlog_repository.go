package repository

import (
	"context"
	"fmt"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HourLogRepository struct {
	pool *pgxpool.Pool
}

func NewHourLogRepository(pool *pgxpool.Pool) *HourLogRepository {
	return &HourLogRepository{pool: pool}
}

// Insert добавляет корректировку часов
func (r *HourLogRepository) Insert(ctx context.Context, adj *model.HourAdjustment) error {
	if adj.ID == uuid.Nil {
		adj.ID = uuid.New()
	}

	query := `
		INSERT INTO hour_adjustments (id, student_email, delta_hours, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query, adj.ID, adj.StudentEmail, adj.DeltaHours, adj.Reason).
		Scan(&adj.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert hour adjustment: %w", err)
	}

	return nil
}

// Delete удаляет корректировку в рамках email. Отсутствие записи не
// ошибка: удаление идемпотентно.
func (r *HourLogRepository) Delete(ctx context.Context, id uuid.UUID, email string) error {
	query := `DELETE FROM hour_adjustments WHERE id = $1 AND student_email = $2`

	if _, err := r.pool.Exec(ctx, query, id, email); err != nil {
		return fmt.Errorf("delete hour adjustment: %w", err)
	}

	return nil
}

// ListByEmail возвращает корректировки студента, новые первыми
func (r *HourLogRepository) ListByEmail(ctx context.Context, email string) ([]*model.HourAdjustment, error) {
	query := `
		SELECT id, student_email, delta_hours, reason, created_at
		FROM hour_adjustments
		WHERE student_email = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("list hour adjustments: %w", err)
	}
	defer rows.Close()

	var adjs []*model.HourAdjustment
	for rows.Next() {
		var adj model.HourAdjustment
		err := rows.Scan(&adj.ID, &adj.StudentEmail, &adj.DeltaHours, &adj.Reason, &adj.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan hour adjustment: %w", err)
		}
		adjs = append(adjs, &adj)
	}

	return adjs, rows.Err()
}

// SumByEmail суммирует корректировки студента
func (r *HourLogRepository) SumByEmail(ctx context.Context, email string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(delta_hours), 0)
		FROM hour_adjustments
		WHERE student_email = $1
	`

	var sum float64
	if err := r.pool.QueryRow(ctx, query, email).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum hour adjustments: %w", err)
	}

	return sum, nil
}
