package repository

import (
	"context"
	"fmt"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConfirmationRepository struct {
	pool *pgxpool.Pool
}

func NewConfirmationRepository(pool *pgxpool.Pool) *ConfirmationRepository {
	return &ConfirmationRepository{pool: pool}
}

// Get получает запись подтверждения. Отсутствие записи не ошибка.
func (r *ConfirmationRepository) Get(ctx context.Context, email string) (*model.Confirmation, error) {
	query := `SELECT email, confirmed FROM confirmations WHERE email = $1`

	var conf model.Confirmation
	err := r.pool.QueryRow(ctx, query, email).Scan(&conf.Email, &conf.Confirmed)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get confirmation: %w", err)
	}

	return &conf, nil
}

// SetConfirmed ставит подтверждение (upsert)
func (r *ConfirmationRepository) SetConfirmed(ctx context.Context, email string) error {
	query := `
		INSERT INTO confirmations (email, confirmed)
		VALUES ($1, TRUE)
		ON CONFLICT (email) DO UPDATE SET confirmed = TRUE
	`

	if _, err := r.pool.Exec(ctx, query, email); err != nil {
		return fmt.Errorf("set confirmed: %w", err)
	}

	return nil
}

// Clear снимает подтверждение одного студента
func (r *ConfirmationRepository) Clear(ctx context.Context, email string) error {
	query := `DELETE FROM confirmations WHERE email = $1`

	if _, err := r.pool.Exec(ctx, query, email); err != nil {
		return fmt.Errorf("clear confirmation: %w", err)
	}

	return nil
}

// ClearAll снимает все подтверждения (чистый лист перед новым циклом)
func (r *ConfirmationRepository) ClearAll(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM confirmations`)
	if err != nil {
		return 0, fmt.Errorf("clear all confirmations: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListConfirmed возвращает email всех подтвердившихся студентов
func (r *ConfirmationRepository) ListConfirmed(ctx context.Context) ([]string, error) {
	query := `SELECT email FROM confirmations WHERE confirmed ORDER BY email`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list confirmed: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		emails = append(emails, email)
	}

	return emails, rows.Err()
}
