package repository

import (
	"context"
	"fmt"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// controlID единственная строка таблицы controls
const controlID = 1

type ControlRepository struct {
	pool *pgxpool.Pool
}

func NewControlRepository(pool *pgxpool.Pool) *ControlRepository {
	return &ControlRepository{pool: pool}
}

// Get возвращает управляющую запись, создавая её при первом обращении
func (r *ControlRepository) Get(ctx context.Context) (*model.Control, error) {
	seed := `
		INSERT INTO controls (id, phase, max_slots, matching_locked, confirmations_enabled)
		VALUES ($1, 3, 100, false, false)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, seed, controlID); err != nil {
		return nil, fmt.Errorf("seed control row: %w", err)
	}

	query := `
		SELECT phase, max_slots, matching_locked, confirmations_enabled
		FROM controls
		WHERE id = $1
	`

	var ctrl model.Control
	err := r.pool.QueryRow(ctx, query, controlID).Scan(
		&ctrl.Phase,
		&ctrl.MaxSlots,
		&ctrl.MatchingLocked,
		&ctrl.ConfirmationsEnabled,
	)
	if err != nil {
		return nil, fmt.Errorf("get control row: %w", err)
	}

	return &ctrl, nil
}

// UpdateMatchSettings меняет фазу, лимит и блокировку матчинга
func (r *ControlRepository) UpdateMatchSettings(ctx context.Context, phase model.Phase, maxSlots int, locked bool) error {
	query := `
		UPDATE controls
		SET phase = $1, max_slots = $2, matching_locked = $3
		WHERE id = $4
	`

	if _, err := r.pool.Exec(ctx, query, phase, maxSlots, locked, controlID); err != nil {
		return fmt.Errorf("update match settings: %w", err)
	}

	return nil
}

// SetConfirmationsEnabled открывает или закрывает окно подтверждений
func (r *ControlRepository) SetConfirmationsEnabled(ctx context.Context, enabled bool) error {
	query := `UPDATE controls SET confirmations_enabled = $1 WHERE id = $2`

	if _, err := r.pool.Exec(ctx, query, enabled, controlID); err != nil {
		return fmt.Errorf("set confirmations enabled: %w", err)
	}

	return nil
}
