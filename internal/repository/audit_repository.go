package repository

import (
	"context"
	"fmt"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Insert добавляет запись в журнал (append-only)
func (r *AuditRepository) Insert(ctx context.Context, entry *model.AuditEntry) error {
	query := `
		INSERT INTO audit_log (action, actor, slot_id, slot_info)
		VALUES ($1, $2, $3, $4)
		RETURNING id, logged_at
	`

	err := r.pool.QueryRow(ctx, query, entry.Action, entry.Actor, entry.SlotID, entry.SlotInfo).
		Scan(&entry.ID, &entry.LoggedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// ListRecent возвращает последние записи журнала
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	query := `
		SELECT id, logged_at, action, actor, slot_id, slot_info
		FROM audit_log
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		err := rows.Scan(&e.ID, &e.LoggedAt, &e.Action, &e.Actor, &e.SlotID, &e.SlotInfo)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
