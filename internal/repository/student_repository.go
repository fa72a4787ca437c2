package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StudentRepository struct {
	pool *pgxpool.Pool
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = `id, email, password_hash, first_name, last_name,
		group_label, school, is_lyte, is_archived, archived_at, created_at`

func scanStudent(row pgx.Row) (*model.Student, error) {
	var st model.Student
	err := row.Scan(
		&st.ID,
		&st.Email,
		&st.PasswordHash,
		&st.FirstName,
		&st.LastName,
		&st.GroupLabel,
		&st.School,
		&st.IsLyte,
		&st.IsArchived,
		&st.ArchivedAt,
		&st.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Create создаёт студента. Email уникален на уровне базы: дубликат
// молча пропускается, остаётся первая запись (inserted = false).
func (r *StudentRepository) Create(ctx context.Context, st *model.Student) (bool, error) {
	query := `
		INSERT INTO students (email, password_hash, group_label, school, is_lyte)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, st.Email, st.PasswordHash, st.GroupLabel, st.School, st.IsLyte)
	if err != nil {
		return false, fmt.Errorf("create student: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// GetByEmail получает студента по email
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE email = $1`

	st, err := scanStudent(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by email: %w", err)
	}

	return st, nil
}

// GetAll получает всех студентов
func (r *StudentRepository) GetAll(ctx context.Context) ([]*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY email`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get students: %w", err)
	}
	defer rows.Close()

	var students []*model.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, st)
	}

	return students, rows.Err()
}

// Activate заполняет имя при активации аккаунта
func (r *StudentRepository) Activate(ctx context.Context, email, firstName, lastName string) error {
	query := `
		UPDATE students
		SET first_name = $1, last_name = $2
		WHERE email = $3
	`

	result, err := r.pool.Exec(ctx, query, firstName, lastName, email)
	if err != nil {
		return fmt.Errorf("activate student: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("student not found")
	}

	return nil
}

// UpdateProfile обновляет анкетные поля студента
func (r *StudentRepository) UpdateProfile(ctx context.Context, email, firstName, lastName, school, groupLabel string, isLyte bool) error {
	query := `
		UPDATE students
		SET first_name = $1, last_name = $2, school = $3, group_label = $4, is_lyte = $5
		WHERE email = $6
	`

	result, err := r.pool.Exec(ctx, query, firstName, lastName, school, groupLabel, isLyte, email)
	if err != nil {
		return fmt.Errorf("update student profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("student not found")
	}

	return nil
}

// SetArchived архивирует или разархивирует студента
func (r *StudentRepository) SetArchived(ctx context.Context, email string, archived bool) error {
	query := `
		UPDATE students
		SET is_archived = $1,
		    archived_at = CASE WHEN $1 THEN now() ELSE NULL END
		WHERE email = $2
	`

	result, err := r.pool.Exec(ctx, query, archived, email)
	if err != nil {
		return fmt.Errorf("set student archived: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("student not found")
	}

	return nil
}

// ArchiveByEmails архивирует пачку студентов, пропуская уже архивных
func (r *StudentRepository) ArchiveByEmails(ctx context.Context, emails []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}

	query := `
		UPDATE students
		SET is_archived = TRUE, archived_at = now()
		WHERE email = ANY($1) AND NOT is_archived
	`

	result, err := r.pool.Exec(ctx, query, emails)
	if err != nil {
		return 0, fmt.Errorf("archive students: %w", err)
	}

	return result.RowsAffected(), nil
}

// ArchiveByGroup архивирует всех активных студентов группы
func (r *StudentRepository) ArchiveByGroup(ctx context.Context, groupLabel string) (int64, error) {
	query := `
		UPDATE students
		SET is_archived = TRUE, archived_at = now()
		WHERE group_label = $1 AND NOT is_archived
	`

	result, err := r.pool.Exec(ctx, query, groupLabel)
	if err != nil {
		return 0, fmt.Errorf("archive students by group: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListActiveGroups возвращает группы неархивных студентов.
// Считается по запросу, без глобального кэша.
func (r *StudentRepository) ListActiveGroups(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT group_label
		FROM students
		WHERE NOT is_archived AND group_label <> ''
		ORDER BY group_label
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

// ListArchivedBefore возвращает email студентов, архивированных не позже cutoff
func (r *StudentRepository) ListArchivedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	query := `
		SELECT email
		FROM students
		WHERE is_archived AND archived_at IS NOT NULL AND archived_at <= $1
	`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list archived students: %w", err)
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
