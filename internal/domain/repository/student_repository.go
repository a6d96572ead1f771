package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cptracker/internal/common"
	"cptracker/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	Update(ctx context.Context, student *model.Student) error
	FindByID(ctx context.Context, id string) (*model.Student, error)
	ListActive(ctx context.Context) ([]model.Student, error)
	SoftDelete(ctx context.Context, id string) error

	UpdateRatings(ctx context.Context, id string, currentRating, maxRating int, syncedAt time.Time) error
	UpdateLastSubmissionDate(ctx context.Context, tx *sql.Tx, id string, lastSubmission time.Time) error

	FindInactiveSince(ctx context.Context, cutoff time.Time) ([]model.Student, error)
	RecordReminderSent(ctx context.Context, id string, sentAt time.Time) error
	SetRemindersDisabled(ctx context.Context, id string, disabled bool) error
	GetInactivityStats(ctx context.Context, cutoff time.Time) (*model.InactivityStats, error)
	ListTopReminded(ctx context.Context, limit int) ([]model.Student, error)
}

type pgStudentRepository struct {
	db *sql.DB
}

func NewPgStudentRepository(db *sql.DB) StudentRepository {
	return &pgStudentRepository{db: db}
}

const studentColumns = `id, name, email, phone_number, handle, current_rating, max_rating,
	enrollment_date, is_active, last_synced_at, last_submission_date,
	reminder_email_count, last_reminder_sent, email_reminders_disabled,
	created_at, updated_at`

func scanStudent(row interface{ Scan(dest ...any) error }) (*model.Student, error) {
	s := &model.Student{}
	err := row.Scan(
		&s.ID, &s.Name, &s.Email, &s.PhoneNumber, &s.Handle, &s.CurrentRating, &s.MaxRating,
		&s.EnrollmentDate, &s.IsActive, &s.LastSyncedAt, &s.LastSubmissionDate,
		&s.ReminderEmailCount, &s.LastReminderSent, &s.EmailRemindersDisabled,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *pgStudentRepository) Create(ctx context.Context, s *model.Student) error {
	query := `INSERT INTO students (id, name, email, phone_number, handle, current_rating, max_rating,
	              enrollment_date, is_active, last_submission_date, email_reminders_disabled)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.Email, s.PhoneNumber, s.Handle, s.CurrentRating, s.MaxRating,
		s.EnrollmentDate, s.IsActive, s.LastSubmissionDate, s.EmailRemindersDisabled,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("student with this email or handle already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgStudentRepository.Create: %w", err)
	}
	return nil
}

func (r *pgStudentRepository) Update(ctx context.Context, s *model.Student) error {
	query := `UPDATE students
	          SET name = $1, email = $2, phone_number = $3, handle = $4, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $5 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, s.Name, s.Email, s.PhoneNumber, s.Handle, s.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("student with this email or handle already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgStudentRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgStudentRepository) FindByID(ctx context.Context, id string) (*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1 AND is_active = TRUE`
	s, err := scanStudent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgStudentRepository.FindByID: %w", err)
	}
	return s, nil
}

func (r *pgStudentRepository) ListActive(ctx context.Context) ([]model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE is_active = TRUE ORDER BY name ASC`
	return r.queryStudents(ctx, "ListActive", query)
}

func (r *pgStudentRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE students SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("pgStudentRepository.SoftDelete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgStudentRepository) UpdateRatings(ctx context.Context, id string, currentRating, maxRating int, syncedAt time.Time) error {
	// Max rating never decreases on its own.
	query := `UPDATE students
	          SET current_rating = $1, max_rating = GREATEST(max_rating, $2),
	              last_synced_at = $3, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, currentRating, maxRating, syncedAt, id)
	if err != nil {
		return fmt.Errorf("pgStudentRepository.UpdateRatings: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgStudentRepository) UpdateLastSubmissionDate(ctx context.Context, tx *sql.Tx, id string, lastSubmission time.Time) error {
	query := `UPDATE students SET last_submission_date = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, lastSubmission, id)
	} else {
		_, err = r.db.ExecContext(ctx, query, lastSubmission, id)
	}
	if err != nil {
		return fmt.Errorf("pgStudentRepository.UpdateLastSubmissionDate: %w", err)
	}
	return nil
}

func (r *pgStudentRepository) FindInactiveSince(ctx context.Context, cutoff time.Time) ([]model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students
	          WHERE is_active = TRUE AND email_reminders_disabled = FALSE AND last_submission_date < $1
	          ORDER BY last_submission_date ASC`
	return r.queryStudents(ctx, "FindInactiveSince", query, cutoff)
}

func (r *pgStudentRepository) RecordReminderSent(ctx context.Context, id string, sentAt time.Time) error {
	query := `UPDATE students
	          SET reminder_email_count = reminder_email_count + 1, last_reminder_sent = $1,
	              updated_at = CURRENT_TIMESTAMP
	          WHERE id = $2 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, sentAt, id)
	if err != nil {
		return fmt.Errorf("pgStudentRepository.RecordReminderSent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgStudentRepository) SetRemindersDisabled(ctx context.Context, id string, disabled bool) error {
	query := `UPDATE students SET email_reminders_disabled = $1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $2 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, disabled, id)
	if err != nil {
		return fmt.Errorf("pgStudentRepository.SetRemindersDisabled: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgStudentRepository) GetInactivityStats(ctx context.Context, cutoff time.Time) (*model.InactivityStats, error) {
	query := `SELECT COUNT(*),
	                 COUNT(*) FILTER (WHERE last_submission_date < $1),
	                 COUNT(*) FILTER (WHERE email_reminders_disabled)
	          FROM students WHERE is_active = TRUE`
	stats := &model.InactivityStats{}
	err := r.db.QueryRowContext(ctx, query, cutoff).Scan(
		&stats.TotalStudents, &stats.Inactive7Days, &stats.RemindersDisabled,
	)
	if err != nil {
		return nil, fmt.Errorf("pgStudentRepository.GetInactivityStats: %w", err)
	}
	return stats, nil
}

func (r *pgStudentRepository) ListTopReminded(ctx context.Context, limit int) ([]model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students
	          WHERE is_active = TRUE AND reminder_email_count > 0
	          ORDER BY reminder_email_count DESC LIMIT $1`
	return r.queryStudents(ctx, "ListTopReminded", query, limit)
}

func (r *pgStudentRepository) queryStudents(ctx context.Context, op, query string, args ...any) ([]model.Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgStudentRepository.%s: %w", op, err)
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("pgStudentRepository.%s: %w", op, err)
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgStudentRepository.%s: %w", op, err)
	}
	return students, nil
}
