package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cptracker/internal/domain/model"
)

type ContestRepository interface {
	// ReplaceForStudent deletes the student's stored contest history and
	// inserts the given set in its place, inside the supplied transaction.
	ReplaceForStudent(ctx context.Context, tx *sql.Tx, studentID string, contests []model.ContestResult) error
	UpdateSolvedCounts(ctx context.Context, tx *sql.Tx, studentID string, counts map[int64]int) error
	ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]model.ContestResult, error)
}

type pgContestRepository struct {
	db *sql.DB
}

func NewPgContestRepository(db *sql.DB) ContestRepository {
	return &pgContestRepository{db: db}
}

func (r *pgContestRepository) ReplaceForStudent(ctx context.Context, tx *sql.Tx, studentID string, contests []model.ContestResult) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM contest_results WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("pgContestRepository.ReplaceForStudent delete: %w", err)
	}
	if len(contests) == 0 {
		return nil
	}

	for _, b := range chunkRows(len(contests), insertChunkRows) {
		chunk := contests[b[0]:b[1]]
		var sb strings.Builder
		sb.WriteString(`INSERT INTO contest_results
		    (id, student_id, contest_id, contest_name, contest_date, old_rating, new_rating, rank, rating_change, problems_solved)
		    VALUES `)
		args := make([]any, 0, len(chunk)*10)
		for i, c := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			base := i * 10
			sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10))
			args = append(args, c.ID, c.StudentID, c.ContestID, c.ContestName, c.ContestDate,
				c.OldRating, c.NewRating, c.Rank, c.RatingChange, c.ProblemsSolved)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("pgContestRepository.ReplaceForStudent insert: %w", err)
		}
	}
	return nil
}

func (r *pgContestRepository) UpdateSolvedCounts(ctx context.Context, tx *sql.Tx, studentID string, counts map[int64]int) error {
	query := `UPDATE contest_results SET problems_solved = $1 WHERE student_id = $2 AND contest_id = $3`
	for contestID, count := range counts {
		if _, err := tx.ExecContext(ctx, query, count, studentID, contestID); err != nil {
			return fmt.Errorf("pgContestRepository.UpdateSolvedCounts: %w", err)
		}
	}
	return nil
}

func (r *pgContestRepository) ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]model.ContestResult, error) {
	query := `SELECT id, student_id, contest_id, contest_name, contest_date, old_rating, new_rating, rank, rating_change, problems_solved
	          FROM contest_results
	          WHERE student_id = $1 AND contest_date >= $2
	          ORDER BY contest_date DESC`
	rows, err := r.db.QueryContext(ctx, query, studentID, since)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.ListByStudentSince: %w", err)
	}
	defer rows.Close()

	contests := []model.ContestResult{}
	for rows.Next() {
		var c model.ContestResult
		if err := rows.Scan(&c.ID, &c.StudentID, &c.ContestID, &c.ContestName, &c.ContestDate,
			&c.OldRating, &c.NewRating, &c.Rank, &c.RatingChange, &c.ProblemsSolved); err != nil {
			return nil, fmt.Errorf("pgContestRepository.ListByStudentSince: %w", err)
		}
		contests = append(contests, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgContestRepository.ListByStudentSince: %w", err)
	}
	return contests, nil
}
