package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cptracker/internal/domain/model"
)

type SolvedProblemRepository interface {
	// ReplaceForStudent deletes the student's stored solved-problem set and
	// inserts the given set in its place, inside the supplied transaction.
	ReplaceForStudent(ctx context.Context, tx *sql.Tx, studentID string, problems []model.SolvedProblem) error
	CountByContest(ctx context.Context, tx *sql.Tx, studentID string) (map[int64]int, error)
	MaxSolvedDate(ctx context.Context, tx *sql.Tx, studentID string) (*time.Time, error)
	ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]model.SolvedProblem, error)
	HeatmapSince(ctx context.Context, studentID string, since time.Time) ([]model.HeatmapPoint, error)
}

type pgSolvedProblemRepository struct {
	db *sql.DB
}

func NewPgSolvedProblemRepository(db *sql.DB) SolvedProblemRepository {
	return &pgSolvedProblemRepository{db: db}
}

func (r *pgSolvedProblemRepository) ReplaceForStudent(ctx context.Context, tx *sql.Tx, studentID string, problems []model.SolvedProblem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM solved_problems WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("pgSolvedProblemRepository.ReplaceForStudent delete: %w", err)
	}
	if len(problems) == 0 {
		return nil
	}

	for _, b := range chunkRows(len(problems), insertChunkRows) {
		chunk := problems[b[0]:b[1]]
		var sb strings.Builder
		sb.WriteString(`INSERT INTO solved_problems
		    (id, student_id, problem_id, problem_name, contest_id, problem_index, rating, tags,
		     solved_date, submission_id, verdict, programming_language, time_consumed_ms, memory_consumed_bytes, points)
		    VALUES `)
		args := make([]any, 0, len(chunk)*15)
		for i, p := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			base := i * 15
			placeholders := make([]string, 15)
			for j := range placeholders {
				placeholders[j] = fmt.Sprintf("$%d", base+j+1)
			}
			sb.WriteString("(" + strings.Join(placeholders, ", ") + ")")
			args = append(args, p.ID, p.StudentID, p.ProblemID, p.ProblemName, p.ContestID, p.ProblemIndex,
				p.Rating, strings.Join(p.Tags, ","), p.SolvedDate, p.SubmissionID, p.Verdict,
				p.Language, p.TimeConsumedMs, p.MemoryBytes, p.Points)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("pgSolvedProblemRepository.ReplaceForStudent insert: %w", err)
		}
	}
	return nil
}

func (r *pgSolvedProblemRepository) CountByContest(ctx context.Context, tx *sql.Tx, studentID string) (map[int64]int, error) {
	query := `SELECT contest_id, COUNT(*) FROM solved_problems
	          WHERE student_id = $1 AND contest_id IS NOT NULL AND contest_id > 0
	          GROUP BY contest_id`
	var rows *sql.Rows
	var err error
	if tx != nil {
		rows, err = tx.QueryContext(ctx, query, studentID)
	} else {
		rows, err = r.db.QueryContext(ctx, query, studentID)
	}
	if err != nil {
		return nil, fmt.Errorf("pgSolvedProblemRepository.CountByContest: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var contestID int64
		var count int
		if err := rows.Scan(&contestID, &count); err != nil {
			return nil, fmt.Errorf("pgSolvedProblemRepository.CountByContest: %w", err)
		}
		counts[contestID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSolvedProblemRepository.CountByContest: %w", err)
	}
	return counts, nil
}

func (r *pgSolvedProblemRepository) MaxSolvedDate(ctx context.Context, tx *sql.Tx, studentID string) (*time.Time, error) {
	query := `SELECT MAX(solved_date) FROM solved_problems WHERE student_id = $1`
	var maxDate sql.NullTime
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, studentID).Scan(&maxDate)
	} else {
		err = r.db.QueryRowContext(ctx, query, studentID).Scan(&maxDate)
	}
	if err != nil {
		return nil, fmt.Errorf("pgSolvedProblemRepository.MaxSolvedDate: %w", err)
	}
	if !maxDate.Valid {
		return nil, nil
	}
	return &maxDate.Time, nil
}

func (r *pgSolvedProblemRepository) ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]model.SolvedProblem, error) {
	query := `SELECT id, student_id, problem_id, problem_name, contest_id, problem_index, rating, tags,
	                 solved_date, submission_id, verdict, programming_language, time_consumed_ms, memory_consumed_bytes, points
	          FROM solved_problems
	          WHERE student_id = $1 AND solved_date >= $2
	          ORDER BY solved_date DESC`
	rows, err := r.db.QueryContext(ctx, query, studentID, since)
	if err != nil {
		return nil, fmt.Errorf("pgSolvedProblemRepository.ListByStudentSince: %w", err)
	}
	defer rows.Close()

	problems := []model.SolvedProblem{}
	for rows.Next() {
		var p model.SolvedProblem
		var tags string
		if err := rows.Scan(&p.ID, &p.StudentID, &p.ProblemID, &p.ProblemName, &p.ContestID, &p.ProblemIndex,
			&p.Rating, &tags, &p.SolvedDate, &p.SubmissionID, &p.Verdict,
			&p.Language, &p.TimeConsumedMs, &p.MemoryBytes, &p.Points); err != nil {
			return nil, fmt.Errorf("pgSolvedProblemRepository.ListByStudentSince: %w", err)
		}
		if tags != "" {
			p.Tags = strings.Split(tags, ",")
		}
		problems = append(problems, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSolvedProblemRepository.ListByStudentSince: %w", err)
	}
	return problems, nil
}

func (r *pgSolvedProblemRepository) HeatmapSince(ctx context.Context, studentID string, since time.Time) ([]model.HeatmapPoint, error) {
	query := `SELECT TO_CHAR(solved_date, 'YYYY-MM-DD') AS day, COUNT(*)
	          FROM solved_problems
	          WHERE student_id = $1 AND solved_date >= $2
	          GROUP BY day ORDER BY day ASC`
	rows, err := r.db.QueryContext(ctx, query, studentID, since)
	if err != nil {
		return nil, fmt.Errorf("pgSolvedProblemRepository.HeatmapSince: %w", err)
	}
	defer rows.Close()

	points := []model.HeatmapPoint{}
	for rows.Next() {
		var p model.HeatmapPoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, fmt.Errorf("pgSolvedProblemRepository.HeatmapSince: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSolvedProblemRepository.HeatmapSince: %w", err)
	}
	return points, nil
}
