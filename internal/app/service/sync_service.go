package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"cptracker/internal/domain/model"
	"cptracker/internal/domain/repository"
	"cptracker/internal/platform/codeforces"
	"cptracker/internal/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PlatformClient is the slice of the Codeforces client the sync engine uses.
type PlatformClient interface {
	GetUserInfo(ctx context.Context, handle string) (*codeforces.UserInfo, error)
	GetUserRating(ctx context.Context, handle string) ([]codeforces.RatingChange, error)
	GetUserStatus(ctx context.Context, handle string, from, count int) ([]codeforces.Submission, error)
}

// SyncReport tells the caller how far a sync got. Rating, contest and
// problem updates commit independently: a later fetch failure never rolls
// back an earlier successful step.
type SyncReport struct {
	StudentID      string `json:"student_id"`
	Handle         string `json:"handle"`
	RatingUpdated  bool   `json:"rating_updated"`
	ContestsSynced int    `json:"contests_synced"`
	ProblemsSynced int    `json:"problems_synced"`
}

type SyncService struct {
	studentRepo repository.StudentRepository
	contestRepo repository.ContestRepository
	problemRepo repository.SolvedProblemRepository
	txRunner    repository.TxRunner
	platform    PlatformClient
	rdb         *redis.Client
}

func NewSyncService(
	studentRepo repository.StudentRepository,
	contestRepo repository.ContestRepository,
	problemRepo repository.SolvedProblemRepository,
	txRunner repository.TxRunner,
	platform PlatformClient,
	rdb *redis.Client,
) *SyncService {
	return &SyncService{
		studentRepo: studentRepo,
		contestRepo: contestRepo,
		problemRepo: problemRepo,
		txRunner:    txRunner,
		platform:    platform,
		rdb:         rdb,
	}
}

// SyncStudent refreshes the local snapshot of one student from the external
// platform: profile ratings first, then the full contest history, then the
// deduplicated solved-problem set with derived counters.
//
// A profile failure aborts the whole sync with nothing written. After the
// profile commits, the remaining steps are best-effort: the partial report
// plus the error tell the caller what stuck.
func (s *SyncService) SyncStudent(ctx context.Context, studentID string) (*SyncReport, error) {
	student, err := s.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	report := &SyncReport{StudentID: student.ID, Handle: student.Handle}

	info, err := s.platform.GetUserInfo(ctx, student.Handle)
	if err != nil {
		return report, fmt.Errorf("profile fetch for %q: %w", student.Handle, err)
	}
	if err := s.studentRepo.UpdateRatings(ctx, student.ID, info.Rating, info.MaxRating, time.Now()); err != nil {
		return report, fmt.Errorf("updating ratings for %q: %w", student.Handle, err)
	}
	report.RatingUpdated = true

	if err := s.syncContests(ctx, student, report); err != nil {
		return report, err
	}
	if err := s.syncProblems(ctx, student, report); err != nil {
		return report, err
	}
	return report, nil
}

func (s *SyncService) syncContests(ctx context.Context, student *model.Student, report *SyncReport) error {
	changes, err := s.platform.GetUserRating(ctx, student.Handle)
	if err != nil {
		return fmt.Errorf("contest history fetch for %q: %w", student.Handle, err)
	}

	contests := make([]model.ContestResult, 0, len(changes))
	for _, ch := range changes {
		contests = append(contests, model.ContestResult{
			ID:           uuid.NewString(),
			StudentID:    student.ID,
			ContestID:    ch.ContestID,
			ContestName:  ch.ContestName,
			ContestDate:  time.Unix(ch.RatingUpdateTimeSeconds, 0).UTC(),
			OldRating:    ch.OldRating,
			NewRating:    ch.NewRating,
			Rank:         ch.Rank,
			RatingChange: ch.NewRating - ch.OldRating,
			// Corrected after the solved-problem set is rebuilt.
			ProblemsSolved: 0,
		})
	}

	err = s.txRunner.RunInTx(ctx, func(tx *sql.Tx) error {
		return s.contestRepo.ReplaceForStudent(ctx, tx, student.ID, contests)
	})
	if err != nil {
		return fmt.Errorf("replacing contest history for %q: %w", student.Handle, err)
	}
	report.ContestsSynced = len(contests)
	return nil
}

func (s *SyncService) syncProblems(ctx context.Context, student *model.Student, report *SyncReport) error {
	subs, err := s.platform.GetUserStatus(ctx, student.Handle, 1, config.AppConfig.SubmissionPageSize)
	if err != nil {
		return fmt.Errorf("submission fetch for %q: %w", student.Handle, err)
	}

	problems := dedupeAccepted(student.ID, subs)

	err = s.txRunner.RunInTx(ctx, func(tx *sql.Tx) error {
		if err := s.problemRepo.ReplaceForStudent(ctx, tx, student.ID, problems); err != nil {
			return err
		}
		counts, err := s.problemRepo.CountByContest(ctx, tx, student.ID)
		if err != nil {
			return err
		}
		if err := s.contestRepo.UpdateSolvedCounts(ctx, tx, student.ID, counts); err != nil {
			return err
		}
		maxDate, err := s.problemRepo.MaxSolvedDate(ctx, tx, student.ID)
		if err != nil {
			return err
		}
		// lastSubmissionDate stays untouched when the student has no
		// solved problems on record.
		if maxDate != nil {
			return s.studentRepo.UpdateLastSubmissionDate(ctx, tx, student.ID, *maxDate)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replacing solved problems for %q: %w", student.Handle, err)
	}
	report.ProblemsSynced = len(problems)
	return nil
}

// dedupeAccepted keeps only accepted submissions, one row per problem. When
// a problem was accepted more than once the earliest accepted submission
// wins.
func dedupeAccepted(studentID string, subs []codeforces.Submission) []model.SolvedProblem {
	earliest := make(map[string]codeforces.Submission)
	order := make([]string, 0)
	for _, sub := range subs {
		if sub.Verdict != codeforces.VerdictAccepted {
			continue
		}
		key := model.ProblemKey(sub.Problem.ContestID, sub.Problem.Index)
		existing, seen := earliest[key]
		if !seen {
			earliest[key] = sub
			order = append(order, key)
			continue
		}
		if sub.CreationTimeSeconds < existing.CreationTimeSeconds {
			earliest[key] = sub
		}
	}

	problems := make([]model.SolvedProblem, 0, len(earliest))
	for _, key := range order {
		sub := earliest[key]
		problems = append(problems, model.SolvedProblem{
			ID:             uuid.NewString(),
			StudentID:      studentID,
			ProblemID:      key,
			ProblemName:    sub.Problem.Name,
			ContestID:      sub.Problem.ContestID,
			ProblemIndex:   sub.Problem.Index,
			Rating:         sub.Problem.Rating,
			Tags:           sub.Problem.Tags,
			SolvedDate:     time.Unix(sub.CreationTimeSeconds, 0).UTC(),
			SubmissionID:   sub.ID,
			Verdict:        sub.Verdict,
			Language:       sub.ProgrammingLanguage,
			TimeConsumedMs: sub.TimeConsumedMillis,
			MemoryBytes:    sub.MemoryConsumedBytes,
			Points:         sub.Problem.Points,
		})
	}
	return problems
}

// EnqueueSync pushes a fire-and-forget sync job for the student onto the
// Redis queue. Used by the implicit triggers (registration, handle change)
// where a sync failure must not fail the primary operation.
func (s *SyncService) EnqueueSync(ctx context.Context, studentID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.LPush(ctx, config.AppConfig.SyncQueueName, studentID).Err(); err != nil {
		log.Printf("Failed to enqueue sync job for student %s: %v", studentID, err)
	}
}
