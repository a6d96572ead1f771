package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"cptracker/internal/common"
	"cptracker/internal/domain/model"
	"cptracker/internal/domain/repository"

	"github.com/google/uuid"
)

type StudentService struct {
	studentRepo repository.StudentRepository
	contestRepo repository.ContestRepository
	problemRepo repository.SolvedProblemRepository
	syncService *SyncService
}

func NewStudentService(
	studentRepo repository.StudentRepository,
	contestRepo repository.ContestRepository,
	problemRepo repository.SolvedProblemRepository,
	syncService *SyncService,
) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		contestRepo: contestRepo,
		problemRepo: problemRepo,
		syncService: syncService,
	}
}

type StudentRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Handle      string `json:"codeforces_handle"`
}

func (r StudentRequest) validate() error {
	if r.Name == "" || r.Email == "" || r.Handle == "" {
		return fmt.Errorf("name, email and codeforces_handle are required: %w", common.ErrBadRequest)
	}
	return nil
}

// Create registers a student and kicks off an initial best-effort sync
// through the job queue. The registration itself never waits on, or fails
// because of, the external platform.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*model.Student, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	student := &model.Student{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		Handle:         req.Handle,
		EnrollmentDate: now,
		IsActive:       true,
		// Defaults to creation time so a student with no recorded problems
		// is not immediately flagged inactive.
		LastSubmissionDate: now,
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, err
	}

	s.syncService.EnqueueSync(ctx, student.ID)
	return s.studentRepo.FindByID(ctx, student.ID)
}

// Update edits a student's profile. When the platform handle changed, a
// fresh sync is queued; failures on that path are logged and swallowed
// since the profile edit itself must still succeed.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*model.Student, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	current, err := s.studentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	handleChanged := current.Handle != req.Handle

	current.Name = req.Name
	current.Email = req.Email
	current.PhoneNumber = req.PhoneNumber
	current.Handle = req.Handle
	if err := s.studentRepo.Update(ctx, current); err != nil {
		return nil, err
	}

	if handleChanged {
		log.Printf("Handle changed for %s, queueing platform sync...", current.Name)
		s.syncService.EnqueueSync(ctx, current.ID)
	}
	return s.studentRepo.FindByID(ctx, id)
}

func (s *StudentService) Get(ctx context.Context, id string) (*model.Student, error) {
	return s.studentRepo.FindByID(ctx, id)
}

func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	return s.studentRepo.ListActive(ctx)
}

func (s *StudentService) Delete(ctx context.Context, id string) error {
	return s.studentRepo.SoftDelete(ctx, id)
}

func (s *StudentService) ToggleReminders(ctx context.Context, id string, disabled bool) (*model.Student, error) {
	if err := s.studentRepo.SetRemindersDisabled(ctx, id, disabled); err != nil {
		return nil, err
	}
	return s.studentRepo.FindByID(ctx, id)
}

// ContestHistory returns the student's contest rows within the day window.
func (s *StudentService) ContestHistory(ctx context.Context, id string, days int) ([]model.ContestResult, error) {
	if _, err := s.studentRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 365
	}
	since := time.Now().AddDate(0, 0, -days)
	return s.contestRepo.ListByStudentSince(ctx, id, since)
}

type ProblemDataResponse struct {
	Problems   []model.SolvedProblem `json:"problems"`
	Statistics model.ProblemStats    `json:"statistics"`
}

// ProblemData returns the solved problems within the day window plus the
// derived statistics (totals, averages, hardest problem, rating histogram).
func (s *StudentService) ProblemData(ctx context.Context, id string, days int) (*ProblemDataResponse, error) {
	if _, err := s.studentRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 90
	}
	since := time.Now().AddDate(0, 0, -days)
	problems, err := s.problemRepo.ListByStudentSince(ctx, id, since)
	if err != nil {
		return nil, err
	}
	return &ProblemDataResponse{
		Problems:   problems,
		Statistics: computeProblemStats(problems, days),
	}, nil
}

func computeProblemStats(problems []model.SolvedProblem, days int) model.ProblemStats {
	stats := model.ProblemStats{
		TotalProblems: len(problems),
		RatingBuckets: map[string]int{},
	}
	if len(problems) == 0 {
		return stats
	}

	ratingSum := 0
	hardest := &problems[0]
	for i := range problems {
		p := &problems[i]
		ratingSum += p.Rating
		if p.Rating > hardest.Rating {
			hardest = p
		}
		if p.Rating > 0 {
			bucket := (p.Rating / 100) * 100
			key := fmt.Sprintf("%d-%d", bucket, bucket+99)
			stats.RatingBuckets[key]++
		}
	}
	stats.AverageRating = int(math.Round(float64(ratingSum) / float64(len(problems))))
	stats.AverageProblemsPerDay = math.Round(float64(len(problems))/float64(days)*100) / 100
	stats.HardestProblem = hardest
	return stats
}

// Heatmap returns solved-problem counts per day within the window.
func (s *StudentService) Heatmap(ctx context.Context, id string, days int) ([]model.HeatmapPoint, error) {
	if _, err := s.studentRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 365
	}
	since := time.Now().AddDate(0, 0, -days)
	return s.problemRepo.HeatmapSince(ctx, id, since)
}

// ExportCSV renders the active-student roster as CSV.
func (s *StudentService) ExportCSV(ctx context.Context) ([]byte, error) {
	students, err := s.studentRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"Name", "Email", "Phone Number", "Codeforces Handle", "Current Rating", "Max Rating", "Enrollment Date"})
	for _, st := range students {
		w.Write([]string{
			st.Name,
			st.Email,
			st.PhoneNumber,
			st.Handle,
			strconv.Itoa(st.CurrentRating),
			strconv.Itoa(st.MaxRating),
			st.EnrollmentDate.Format("2006-01-02"),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("rendering students CSV: %w", err)
	}
	return buf.Bytes(), nil
}
