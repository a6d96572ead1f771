package service

import (
	"context"
	"database/sql"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"cptracker/internal/common"
	"cptracker/internal/domain/model"
	"cptracker/internal/platform/codeforces"
	"cptracker/internal/platform/config"
	"cptracker/internal/platform/email"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{
		InactivityThresholdDays: 7,
		ReminderCooldownDays:    7,
		ReminderSendDelay:       time.Millisecond,
		EmailSendTimeout:        20 * time.Millisecond,
		ReminderBatchTimeout:    time.Minute,
		SubmissionPageSize:      10000,
	}
	os.Exit(m.Run())
}

// fakeStudentRepo is an in-memory StudentRepository.
type fakeStudentRepo struct {
	mu       sync.Mutex
	students map[string]*model.Student
}

func newFakeStudentRepo(students ...*model.Student) *fakeStudentRepo {
	r := &fakeStudentRepo{students: make(map[string]*model.Student)}
	for _, s := range students {
		copied := *s
		r.students[s.ID] = &copied
	}
	return r
}

func (r *fakeStudentRepo) get(id string) *model.Student {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.students[id]
}

func (r *fakeStudentRepo) Create(ctx context.Context, s *model.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.students {
		if existing.IsActive && (existing.Email == s.Email || existing.Handle == s.Handle) {
			return common.ErrConflict
		}
	}
	copied := *s
	r.students[s.ID] = &copied
	return nil
}

func (r *fakeStudentRepo) Update(ctx context.Context, s *model.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.students[s.ID]
	if !ok || !existing.IsActive {
		return common.ErrNotFound
	}
	existing.Name = s.Name
	existing.Email = s.Email
	existing.PhoneNumber = s.PhoneNumber
	existing.Handle = s.Handle
	return nil
}

func (r *fakeStudentRepo) FindByID(ctx context.Context, id string) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok || !s.IsActive {
		return nil, common.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeStudentRepo) ListActive(ctx context.Context) ([]model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Student{}
	for _, s := range r.students {
		if s.IsActive {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeStudentRepo) SoftDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok || !s.IsActive {
		return common.ErrNotFound
	}
	s.IsActive = false
	return nil
}

func (r *fakeStudentRepo) UpdateRatings(ctx context.Context, id string, currentRating, maxRating int, syncedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok || !s.IsActive {
		return common.ErrNotFound
	}
	s.CurrentRating = currentRating
	if maxRating > s.MaxRating {
		s.MaxRating = maxRating
	}
	s.LastSyncedAt = &syncedAt
	return nil
}

func (r *fakeStudentRepo) UpdateLastSubmissionDate(ctx context.Context, tx *sql.Tx, id string, lastSubmission time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.students[id]; ok {
		s.LastSubmissionDate = lastSubmission
	}
	return nil
}

func (r *fakeStudentRepo) FindInactiveSince(ctx context.Context, cutoff time.Time) ([]model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Student{}
	for _, s := range r.students {
		if s.IsActive && !s.EmailRemindersDisabled && s.LastSubmissionDate.Before(cutoff) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSubmissionDate.Before(out[j].LastSubmissionDate)
	})
	return out, nil
}

func (r *fakeStudentRepo) RecordReminderSent(ctx context.Context, id string, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok || !s.IsActive {
		return common.ErrNotFound
	}
	s.ReminderEmailCount++
	t := sentAt
	s.LastReminderSent = &t
	return nil
}

func (r *fakeStudentRepo) SetRemindersDisabled(ctx context.Context, id string, disabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok || !s.IsActive {
		return common.ErrNotFound
	}
	s.EmailRemindersDisabled = disabled
	return nil
}

func (r *fakeStudentRepo) GetInactivityStats(ctx context.Context, cutoff time.Time) (*model.InactivityStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &model.InactivityStats{}
	for _, s := range r.students {
		if !s.IsActive {
			continue
		}
		stats.TotalStudents++
		if s.LastSubmissionDate.Before(cutoff) {
			stats.Inactive7Days++
		}
		if s.EmailRemindersDisabled {
			stats.RemindersDisabled++
		}
	}
	return stats, nil
}

func (r *fakeStudentRepo) ListTopReminded(ctx context.Context, limit int) ([]model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Student{}
	for _, s := range r.students {
		if s.IsActive && s.ReminderEmailCount > 0 {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderEmailCount > out[j].ReminderEmailCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeContestRepo stores contest rows per student.
type fakeContestRepo struct {
	contests map[string][]model.ContestResult
}

func newFakeContestRepo() *fakeContestRepo {
	return &fakeContestRepo{contests: make(map[string][]model.ContestResult)}
}

func (r *fakeContestRepo) ReplaceForStudent(ctx context.Context, tx *sql.Tx, studentID string, contests []model.ContestResult) error {
	r.contests[studentID] = append([]model.ContestResult{}, contests...)
	return nil
}

func (r *fakeContestRepo) UpdateSolvedCounts(ctx context.Context, tx *sql.Tx, studentID string, counts map[int64]int) error {
	rows := r.contests[studentID]
	for i := range rows {
		if n, ok := counts[rows[i].ContestID]; ok {
			rows[i].ProblemsSolved = n
		}
	}
	return nil
}

func (r *fakeContestRepo) ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]model.ContestResult, error) {
	out := []model.ContestResult{}
	for _, c := range r.contests[studentID] {
		if !c.ContestDate.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeProblemRepo stores solved problems per student.
type fakeProblemRepo struct {
	problems map[string][]model.SolvedProblem
}

func newFakeProblemRepo() *fakeProblemRepo {
	return &fakeProblemRepo{problems: make(map[string][]model.SolvedProblem)}
}

func (r *fakeProblemRepo) ReplaceForStudent(ctx context.Context, tx *sql.Tx, studentID string, problems []model.SolvedProblem) error {
	r.problems[studentID] = append([]model.SolvedProblem{}, problems...)
	return nil
}

func (r *fakeProblemRepo) CountByContest(ctx context.Context, tx *sql.Tx, studentID string) (map[int64]int, error) {
	counts := make(map[int64]int)
	for _, p := range r.problems[studentID] {
		if p.ContestID > 0 {
			counts[p.ContestID]++
		}
	}
	return counts, nil
}

func (r *fakeProblemRepo) MaxSolvedDate(ctx context.Context, tx *sql.Tx, studentID string) (*time.Time, error) {
	var max *time.Time
	for _, p := range r.problems[studentID] {
		t := p.SolvedDate
		if max == nil || t.After(*max) {
			max = &t
		}
	}
	return max, nil
}

func (r *fakeProblemRepo) ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]model.SolvedProblem, error) {
	out := []model.SolvedProblem{}
	for _, p := range r.problems[studentID] {
		if !p.SolvedDate.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProblemRepo) HeatmapSince(ctx context.Context, studentID string, since time.Time) ([]model.HeatmapPoint, error) {
	counts := make(map[string]int)
	for _, p := range r.problems[studentID] {
		if !p.SolvedDate.Before(since) {
			counts[p.SolvedDate.Format("2006-01-02")]++
		}
	}
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := []model.HeatmapPoint{}
	for _, d := range days {
		out = append(out, model.HeatmapPoint{Date: d, Count: counts[d]})
	}
	return out, nil
}

// fakeTxRunner runs the function with a nil transaction; the fakes above
// ignore the tx argument.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

// fakePlatform is a canned PlatformClient.
type fakePlatform struct {
	info      *codeforces.UserInfo
	infoErr   error
	ratings   []codeforces.RatingChange
	ratingErr error
	subs      []codeforces.Submission
	subsErr   error
}

func (p *fakePlatform) GetUserInfo(ctx context.Context, handle string) (*codeforces.UserInfo, error) {
	return p.info, p.infoErr
}

func (p *fakePlatform) GetUserRating(ctx context.Context, handle string) ([]codeforces.RatingChange, error) {
	return p.ratings, p.ratingErr
}

func (p *fakePlatform) GetUserStatus(ctx context.Context, handle string, from, count int) ([]codeforces.Submission, error) {
	return p.subs, p.subsErr
}

// fakeSender records rendered messages and can be told to fail.
type fakeSender struct {
	mu      sync.Mutex
	sent    []email.Message
	failErr error
}

func (s *fakeSender) Send(ctx context.Context, msg *email.Message) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.mu.Lock()
	s.sent = append(s.sent, *msg)
	s.mu.Unlock()
	return nil
}

func (s *fakeSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}
