package scheduler

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"cptracker/internal/app/service"
	"cptracker/internal/common"
	"cptracker/internal/domain/model"
	"cptracker/internal/platform/config"
	"cptracker/internal/platform/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{
		InactivityThresholdDays: 7,
		ReminderCooldownDays:    7,
		ReminderSendDelay:       time.Millisecond,
		EmailSendTimeout:        time.Second,
		ReminderBatchTimeout:    time.Minute,
	}
	os.Exit(m.Run())
}

// stubStudentRepo serves a fixed pool of reminder candidates; everything the
// scheduler path does not touch is a no-op.
type stubStudentRepo struct {
	pool []model.Student
}

func (r *stubStudentRepo) Create(ctx context.Context, s *model.Student) error { return nil }
func (r *stubStudentRepo) Update(ctx context.Context, s *model.Student) error { return nil }
func (r *stubStudentRepo) FindByID(ctx context.Context, id string) (*model.Student, error) {
	return nil, common.ErrNotFound
}
func (r *stubStudentRepo) ListActive(ctx context.Context) ([]model.Student, error) { return nil, nil }
func (r *stubStudentRepo) SoftDelete(ctx context.Context, id string) error         { return nil }
func (r *stubStudentRepo) UpdateRatings(ctx context.Context, id string, currentRating, maxRating int, syncedAt time.Time) error {
	return nil
}
func (r *stubStudentRepo) UpdateLastSubmissionDate(ctx context.Context, tx *sql.Tx, id string, lastSubmission time.Time) error {
	return nil
}
func (r *stubStudentRepo) FindInactiveSince(ctx context.Context, cutoff time.Time) ([]model.Student, error) {
	return r.pool, nil
}
func (r *stubStudentRepo) RecordReminderSent(ctx context.Context, id string, sentAt time.Time) error {
	return nil
}
func (r *stubStudentRepo) SetRemindersDisabled(ctx context.Context, id string, disabled bool) error {
	return nil
}
func (r *stubStudentRepo) GetInactivityStats(ctx context.Context, cutoff time.Time) (*model.InactivityStats, error) {
	return &model.InactivityStats{}, nil
}
func (r *stubStudentRepo) ListTopReminded(ctx context.Context, limit int) ([]model.Student, error) {
	return nil, nil
}

// blockingSender parks the first send on a channel so a test can hold a
// batch mid-flight; later sends pass straight through.
type blockingSender struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (s *blockingSender) Send(ctx context.Context, msg *email.Message) error {
	s.once.Do(func() {
		close(s.started)
		<-s.release
	})
	return nil
}

func newScheduler(repo *stubStudentRepo, sender email.Sender) *Scheduler {
	reminders := service.NewReminderService(repo, service.NewInactivityService(repo), sender)
	return New(reminders)
}

type noopSender struct{}

func (noopSender) Send(ctx context.Context, msg *email.Message) error { return nil }

func TestTriggerOnceRunsBatch(t *testing.T) {
	repo := &stubStudentRepo{pool: []model.Student{
		{ID: "a", Name: "Alice", Email: "alice@example.com", IsActive: true,
			LastSubmissionDate: time.Now().AddDate(0, 0, -10)},
	}}
	sched := newScheduler(repo, noopSender{})

	results, err := sched.TriggerOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.OutcomeReminderSent, results[0].Status)
}

func TestTriggerOnceRefusesOverlap(t *testing.T) {
	repo := &stubStudentRepo{pool: []model.Student{
		{ID: "a", Name: "Alice", Email: "alice@example.com", IsActive: true,
			LastSubmissionDate: time.Now().AddDate(0, 0, -10)},
	}}
	sender := &blockingSender{started: make(chan struct{}), release: make(chan struct{})}
	sched := newScheduler(repo, sender)

	done := make(chan error, 1)
	go func() {
		_, err := sched.TriggerOnce(context.Background())
		done <- err
	}()

	<-sender.started
	_, err := sched.TriggerOnce(context.Background())
	assert.ErrorIs(t, err, common.ErrBatchInProgress)

	close(sender.release)
	require.NoError(t, <-done)

	// The guard resets once the batch finishes.
	_, err = sched.TriggerOnce(context.Background())
	require.NoError(t, err)
}
