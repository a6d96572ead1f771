package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cptracker/internal/common"
	"cptracker/internal/domain/model"
	"cptracker/internal/platform/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reminderFixture(students ...*model.Student) (*ReminderService, *fakeStudentRepo, *fakeSender) {
	repo := newFakeStudentRepo(students...)
	sender := &fakeSender{}
	svc := NewReminderService(repo, NewInactivityService(repo), sender)
	return svc, repo, sender
}

func inactiveStudent(id, name string, now time.Time, daysAgo int) *model.Student {
	return &model.Student{
		ID:                 id,
		Name:               name,
		Email:              strings.ToLower(name) + "@example.com",
		IsActive:           true,
		CurrentRating:      1200,
		MaxRating:          1400,
		LastSubmissionDate: now.AddDate(0, 0, -daysAgo),
	}
}

func TestRunBatchSendsAndRecords(t *testing.T) {
	now := time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)
	svc, repo, sender := reminderFixture(
		inactiveStudent("a", "Alice", now, 10),
		inactiveStudent("b", "Bob", now, 12),
		inactiveStudent("c", "Carol", now, 2),
	)

	results, err := svc.RunBatch(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, results, 2, "the recently active student is not in the pool")
	assert.Equal(t, 2, sender.sentCount())

	for _, res := range results {
		assert.Equal(t, model.OutcomeReminderSent, res.Status)
		assert.Equal(t, 1, res.ReminderCount)
	}

	alice := repo.get("a")
	assert.Equal(t, 1, alice.ReminderEmailCount)
	require.NotNil(t, alice.LastReminderSent)
	assert.Equal(t, now, *alice.LastReminderSent)
}

func TestRunBatchSkipsCooldownSilently(t *testing.T) {
	now := time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -3)
	cooled := inactiveStudent("a", "Alice", now, 10)
	cooled.ReminderEmailCount = 2
	cooled.LastReminderSent = &recent

	svc, repo, sender := reminderFixture(cooled, inactiveStudent("b", "Bob", now, 12))

	results, err := svc.RunBatch(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, results, 1, "cooldown skips produce no result row")
	assert.Equal(t, "b", results[0].StudentID)
	assert.Equal(t, 1, sender.sentCount())
	assert.Equal(t, 2, repo.get("a").ReminderEmailCount)
}

func TestRunBatchSendFailureLeavesBookkeeping(t *testing.T) {
	now := time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)
	svc, repo, sender := reminderFixture(inactiveStudent("a", "Alice", now, 10))
	sender.failErr = errors.New("smtp: connection refused")

	results, err := svc.RunBatch(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.OutcomeError, results[0].Status)
	assert.Contains(t, results[0].Error, "connection refused")

	alice := repo.get("a")
	assert.Equal(t, 0, alice.ReminderEmailCount, "a failed send must not advance the counter")
	assert.Nil(t, alice.LastReminderSent)
}

// hangOnceSender wedges its first call until the per-send context expires;
// later calls succeed normally.
type hangOnceSender struct {
	fakeSender
	calls int
}

func (s *hangOnceSender) Send(ctx context.Context, msg *email.Message) error {
	s.calls++
	if s.calls == 1 {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.fakeSender.Send(ctx, msg)
}

func TestRunBatchHungSendDoesNotStarveRemainder(t *testing.T) {
	now := time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)
	repo := newFakeStudentRepo(
		inactiveStudent("a", "Alice", now, 12),
		inactiveStudent("b", "Bob", now, 10),
	)
	sender := &hangOnceSender{}
	svc := NewReminderService(repo, NewInactivityService(repo), sender)

	results, err := svc.RunBatch(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, sender.calls, "a wedged send must not stop the batch reaching later students")

	assert.Equal(t, model.OutcomeError, results[0].Status)
	assert.Contains(t, results[0].Error, common.ErrTimeout.Error())
	assert.Equal(t, model.OutcomeReminderSent, results[1].Status)

	assert.Equal(t, 0, repo.get("a").ReminderEmailCount)
	assert.Nil(t, repo.get("a").LastReminderSent)
	assert.Equal(t, 1, repo.get("b").ReminderEmailCount)
}

func TestRunBatchStopsOnCancelledContext(t *testing.T) {
	now := time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)
	svc, _, sender := reminderFixture(
		inactiveStudent("a", "Alice", now, 10),
		inactiveStudent("b", "Bob", now, 12),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := svc.RunBatch(ctx, now)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.Equal(t, 0, sender.sentCount())
}

func TestSendManual(t *testing.T) {
	now := time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)
	svc, repo, sender := reminderFixture(inactiveStudent("a", "Alice", now, 10))

	res, err := svc.SendManual(context.Background(), "a", now)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeReminderSent, res.Status)
	assert.Equal(t, 1, res.ReminderCount)
	assert.Equal(t, 1, sender.sentCount())
	assert.Equal(t, 1, repo.get("a").ReminderEmailCount)
}

func TestSendManualRefusals(t *testing.T) {
	now := time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -2)

	optedOut := inactiveStudent("a", "Alice", now, 10)
	optedOut.EmailRemindersDisabled = true
	cooled := inactiveStudent("b", "Bob", now, 10)
	cooled.LastReminderSent = &recent

	svc, repo, sender := reminderFixture(optedOut, cooled)

	_, err := svc.SendManual(context.Background(), "a", now)
	assert.ErrorIs(t, err, common.ErrRemindersDisabled)

	_, err = svc.SendManual(context.Background(), "b", now)
	assert.ErrorIs(t, err, common.ErrReminderCooldown)

	_, err = svc.SendManual(context.Background(), "missing", now)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.Equal(t, 0, sender.sentCount())
	assert.Equal(t, 0, repo.get("a").ReminderEmailCount)
	assert.Equal(t, 0, repo.get("b").ReminderEmailCount)
}

func TestSendManualAllowedAfterCooldownExpires(t *testing.T) {
	now := time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -8)
	student := inactiveStudent("a", "Alice", now, 20)
	student.ReminderEmailCount = 1
	student.LastReminderSent = &old

	svc, repo, sender := reminderFixture(student)

	res, err := svc.SendManual(context.Background(), "a", now)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ReminderCount)
	assert.Equal(t, 1, sender.sentCount())
	assert.Equal(t, 2, repo.get("a").ReminderEmailCount)
}
