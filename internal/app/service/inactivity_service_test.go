package service

import (
	"context"
	"testing"
	"time"

	"cptracker/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := NewInactivityService(nil)

	tests := []struct {
		name       string
		lastSolved time.Time
		wantStatus model.InactivityStatus
		wantDays   int
	}{
		{"solved today", now.Add(-2 * time.Hour), model.StatusActive, 0},
		{"three days ago", now.AddDate(0, 0, -3), model.StatusActive, 3},
		{"just under four days", now.Add(-4*24*time.Hour + time.Minute), model.StatusActive, 3},
		{"exactly four days", now.AddDate(0, 0, -4), model.StatusWarning, 4},
		{"six days ago", now.AddDate(0, 0, -6), model.StatusWarning, 6},
		{"exactly seven days", now.AddDate(0, 0, -7), model.StatusInactive, 7},
		{"thirty days ago", now.AddDate(0, 0, -30), model.StatusInactive, 30},
		{"never solved", time.Time{}, model.StatusUnknown, 0},
		{"future timestamp", now.Add(48 * time.Hour), model.StatusUnknown, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			student := &model.Student{LastSubmissionDate: tt.lastSolved}
			status, days := svc.Classify(student, now)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func TestListInactiveUsesThreshold(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := newFakeStudentRepo(
		&model.Student{ID: "a", Name: "Fresh", IsActive: true, LastSubmissionDate: now.AddDate(0, 0, -2)},
		&model.Student{ID: "b", Name: "Borderline", IsActive: true, LastSubmissionDate: now.AddDate(0, 0, -6)},
		&model.Student{ID: "c", Name: "Stale", IsActive: true, LastSubmissionDate: now.AddDate(0, 0, -10)},
		&model.Student{ID: "d", Name: "OptedOut", IsActive: true, EmailRemindersDisabled: true, LastSubmissionDate: now.AddDate(0, 0, -20)},
	)
	svc := NewInactivityService(repo)

	pool, err := svc.ListInactive(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "c", pool[0].ID)
}

func TestTopRemindedDefaultLimit(t *testing.T) {
	repo := newFakeStudentRepo(
		&model.Student{ID: "a", Name: "A", IsActive: true, ReminderEmailCount: 3},
		&model.Student{ID: "b", Name: "B", IsActive: true, ReminderEmailCount: 7},
		&model.Student{ID: "c", Name: "C", IsActive: true},
	)
	svc := NewInactivityService(repo)

	top, err := svc.TopReminded(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].ID)
	assert.Equal(t, "a", top[1].ID)
}
