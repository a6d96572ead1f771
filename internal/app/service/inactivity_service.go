package service

import (
	"context"
	"time"

	"cptracker/internal/domain/model"
	"cptracker/internal/domain/repository"
	"cptracker/internal/platform/config"
)

// InactivityService classifies students by recency of solving activity and
// produces the eligibility pool for reminders. Pure read side, no writes.
type InactivityService struct {
	studentRepo repository.StudentRepository
}

func NewInactivityService(studentRepo repository.StudentRepository) *InactivityService {
	return &InactivityService{studentRepo: studentRepo}
}

// Classify buckets a student by whole days since their last solved problem:
// under 4 days is active, 4-6 is warning, 7 and up is inactive. A zero
// last-submission date or a future one (clock skew, bad data) is unknown.
func (s *InactivityService) Classify(student *model.Student, now time.Time) (model.InactivityStatus, int) {
	if student.LastSubmissionDate.IsZero() {
		return model.StatusUnknown, 0
	}
	days := int(now.Sub(student.LastSubmissionDate).Hours() / 24)
	if now.Before(student.LastSubmissionDate) {
		return model.StatusUnknown, days
	}
	switch {
	case days < 4:
		return model.StatusActive, days
	case days < 7:
		return model.StatusWarning, days
	default:
		return model.StatusInactive, days
	}
}

// ListInactive returns the reminder eligibility pool: active students with
// reminders enabled whose last solved problem is older than the inactivity
// threshold.
func (s *InactivityService) ListInactive(ctx context.Context, now time.Time) ([]model.Student, error) {
	cutoff := now.AddDate(0, 0, -config.AppConfig.InactivityThresholdDays)
	return s.studentRepo.FindInactiveSince(ctx, cutoff)
}

// Stats returns the aggregate inactivity summary for the dashboard.
func (s *InactivityService) Stats(ctx context.Context) (*model.InactivityStats, error) {
	cutoff := time.Now().AddDate(0, 0, -config.AppConfig.InactivityThresholdDays)
	return s.studentRepo.GetInactivityStats(ctx, cutoff)
}

// TopReminded returns the students who have received the most reminders.
func (s *InactivityService) TopReminded(ctx context.Context, limit int) ([]model.Student, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.studentRepo.ListTopReminded(ctx, limit)
}
