package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"cptracker/internal/common"
	"cptracker/internal/domain/model"
	"cptracker/internal/domain/repository"
	"cptracker/internal/platform/config"
	"cptracker/internal/platform/email"
)

// ReminderService decides which inactivity-eligible students actually get a
// reminder, sends it, and records the outcome.
type ReminderService struct {
	studentRepo repository.StudentRepository
	inactivity  *InactivityService
	sender      email.Sender
}

func NewReminderService(studentRepo repository.StudentRepository, inactivity *InactivityService, sender email.Sender) *ReminderService {
	return &ReminderService{
		studentRepo: studentRepo,
		inactivity:  inactivity,
		sender:      sender,
	}
}

// RunBatch processes the eligibility pool sequentially. Students inside the
// reminder cooldown window are skipped silently; a send failure is recorded
// per student and leaves their bookkeeping untouched so a later run retries.
// A fixed delay between sends respects the email provider's rate limits.
func (s *ReminderService) RunBatch(ctx context.Context, now time.Time) ([]model.ReminderResult, error) {
	candidates, err := s.inactivity.ListInactive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("listing inactive students: %w", err)
	}
	log.Printf("Inactivity check: %d candidate students", len(candidates))

	cooldown := time.Duration(config.AppConfig.ReminderCooldownDays) * 24 * time.Hour
	results := []model.ReminderResult{}

	for i := range candidates {
		student := &candidates[i]

		if err := ctx.Err(); err != nil {
			return results, err
		}
		if withinCooldown(student, now, cooldown) {
			log.Printf("Skipping %s - reminder sent recently", student.Name)
			continue
		}

		result := model.ReminderResult{
			StudentID: student.ID,
			Name:      student.Name,
			Email:     student.Email,
		}
		if err := s.send(ctx, student, now); err != nil {
			result.Status = model.OutcomeError
			result.Error = err.Error()
			log.Printf("Error processing student %s: %v", student.Name, err)
		} else {
			result.Status = model.OutcomeReminderSent
			result.ReminderCount = student.ReminderEmailCount + 1
			log.Printf("Reminder sent to %s (%s)", student.Name, student.Email)
		}
		results = append(results, result)

		if i < len(candidates)-1 {
			select {
			case <-time.After(config.AppConfig.ReminderSendDelay):
			case <-ctx.Done():
				return results, ctx.Err()
			}
		}
	}

	log.Printf("Inactivity check completed. Processed %d students.", len(results))
	return results, nil
}

// SendManual sends one reminder to a named student outside the batch. It
// fails fast when the student has opted out, and refuses inside the
// cooldown window, in both cases without sending or mutating bookkeeping.
func (s *ReminderService) SendManual(ctx context.Context, studentID string, now time.Time) (*model.ReminderResult, error) {
	student, err := s.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.EmailRemindersDisabled {
		return nil, common.ErrRemindersDisabled
	}
	cooldown := time.Duration(config.AppConfig.ReminderCooldownDays) * 24 * time.Hour
	if withinCooldown(student, now, cooldown) {
		return nil, common.ErrReminderCooldown
	}

	if err := s.send(ctx, student, now); err != nil {
		return nil, err
	}
	return &model.ReminderResult{
		StudentID:     student.ID,
		Name:          student.Name,
		Email:         student.Email,
		Status:        model.OutcomeReminderSent,
		ReminderCount: student.ReminderEmailCount + 1,
	}, nil
}

// send renders and delivers one reminder, then records the bookkeeping.
// Each delivery gets its own timeout so one hung transport call cannot eat
// the rest of the batch's budget. Bookkeeping only moves when the send
// itself succeeded.
func (s *ReminderService) send(ctx context.Context, student *model.Student, now time.Time) error {
	_, days := s.inactivity.Classify(student, now)
	msg, err := email.RenderReminder(student.Name, student.Email, email.ReminderData{
		Name:           student.Name,
		DaysInactive:   days,
		CurrentRating:  student.CurrentRating,
		MaxRating:      student.MaxRating,
		ReminderNumber: student.ReminderEmailCount + 1,
		LastActivity:   student.LastSubmissionDate,
	})
	if err != nil {
		return fmt.Errorf("rendering reminder for %s: %w", student.Email, err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, config.AppConfig.EmailSendTimeout)
	defer cancel()
	if err := s.sender.Send(sendCtx, msg); err != nil {
		if sendCtx.Err() != nil && ctx.Err() == nil {
			return fmt.Errorf("sending reminder to %s: %v: %w", student.Email, err, common.ErrTimeout)
		}
		return err
	}
	if err := s.studentRepo.RecordReminderSent(ctx, student.ID, now); err != nil {
		return fmt.Errorf("recording reminder for %s: %w", student.Email, err)
	}
	return nil
}

func withinCooldown(student *model.Student, now time.Time, cooldown time.Duration) bool {
	return student.LastReminderSent != nil && student.LastReminderSent.After(now.Add(-cooldown))
}
