package model

// Reminder batch outcome codes.
const (
	OutcomeReminderSent = "reminder_sent"
	OutcomeError        = "error"
)

// ReminderResult records what happened to one student during a reminder
// batch (or a manual send).
type ReminderResult struct {
	StudentID     string `json:"student_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Status        string `json:"status"`
	ReminderCount int    `json:"reminder_count,omitempty"`
	Error         string `json:"error,omitempty"`
}
