package model

import (
	"time"
)

type Student struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phone_number"`
	Handle         string    `json:"codeforces_handle"`
	CurrentRating  int       `json:"current_rating"`
	MaxRating      int       `json:"max_rating"`
	EnrollmentDate time.Time `json:"enrollment_date"`
	IsActive       bool      `json:"is_active"`

	// Snapshot state maintained by the sync engine.
	LastSyncedAt       *time.Time `json:"last_synced_at,omitempty"`
	LastSubmissionDate time.Time  `json:"last_submission_date"`

	// Reminder bookkeeping maintained by the dispatcher.
	ReminderEmailCount     int        `json:"reminder_email_count"`
	LastReminderSent       *time.Time `json:"last_reminder_sent,omitempty"`
	EmailRemindersDisabled bool       `json:"email_reminders_disabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InactivityStatus classifies how recently a student has solved a problem.
type InactivityStatus string

const (
	StatusUnknown  InactivityStatus = "unknown"
	StatusActive   InactivityStatus = "active"
	StatusWarning  InactivityStatus = "warning"
	StatusInactive InactivityStatus = "inactive"
)

type InactivityStats struct {
	TotalStudents     int `json:"total_students"`
	Inactive7Days     int `json:"inactive_7_days"`
	RemindersDisabled int `json:"reminders_disabled"`
}
