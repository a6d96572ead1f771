package model

import (
	"fmt"
	"time"
)

// SolvedProblem is one unique problem a student has solved. When a student
// has several accepted submissions for the same problem, only the earliest
// accepted one is stored. The full set is replaced wholesale on every sync.
type SolvedProblem struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	ProblemID    string    `json:"problem_id"` // "<contestID>-<index>"
	ProblemName  string    `json:"problem_name"`
	ContestID    int64     `json:"contest_id"`
	ProblemIndex string    `json:"problem_index"`
	Rating       int       `json:"rating"`
	Tags         []string  `json:"tags"`
	SolvedDate   time.Time `json:"solved_date"`

	// Raw submission metadata from the platform.
	SubmissionID   int64   `json:"submission_id"`
	Verdict        string  `json:"verdict"`
	Language       string  `json:"programming_language"`
	TimeConsumedMs int     `json:"time_consumed_ms"`
	MemoryBytes    int64   `json:"memory_consumed_bytes"`
	Points         float64 `json:"points"`
}

// ProblemKey builds the composite identifier used to deduplicate solved
// problems across submissions.
func ProblemKey(contestID int64, index string) string {
	return fmt.Sprintf("%d-%s", contestID, index)
}

// ProblemStats is the read-side projection returned with a problem window.
type ProblemStats struct {
	TotalProblems         int            `json:"total_problems"`
	AverageRating         int            `json:"average_rating"`
	AverageProblemsPerDay float64        `json:"average_problems_per_day"`
	HardestProblem        *SolvedProblem `json:"hardest_problem,omitempty"`
	RatingBuckets         map[string]int `json:"rating_buckets"`
}

// HeatmapPoint is one day of solving activity.
type HeatmapPoint struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}
