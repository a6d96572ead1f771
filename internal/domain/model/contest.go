package model

import "time"

// ContestResult is one rated contest appearance for a student. The full set
// is replaced wholesale on every sync; rows are never patched in place.
type ContestResult struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	ContestID   int64     `json:"contest_id"`
	ContestName string    `json:"contest_name"`
	ContestDate time.Time `json:"contest_date"`
	OldRating   int       `json:"old_rating"`
	NewRating   int       `json:"new_rating"`
	Rank        int       `json:"rank"`
	// RatingChange is always NewRating - OldRating.
	RatingChange int `json:"rating_change"`
	// ProblemsSolved counts this student's solved problems belonging to the
	// contest, recomputed from the solved-problem set after each sync.
	ProblemsSolved int `json:"problems_solved"`
}
