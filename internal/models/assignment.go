package models

import "fmt"

// Assignment is a gradable piece of work owned by a class.
type Assignment struct {
	ID          string  `db:"id" json:"id"`
	ClassID     string  `db:"class_id" json:"class_id"`
	Title       string  `db:"title" json:"title"`
	TotalPoints float64 `db:"total_points" json:"total_points"`
	RubricID    *string `db:"rubric_id" json:"rubric_id,omitempty"`
}

// Validate checks assignment invariants.
func (a Assignment) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("assignment id required")
	}
	if a.TotalPoints <= 0 {
		return fmt.Errorf("assignment %s: total points must be positive, got %v", a.ID, a.TotalPoints)
	}
	return nil
}

// HasRubric reports whether the assignment references a rubric.
func (a Assignment) HasRubric() bool {
	return a.RubricID != nil && *a.RubricID != ""
}
