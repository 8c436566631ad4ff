package models

import (
	"strings"
	"time"
)

// GradeStatus tags the state of a grade cell. It replaces independently
// settable missing/incomplete flags so that combinations stay coherent.
type GradeStatus string

const (
	GradeStatusGraded     GradeStatus = "GRADED"
	GradeStatusMissing    GradeStatus = "MISSING"
	GradeStatusIncomplete GradeStatus = "INCOMPLETE"
	GradeStatusExcused    GradeStatus = "EXCUSED"
)

// Valid reports whether the status is one of the known tags.
func (s GradeStatus) Valid() bool {
	switch s {
	case GradeStatusGraded, GradeStatusMissing, GradeStatusIncomplete, GradeStatusExcused:
		return true
	}
	return false
}

// ParseGradeStatus normalises user input into a GradeStatus.
func ParseGradeStatus(raw string) (GradeStatus, bool) {
	s := GradeStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// GradeKey addresses a single cell of the grade matrix.
type GradeKey struct {
	StudentID    string `json:"student_id"`
	AssignmentID string `json:"assignment_id"`
}

// Grade is the recorded result for one student on one assignment.
// Score is a percentage in [0,100].
type Grade struct {
	ID           string      `json:"id"`
	StudentID    string      `json:"student_id"`
	AssignmentID string      `json:"assignment_id"`
	ClassID      string      `json:"class_id"`
	Score        float64     `json:"score"`
	Comments     string      `json:"comments,omitempty"`
	Status       GradeStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Key returns the matrix key of the grade.
func (g Grade) Key() GradeKey {
	return GradeKey{StudentID: g.StudentID, AssignmentID: g.AssignmentID}
}

// IsMissing reports whether the grade is flagged as missing work.
func (g Grade) IsMissing() bool { return g.Status == GradeStatusMissing }

// IsIncomplete reports whether the grade is flagged as incomplete work.
func (g Grade) IsIncomplete() bool { return g.Status == GradeStatusIncomplete }

// StudentGradeSummary aggregates a student's grades for reporting.
type StudentGradeSummary struct {
	StudentID       string   `json:"student_id"`
	Average         *float64 `json:"average,omitempty"`
	GradedCount     int      `json:"graded_count"`
	MissingCount    int      `json:"missing_count"`
	IncompleteCount int      `json:"incomplete_count"`
	ExcusedCount    int      `json:"excused_count"`
}

// BulkGradeResult reports the outcome of a bulk fill.
type BulkGradeResult struct {
	AssignmentID string             `json:"assignment_id"`
	Graded       []Grade            `json:"graded"`
	Skipped      []string           `json:"skipped,omitempty"`
	Failures     []BulkGradeFailure `json:"failures,omitempty"`
}

// BulkGradeFailure captures a student that could not be graded.
type BulkGradeFailure struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// GradeFilter scopes grade listings. Empty fields match everything.
type GradeFilter struct {
	StudentID    string
	AssignmentID string
	Status       GradeStatus
}

// Matches reports whether the grade satisfies the filter.
func (f GradeFilter) Matches(g Grade) bool {
	if f.StudentID != "" && f.StudentID != g.StudentID {
		return false
	}
	if f.AssignmentID != "" && f.AssignmentID != g.AssignmentID {
		return false
	}
	if f.Status != "" && f.Status != g.Status {
		return false
	}
	return true
}
