package models

// EditState is the phase of the single-cell edit state machine.
type EditState string

const (
	EditStateViewing    EditState = "VIEWING"
	EditStateEditing    EditState = "EDITING"
	EditStateCommitting EditState = "COMMITTING"
	EditStateCancelling EditState = "CANCELLING"
)

// GradeCell identifies the cell being edited along with its owning class.
type GradeCell struct {
	StudentID    string `json:"student_id" validate:"required"`
	AssignmentID string `json:"assignment_id" validate:"required"`
	ClassID      string `json:"class_id" validate:"required"`
}

// Key returns the matrix key for the cell.
func (c GradeCell) Key() GradeKey {
	return GradeKey{StudentID: c.StudentID, AssignmentID: c.AssignmentID}
}

// EditSession describes the currently focused cell.
type EditSession struct {
	Cell   GradeCell `json:"cell"`
	State  EditState `json:"state"`
	Buffer string    `json:"buffer"`
}

// RubricScore is the rubric-derived result for one student.
type RubricScore struct {
	StudentID    string          `json:"student_id"`
	AssignmentID string          `json:"assignment_id"`
	Points       int             `json:"points"`
	MaxPoints    int             `json:"max_points"`
	Percentage   float64         `json:"percentage"`
	Selections   RubricSelection `json:"selections"`
	Invalid      []string        `json:"invalid,omitempty"`
}
