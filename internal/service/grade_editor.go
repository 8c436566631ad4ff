package service

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// MaxPercentScore is the upper bound for percentage input.
const MaxPercentScore = 100

type cellStore interface {
	Get(studentID, assignmentID string) (models.Grade, bool)
	Upsert(studentID, assignmentID, classID string, score float64) models.Grade
}

// GradeEditor holds the single focused grade cell. Only one cell may be
// open at a time; opening another force-cancels the previous one.
type GradeEditor struct {
	mu      sync.Mutex
	cells   cellStore
	session *models.EditSession
	metrics *MetricsService
	logger  *zap.Logger
}

// NewGradeEditor constructs an editor over the given cell store.
func NewGradeEditor(cells cellStore, metrics *MetricsService, logger *zap.Logger) *GradeEditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeEditor{cells: cells, metrics: metrics, logger: logger}
}

// BeginEdit focuses the cell and pre-fills the buffer with the current
// whole-number score, or an empty buffer when the cell has no grade.
func (e *GradeEditor) BeginEdit(cell models.GradeCell) (models.EditSession, error) {
	if cell.StudentID == "" || cell.AssignmentID == "" {
		return models.EditSession{}, appErrors.Clone(appErrors.ErrValidation, "student and assignment are required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		if e.session.Cell.Key() == cell.Key() {
			return *e.session, nil
		}
		e.logger.Debug("edit force-cancelled",
			zap.String("student_id", e.session.Cell.StudentID),
			zap.String("assignment_id", e.session.Cell.AssignmentID))
		e.metrics.RecordEditForceCancelled()
		e.session = nil
	}

	buffer := ""
	if g, ok := e.cells.Get(cell.StudentID, cell.AssignmentID); ok {
		buffer = strconv.Itoa(int(math.Round(g.Score)))
	}
	e.session = &models.EditSession{Cell: cell, State: models.EditStateEditing, Buffer: buffer}
	return *e.session, nil
}

// Commit validates raw input and writes it to the focused cell. On
// validation failure the cell stays open with the rejected input in the
// buffer and nothing is written.
func (e *GradeEditor) Commit(cell models.GradeCell, raw string) (models.Grade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isOpen(cell) {
		return models.Grade{}, appErrors.Clone(appErrors.ErrEditNotActive, "")
	}
	e.session.Buffer = raw
	score, err := ParsePercentInput(raw)
	if err != nil {
		e.metrics.RecordValidationFailure("commit")
		return models.Grade{}, err
	}

	e.session.State = models.EditStateCommitting
	open := e.session.Cell
	grade := e.cells.Upsert(open.StudentID, open.AssignmentID, open.ClassID, float64(score))
	e.session = nil
	return grade, nil
}

// Cancel discards the buffer without touching the cell.
func (e *GradeEditor) Cancel(cell models.GradeCell) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isOpen(cell) {
		return appErrors.Clone(appErrors.ErrEditNotActive, "")
	}
	e.session.State = models.EditStateCancelling
	e.session = nil
	return nil
}

// Session returns the focused cell. The boolean is false while viewing.
func (e *GradeEditor) Session() (models.EditSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return models.EditSession{State: models.EditStateViewing}, false
	}
	return *e.session, true
}

func (e *GradeEditor) isOpen(cell models.GradeCell) bool {
	return e.session != nil && e.session.State == models.EditStateEditing && e.session.Cell.Key() == cell.Key()
}

// ParsePercentInput parses a whole-number percentage in [0,100].
func ParsePercentInput(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "score is required")
	}
	score, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "score must be a whole number")
	}
	if score < 0 || score > MaxPercentScore {
		return 0, appErrors.Clone(appErrors.ErrValidation, "score must be between 0 and 100")
	}
	return score, nil
}
