package service

import (
	"context"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

type gradeMatrix interface {
	cellStore
	InsertIfAbsent(studentID, assignmentID, classID string, score float64) (models.Grade, bool)
	SetComment(studentID, assignmentID, classID, comment string) models.Grade
	SetStatus(studentID, assignmentID string, status models.GradeStatus) (models.Grade, error)
	Remove(studentID, assignmentID string) bool
	AverageGrade(studentID string) (float64, bool)
	Filter(predicate func(models.Grade) bool) []models.Grade
	GradedStudents(assignmentID string) map[string]struct{}
}

// RecordPointsRequest carries an absolute points score.
type RecordPointsRequest struct {
	Points *float64 `json:"points" validate:"required"`
}

// BulkGradeRequest fills every ungraded student with one score.
type BulkGradeRequest struct {
	AssignmentID string   `json:"assignment_id" validate:"required"`
	Score        *float64 `json:"score" validate:"required"`
}

// RubricBulkGradeRequest fills every ungraded student from rubric selections.
// Overrides are keyed by student ID and replace the shared selections.
type RubricBulkGradeRequest struct {
	AssignmentID string                            `json:"assignment_id" validate:"required"`
	Selections   models.RubricSelection            `json:"selections"`
	Overrides    map[string]models.RubricSelection `json:"overrides"`
}

// GradingService coordinates cell edits, bulk fills and summaries over the grade matrix.
type GradingService struct {
	matrix       gradeMatrix
	scores       rubricScorer
	directory    assignmentDirectory
	rubrics      rubricLoader
	editor       *GradeEditor
	cache        *SummaryCache
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	roundingMode func(float64) float64
}

// NewGradingService constructs GradingService.
func NewGradingService(matrix gradeMatrix, scores rubricScorer, directory assignmentDirectory, rubrics rubricLoader, editor *GradeEditor, cache *SummaryCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GradingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if editor == nil {
		editor = NewGradeEditor(matrix, metrics, logger)
	}
	return &GradingService{
		matrix:       matrix,
		scores:       scores,
		directory:    directory,
		rubrics:      rubrics,
		editor:       editor,
		cache:        cache,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		roundingMode: func(v float64) float64 { return math.RoundToEven(v*100) / 100 },
	}
}

// Get returns the grade for a cell.
func (s *GradingService) Get(studentID, assignmentID string) (models.Grade, bool) {
	return s.matrix.Get(studentID, assignmentID)
}

// List returns grades matching the filter.
func (s *GradingService) List(filter models.GradeFilter) []models.Grade {
	return s.matrix.Filter(filter.Matches)
}

// BeginEdit focuses a cell for editing.
func (s *GradingService) BeginEdit(cell models.GradeCell) (models.EditSession, error) {
	if err := s.validator.Struct(cell); err != nil {
		return models.EditSession{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade cell")
	}
	return s.editor.BeginEdit(cell)
}

// Commit writes the raw input to the focused cell.
func (s *GradingService) Commit(ctx context.Context, cell models.GradeCell, raw string) (models.Grade, error) {
	grade, err := s.editor.Commit(cell, raw)
	if err != nil {
		return models.Grade{}, err
	}
	s.afterWrite(ctx, SourceManual, grade.StudentID)
	return grade, nil
}

// Cancel discards the focused cell's edit.
func (s *GradingService) Cancel(cell models.GradeCell) error {
	return s.editor.Cancel(cell)
}

// EditSession reports the focused cell.
func (s *GradingService) EditSession() (models.EditSession, bool) {
	return s.editor.Session()
}

// CommitScore opens the cell and commits the raw input in one step. A
// missing class is taken from the assignment.
func (s *GradingService) CommitScore(ctx context.Context, cell models.GradeCell, raw string) (models.Grade, error) {
	if cell.ClassID == "" && cell.AssignmentID != "" {
		assignment, err := findAssignment(ctx, s.directory, cell.AssignmentID)
		if err != nil {
			return models.Grade{}, err
		}
		cell.ClassID = assignment.ClassID
	}
	if _, err := s.BeginEdit(cell); err != nil {
		return models.Grade{}, err
	}
	return s.Commit(ctx, cell, raw)
}

// RecordPoints stores an absolute points score, converted to a percentage
// of the assignment's total points.
func (s *GradingService) RecordPoints(ctx context.Context, cell models.GradeCell, req RecordPointsRequest) (models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Grade{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid points payload")
	}
	if cell.StudentID == "" {
		return models.Grade{}, appErrors.Clone(appErrors.ErrValidation, "student is required")
	}
	assignment, err := findAssignment(ctx, s.directory, cell.AssignmentID)
	if err != nil {
		return models.Grade{}, err
	}
	points := *req.Points
	if math.IsNaN(points) || points < 0 || points > assignment.TotalPoints {
		s.metrics.RecordValidationFailure("points")
		return models.Grade{}, appErrors.Clone(appErrors.ErrValidation, "points must be between 0 and the assignment's total points")
	}
	classID := cell.ClassID
	if classID == "" {
		classID = assignment.ClassID
	}
	grade := s.matrix.Upsert(cell.StudentID, assignment.ID, classID, s.roundingMode(points/assignment.TotalPoints*100))
	s.afterWrite(ctx, SourcePoints, grade.StudentID)
	return grade, nil
}

// GradeAll gives every student without a grade for the assignment the same
// score. Students already graded are left untouched, so repeated calls are
// no-ops once the class is fully graded.
func (s *GradingService) GradeAll(ctx context.Context, req BulkGradeRequest) (*models.BulkGradeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	score := *req.Score
	if math.IsNaN(score) || score < 0 || score > MaxPercentScore {
		s.metrics.RecordValidationFailure("bulk")
		return nil, appErrors.Clone(appErrors.ErrValidation, "score must be between 0 and 100")
	}
	assignment, pending, result, err := s.ungraded(ctx, req.AssignmentID)
	if err != nil {
		return nil, err
	}
	for _, studentID := range pending {
		s.insert(result, assignment, studentID, score)
	}
	s.finishBulk(ctx, SourceBulk, result)
	return result, nil
}

// GradeAllFromRubric resolves the assignment's rubric and runs GradeAllWithRubric.
func (s *GradingService) GradeAllFromRubric(ctx context.Context, req RubricBulkGradeRequest) (*models.BulkGradeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rubric bulk payload")
	}
	assignment, err := findAssignment(ctx, s.directory, req.AssignmentID)
	if err != nil {
		return nil, err
	}
	rubric, ok := loadRubric(ctx, s.rubrics, *assignment, s.logger)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "assignment has no usable rubric")
	}
	return s.GradeAllWithRubric(ctx, assignment.ID, rubric, req.Selections, req.Overrides)
}

// GradeAllWithRubric scores every ungraded student from rubric selections.
// Each student's selections are saved before scoring; an override replaces
// the shared selections for that student. Selections the rubric does not
// define score zero and are reported in the log, never aborting the batch.
func (s *GradingService) GradeAllWithRubric(ctx context.Context, assignmentID string, rubric *models.Rubric, selections models.RubricSelection, overrides map[string]models.RubricSelection) (*models.BulkGradeResult, error) {
	if rubric == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "rubric is required")
	}
	assignment, pending, result, err := s.ungraded(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	totalPoints := wholePoints(assignment.TotalPoints)
	for _, studentID := range pending {
		selection, ok := overrides[studentID]
		if !ok {
			selection = selections
		}
		if selection == nil {
			result.Failures = append(result.Failures, models.BulkGradeFailure{StudentID: studentID, Reason: "no rubric selections supplied"})
			continue
		}
		s.scores.SaveSelections(studentID, assignment.ID, selection, totalPoints)
		if invalid := s.scores.InvalidSelections(rubric, selection); len(invalid) > 0 {
			s.logger.Warn("rubric selections reference undefined levels",
				zap.String("student_id", studentID),
				zap.String("assignment_id", assignment.ID),
				zap.Strings("criteria", invalid))
			s.metrics.RecordInconsistentSelections(len(invalid))
		}
		points := s.scores.TotalScore(rubric, studentID, assignment.ID, nil)
		s.insert(result, assignment, studentID, percentOf(points, s.scores.MaxScore(assignment.ID)))
	}
	s.finishBulk(ctx, SourceRubric, result)
	return result, nil
}

// SetComment records a comment on a cell.
func (s *GradingService) SetComment(ctx context.Context, cell models.GradeCell, comment string) (models.Grade, error) {
	if cell.StudentID == "" || cell.AssignmentID == "" {
		return models.Grade{}, appErrors.Clone(appErrors.ErrValidation, "student and assignment are required")
	}
	grade := s.matrix.SetComment(cell.StudentID, cell.AssignmentID, cell.ClassID, comment)
	s.cache.Invalidate(ctx, grade.StudentID)
	return grade, nil
}

// SetStatus moves a grade to the given status.
func (s *GradingService) SetStatus(ctx context.Context, studentID, assignmentID, status string) (models.Grade, error) {
	parsed, ok := models.ParseGradeStatus(status)
	if !ok {
		return models.Grade{}, appErrors.Clone(appErrors.ErrValidation, "unknown grade status")
	}
	grade, err := s.matrix.SetStatus(studentID, assignmentID, parsed)
	if err != nil {
		return models.Grade{}, err
	}
	s.cache.Invalidate(ctx, studentID)
	return grade, nil
}

// Remove deletes a grade.
func (s *GradingService) Remove(ctx context.Context, studentID, assignmentID string) error {
	if !s.matrix.Remove(studentID, assignmentID) {
		return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
	}
	s.cache.Invalidate(ctx, studentID)
	return nil
}

// StudentSummary returns the student's average and status counts.
func (s *GradingService) StudentSummary(ctx context.Context, studentID string) models.StudentGradeSummary {
	if cached, ok := s.cache.Get(ctx, studentID); ok {
		return *cached
	}
	summary := models.StudentGradeSummary{StudentID: studentID}
	if avg, ok := s.matrix.AverageGrade(studentID); ok {
		rounded := s.roundingMode(avg)
		summary.Average = &rounded
	}
	for _, g := range s.matrix.Filter(models.GradeFilter{StudentID: studentID}.Matches) {
		switch g.Status {
		case models.GradeStatusMissing:
			summary.MissingCount++
		case models.GradeStatusIncomplete:
			summary.IncompleteCount++
		case models.GradeStatusExcused:
			summary.ExcusedCount++
		default:
			summary.GradedCount++
		}
	}
	s.cache.Set(ctx, summary)
	return summary
}

// ungraded snapshots the students without a grade for the assignment at call start.
func (s *GradingService) ungraded(ctx context.Context, assignmentID string) (*models.Assignment, []string, *models.BulkGradeResult, error) {
	assignment, err := findAssignment(ctx, s.directory, assignmentID)
	if err != nil {
		return nil, nil, nil, err
	}
	roster, err := s.directory.ListStudentsByClass(ctx, assignment.ClassID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}
	graded := s.matrix.GradedStudents(assignment.ID)
	result := &models.BulkGradeResult{AssignmentID: assignment.ID, Graded: []models.Grade{}}
	seen := make(map[string]struct{}, len(roster))
	pending := make([]string, 0, len(roster))
	for _, student := range roster {
		if student.ID == "" {
			result.Failures = append(result.Failures, models.BulkGradeFailure{Reason: "roster entry without student id"})
			continue
		}
		if _, dup := seen[student.ID]; dup {
			continue
		}
		seen[student.ID] = struct{}{}
		if _, ok := graded[student.ID]; ok {
			result.Skipped = append(result.Skipped, student.ID)
			continue
		}
		pending = append(pending, student.ID)
	}
	return assignment, pending, result, nil
}

func (s *GradingService) insert(result *models.BulkGradeResult, assignment *models.Assignment, studentID string, score float64) {
	grade, inserted := s.matrix.InsertIfAbsent(studentID, assignment.ID, assignment.ClassID, score)
	if !inserted {
		// graded by another writer after the snapshot
		result.Skipped = append(result.Skipped, studentID)
		return
	}
	result.Graded = append(result.Graded, grade)
}

func (s *GradingService) finishBulk(ctx context.Context, source string, result *models.BulkGradeResult) {
	studentIDs := make([]string, 0, len(result.Graded))
	for _, g := range result.Graded {
		studentIDs = append(studentIDs, g.StudentID)
	}
	s.metrics.RecordGradesWritten(source, len(result.Graded))
	s.metrics.RecordBulkSkipped(len(result.Skipped))
	s.cache.Invalidate(ctx, studentIDs...)
	s.logger.Info("bulk grade fill",
		zap.String("assignment_id", result.AssignmentID),
		zap.String("source", source),
		zap.Int("graded", len(result.Graded)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(result.Failures)))
}

func (s *GradingService) afterWrite(ctx context.Context, source, studentID string) {
	s.metrics.RecordGradesWritten(source, 1)
	s.cache.Invalidate(ctx, studentID)
}
