package service

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

type rubricLoader interface {
	FindByID(ctx context.Context, id string) (*models.Rubric, error)
}

type assignmentDirectory interface {
	FindAssignment(ctx context.Context, id string) (*models.Assignment, error)
	ListStudentsByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type rubricScorer interface {
	GetSelections(studentID, assignmentID string) models.RubricSelection
	SaveSelections(studentID, assignmentID string, selections models.RubricSelection, totalPoints int)
	TotalScore(rubric *models.Rubric, studentID, assignmentID string, selections models.RubricSelection) int
	MaxScore(assignmentID string) int
	InvalidSelections(rubric *models.Rubric, selections models.RubricSelection) []string
}

// RubricService manages rubric selections and rubric-derived scores.
type RubricService struct {
	loader    rubricLoader
	directory assignmentDirectory
	scores    rubricScorer
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewRubricService constructs RubricService.
func NewRubricService(loader rubricLoader, directory assignmentDirectory, scores rubricScorer, metrics *MetricsService, logger *zap.Logger) *RubricService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RubricService{loader: loader, directory: directory, scores: scores, metrics: metrics, logger: logger}
}

// RubricFor loads the rubric attached to the assignment. Loader failures are
// logged and reported as "no rubric" so callers fall back to manual scoring.
func (s *RubricService) RubricFor(ctx context.Context, assignment models.Assignment) (*models.Rubric, bool) {
	return loadRubric(ctx, s.loader, assignment, s.logger)
}

// Selections returns the stored selections for a student.
func (s *RubricService) Selections(studentID, assignmentID string) models.RubricSelection {
	return s.scores.GetSelections(studentID, assignmentID)
}

// SaveSelections stores the selections against the assignment's total points
// and returns the resulting score.
func (s *RubricService) SaveSelections(ctx context.Context, studentID, assignmentID string, selections models.RubricSelection) (*models.RubricScore, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is required")
	}
	assignment, rubric, err := s.assignmentRubric(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	s.scores.SaveSelections(studentID, assignmentID, selections, wholePoints(assignment.TotalPoints))
	return s.score(rubric, studentID, assignmentID), nil
}

// Score computes the rubric score from the stored selections.
func (s *RubricService) Score(ctx context.Context, studentID, assignmentID string) (*models.RubricScore, error) {
	_, rubric, err := s.assignmentRubric(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	return s.score(rubric, studentID, assignmentID), nil
}

func (s *RubricService) assignmentRubric(ctx context.Context, assignmentID string) (*models.Assignment, *models.Rubric, error) {
	assignment, err := findAssignment(ctx, s.directory, assignmentID)
	if err != nil {
		return nil, nil, err
	}
	rubric, ok := s.RubricFor(ctx, *assignment)
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "assignment has no usable rubric")
	}
	return assignment, rubric, nil
}

func (s *RubricService) score(rubric *models.Rubric, studentID, assignmentID string) *models.RubricScore {
	selections := s.scores.GetSelections(studentID, assignmentID)
	invalid := s.scores.InvalidSelections(rubric, selections)
	if len(invalid) > 0 {
		s.logger.Warn("rubric selections reference undefined levels",
			zap.String("student_id", studentID),
			zap.String("assignment_id", assignmentID),
			zap.Strings("criteria", invalid))
		s.metrics.RecordInconsistentSelections(len(invalid))
	}
	points := s.scores.TotalScore(rubric, studentID, assignmentID, selections)
	maxPoints := s.scores.MaxScore(assignmentID)
	return &models.RubricScore{
		StudentID:    studentID,
		AssignmentID: assignmentID,
		Points:       points,
		MaxPoints:    maxPoints,
		Percentage:   percentOf(points, maxPoints),
		Selections:   selections,
		Invalid:      invalid,
	}
}

func loadRubric(ctx context.Context, loader rubricLoader, assignment models.Assignment, logger *zap.Logger) (*models.Rubric, bool) {
	if loader == nil || !assignment.HasRubric() {
		return nil, false
	}
	rubric, err := loader.FindByID(ctx, *assignment.RubricID)
	if err != nil {
		logger.Warn("rubric unavailable, using manual scoring",
			zap.String("assignment_id", assignment.ID),
			zap.String("rubric_id", *assignment.RubricID),
			zap.Error(err))
		return nil, false
	}
	if rubric == nil {
		return nil, false
	}
	return rubric, true
}

func findAssignment(ctx context.Context, directory assignmentDirectory, id string) (*models.Assignment, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignment is required")
	}
	assignment, err := directory.FindAssignment(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := assignment.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, "assignment is not gradable")
	}
	return assignment, nil
}

// wholePoints converts an assignment's total points to the whole-point
// total used by rubric scoring.
func wholePoints(totalPoints float64) int {
	points := int(math.Round(totalPoints))
	if points < 1 {
		points = 1
	}
	return points
}

func percentOf(points, maxPoints int) float64 {
	if maxPoints <= 0 {
		return 0
	}
	return math.RoundToEven(float64(points)/float64(maxPoints)*100*100) / 100
}
