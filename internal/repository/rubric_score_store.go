package repository

import (
	"math"
	"sort"
	"sync"

	"github.com/noah-isme/sma-gradebook/internal/models"
)

// LevelScale selects where a level's percentage comes from.
type LevelScale int

const (
	// LevelScaleRubric uses the percentage defined on the rubric level.
	LevelScaleRubric LevelScale = iota
	// LevelScaleFixed uses the four-tier legacy scale regardless of the rubric.
	LevelScaleFixed
)

// DefaultMaxScore is reported for assignments whose total points were never saved.
const DefaultMaxScore = 100

// absorbs float noise in products such as points*0.65
const floorEpsilon = 1e-9

var fixedLevelScale = map[int]float64{1: 0.50, 2: 0.65, 3: 0.80, 4: 1.00}

// RubricScoreStore keeps per-student rubric selections and turns them into points.
type RubricScoreStore struct {
	mu              sync.RWMutex
	selections      map[models.GradeKey]models.RubricSelection
	totalPoints     map[string]int
	scale           LevelScale
	defaultMaxScore int
}

// NewRubricScoreStore constructs an empty store. defaultMaxScore <= 0 falls
// back to DefaultMaxScore.
func NewRubricScoreStore(scale LevelScale, defaultMaxScore int) *RubricScoreStore {
	if defaultMaxScore <= 0 {
		defaultMaxScore = DefaultMaxScore
	}
	return &RubricScoreStore{
		selections:      make(map[models.GradeKey]models.RubricSelection),
		totalPoints:     make(map[string]int),
		scale:           scale,
		defaultMaxScore: defaultMaxScore,
	}
}

// GetSelections returns a copy of the stored selections, empty when none.
func (s *RubricScoreStore) GetSelections(studentID, assignmentID string) models.RubricSelection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.selections[models.GradeKey{StudentID: studentID, AssignmentID: assignmentID}]
	if !ok {
		return models.RubricSelection{}
	}
	return stored.Clone()
}

// SaveSelections replaces the selections for the key and records the
// assignment's total points. The last write for an assignment wins.
func (s *RubricScoreStore) SaveSelections(studentID, assignmentID string, selections models.RubricSelection, totalPoints int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[models.GradeKey{StudentID: studentID, AssignmentID: assignmentID}] = selections.Clone()
	s.totalPoints[assignmentID] = totalPoints
}

// ClearSelections drops the selections for the key.
func (s *RubricScoreStore) ClearSelections(studentID, assignmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selections, models.GradeKey{StudentID: studentID, AssignmentID: assignmentID})
}

// MaxScore returns the last saved total points for the assignment.
func (s *RubricScoreStore) MaxScore(assignmentID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if total, ok := s.totalPoints[assignmentID]; ok {
		return total
	}
	return s.defaultMaxScore
}

// TotalScore converts selections into points. Every criterion carries an
// equal share of the assignment's total points. A nil selections argument
// uses the stored selections for the key. Unselected criteria and levels
// the rubric does not define contribute nothing.
func (s *RubricScoreStore) TotalScore(rubric *models.Rubric, studentID, assignmentID string, selections models.RubricSelection) int {
	if rubric == nil {
		return 0
	}
	if selections == nil {
		selections = s.GetSelections(studentID, assignmentID)
	}
	totalPoints := s.MaxScore(assignmentID)
	if totalPoints <= 0 {
		return 0
	}
	criteriaCount := rubric.CriteriaCount()
	if criteriaCount < 1 {
		criteriaCount = 1
	}
	pointsPerCriterion := float64(totalPoints) / float64(criteriaCount)

	total := 0
	for _, criterion := range rubric.Criteria {
		level, ok := selections[criterion.Name]
		if !ok {
			continue
		}
		pct, ok := s.levelPercentage(rubric, criterion.Name, level)
		if !ok {
			continue
		}
		total += int(math.Floor(pointsPerCriterion*pct + floorEpsilon))
	}
	if total > totalPoints {
		total = totalPoints
	}
	return total
}

// InvalidSelections lists selected criteria that are unknown to the rubric
// or reference a level that cannot be scored.
func (s *RubricScoreStore) InvalidSelections(rubric *models.Rubric, selections models.RubricSelection) []string {
	var invalid []string
	for name, level := range selections {
		if _, ok := s.levelPercentage(rubric, name, level); !ok {
			invalid = append(invalid, name)
		}
	}
	sort.Strings(invalid)
	return invalid
}

func (s *RubricScoreStore) levelPercentage(rubric *models.Rubric, criterion string, level int) (float64, bool) {
	def, ok := rubric.Level(criterion, level)
	if !ok {
		return 0, false
	}
	if s.scale == LevelScaleFixed {
		pct, ok := fixedLevelScale[level]
		return pct, ok
	}
	pct := def.Percentage
	if pct <= 0 {
		return 0, false
	}
	if pct > 1 {
		pct = 1
	}
	return pct, true
}
