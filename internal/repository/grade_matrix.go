package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// GradeMatrix is the in-memory store of grade cells keyed by
// (student, assignment). At most one grade exists per key.
type GradeMatrix struct {
	mu     sync.RWMutex
	grades map[models.GradeKey]*models.Grade
	now    func() time.Time
}

// NewGradeMatrix constructs an empty matrix.
func NewGradeMatrix() *GradeMatrix {
	return &GradeMatrix{
		grades: make(map[models.GradeKey]*models.Grade),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get returns a copy of the grade for the key.
func (m *GradeMatrix) Get(studentID, assignmentID string) (models.Grade, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.grades[models.GradeKey{StudentID: studentID, AssignmentID: assignmentID}]
	if !ok {
		return models.Grade{}, false
	}
	return *g, true
}

// Upsert updates the score of an existing grade or creates a new one.
// Status and comments of an existing grade are preserved.
func (m *GradeMatrix) Upsert(studentID, assignmentID, classID string, score float64) models.Grade {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.cell(studentID, assignmentID, classID)
	g.Score = score
	g.UpdatedAt = m.now()
	return *g
}

// InsertIfAbsent creates a grade only when the key has none. The boolean
// is false when a grade already existed; that grade is returned untouched.
func (m *GradeMatrix) InsertIfAbsent(studentID, assignmentID, classID string, score float64) (models.Grade, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := models.GradeKey{StudentID: studentID, AssignmentID: assignmentID}
	if existing, ok := m.grades[key]; ok {
		return *existing, false
	}
	g := m.cell(studentID, assignmentID, classID)
	g.Score = score
	return *g, true
}

// SetComment updates only the comment, creating a zero-score grade if needed.
func (m *GradeMatrix) SetComment(studentID, assignmentID, classID, comment string) models.Grade {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.cell(studentID, assignmentID, classID)
	g.Comments = comment
	g.UpdatedAt = m.now()
	return *g
}

// SetStatus moves an existing grade to another status.
func (m *GradeMatrix) SetStatus(studentID, assignmentID string, status models.GradeStatus) (models.Grade, error) {
	if !status.Valid() {
		return models.Grade{}, appErrors.Clone(appErrors.ErrValidation, "unknown grade status "+string(status))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.grades[models.GradeKey{StudentID: studentID, AssignmentID: assignmentID}]
	if !ok {
		return models.Grade{}, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
	}
	if g.Status != status {
		g.Status = status
		g.UpdatedAt = m.now()
	}
	return *g, nil
}

// Remove deletes the grade for the key and reports whether one existed.
func (m *GradeMatrix) Remove(studentID, assignmentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := models.GradeKey{StudentID: studentID, AssignmentID: assignmentID}
	if _, ok := m.grades[key]; !ok {
		return false
	}
	delete(m.grades, key)
	return true
}

// AverageGrade returns the mean score of all grades recorded for the student.
func (m *GradeMatrix) AverageGrade(studentID string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		total float64
		count int
	)
	for key, g := range m.grades {
		if key.StudentID != studentID {
			continue
		}
		total += g.Score
		count++
	}
	if count == 0 {
		return 0, false
	}
	return total / float64(count), true
}

// Filter returns copies of the grades matching the predicate ordered by
// student then assignment.
func (m *GradeMatrix) Filter(predicate func(models.Grade) bool) []models.Grade {
	m.mu.RLock()
	snapshot := make([]models.Grade, 0, len(m.grades))
	for _, g := range m.grades {
		snapshot = append(snapshot, *g)
	}
	m.mu.RUnlock()

	// predicate runs outside the lock so it may query the matrix itself
	result := make([]models.Grade, 0)
	for _, g := range snapshot {
		if predicate == nil || predicate(g) {
			result = append(result, g)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StudentID != result[j].StudentID {
			return result[i].StudentID < result[j].StudentID
		}
		return result[i].AssignmentID < result[j].AssignmentID
	})
	return result
}

// GradedStudents snapshots the set of students holding a grade for the assignment.
func (m *GradeMatrix) GradedStudents(assignmentID string) map[string]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	graded := make(map[string]struct{})
	for key := range m.grades {
		if key.AssignmentID == assignmentID {
			graded[key.StudentID] = struct{}{}
		}
	}
	return graded
}

// Len returns the number of recorded grades.
func (m *GradeMatrix) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.grades)
}

// cell returns the grade for the key, creating it with defaults. Callers hold the write lock.
func (m *GradeMatrix) cell(studentID, assignmentID, classID string) *models.Grade {
	key := models.GradeKey{StudentID: studentID, AssignmentID: assignmentID}
	if g, ok := m.grades[key]; ok {
		if g.ClassID == "" {
			g.ClassID = classID
		}
		return g
	}
	now := m.now()
	g := &models.Grade{
		ID:           uuid.NewString(),
		StudentID:    studentID,
		AssignmentID: assignmentID,
		ClassID:      classID,
		Status:       models.GradeStatusGraded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.grades[key] = g
	return g
}
