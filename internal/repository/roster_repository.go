package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gradebook/internal/models"
)

// RosterRepository reads assignments and class rosters.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository creates a roster repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// FindAssignment fetches an assignment by ID.
func (r *RosterRepository) FindAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT id, class_id, title, total_points, rubric_id FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListStudentsByClass returns the students enrolled in a class ordered by name.
func (r *RosterRepository) ListStudentsByClass(ctx context.Context, classID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.full_name, e.class_id
        FROM students s
        JOIN enrollments e ON e.student_id = s.id
        WHERE e.class_id = $1 AND e.status = 'ACTIVE'
        ORDER BY s.full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list students for class %s: %w", classID, err)
	}
	return students, nil
}
