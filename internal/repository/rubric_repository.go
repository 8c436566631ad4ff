package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gradebook/internal/models"
)

// RubricRepository loads rubric definitions from Postgres.
type RubricRepository struct {
	db *sqlx.DB
}

// NewRubricRepository creates a rubric repository.
func NewRubricRepository(db *sqlx.DB) *RubricRepository {
	return &RubricRepository{db: db}
}

type rubricLevelRow struct {
	CriterionName string         `db:"criterion_name"`
	Level         int            `db:"level"`
	Percentage    float64        `db:"percentage"`
	Description   sql.NullString `db:"description"`
}

// FindByID loads a rubric with its criteria and levels in display order.
// Malformed rubric data is rejected here so scoring never sees it.
func (r *RubricRepository) FindByID(ctx context.Context, id string) (*models.Rubric, error) {
	var rubric models.Rubric
	if err := r.db.GetContext(ctx, &rubric, `SELECT id, name FROM rubrics WHERE id = $1`, id); err != nil {
		return nil, err
	}

	const query = `SELECT c.name AS criterion_name, l.level, l.percentage, l.description
        FROM rubric_criteria c
        JOIN rubric_levels l ON l.criterion_id = c.id
        WHERE c.rubric_id = $1
        ORDER BY c.position ASC, l.level ASC`
	var rows []rubricLevelRow
	if err := r.db.SelectContext(ctx, &rows, query, id); err != nil {
		return nil, fmt.Errorf("load rubric levels %s: %w", id, err)
	}

	index := make(map[string]int)
	for _, row := range rows {
		pos, ok := index[row.CriterionName]
		if !ok {
			pos = len(rubric.Criteria)
			index[row.CriterionName] = pos
			rubric.Criteria = append(rubric.Criteria, models.RubricCriterion{Name: row.CriterionName})
		}
		rubric.Criteria[pos].Levels = append(rubric.Criteria[pos].Levels, models.RubricLevel{
			Level:       row.Level,
			Percentage:  row.Percentage,
			Description: row.Description.String,
		})
	}

	if err := rubric.Validate(); err != nil {
		return nil, fmt.Errorf("rubric %s malformed: %w", id, err)
	}
	return &rubric, nil
}
