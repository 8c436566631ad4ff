package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRubricRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewRubricRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM rubrics WHERE id = $1")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("r1", "Essay"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rubric_criteria c")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"criterion_name", "level", "percentage", "description"}).
			AddRow("Organization", 1, 0.5, "weak").
			AddRow("Organization", 2, 1.0, nil).
			AddRow("Evidence", 1, 0.6, nil).
			AddRow("Evidence", 2, 1.0, "strong"))

	rubric, err := repo.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Essay", rubric.Name)
	require.Len(t, rubric.Criteria, 2)
	assert.Equal(t, "Organization", rubric.Criteria[0].Name)
	assert.Equal(t, "weak", rubric.Criteria[0].Levels[0].Description)
	assert.Equal(t, "Evidence", rubric.Criteria[1].Name)
	max, ok := rubric.MaxLevel("Evidence")
	assert.True(t, ok)
	assert.Equal(t, 2, max)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRubricRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewRubricRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM rubrics")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRubricRepositoryRejectsMalformedLevels(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewRubricRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM rubrics")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("r1", "Essay"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rubric_criteria c")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"criterion_name", "level", "percentage", "description"}).
			AddRow("Organization", 1, 0.9, nil).
			AddRow("Organization", 2, 0.4, nil))

	_, err := repo.FindByID(context.Background(), "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}
