package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

type rubricServiceMock struct {
	stored models.RubricSelection
	saved  models.RubricSelection
	err    error
}

func (m *rubricServiceMock) Selections(studentID, assignmentID string) models.RubricSelection {
	return m.stored
}

func (m *rubricServiceMock) SaveSelections(ctx context.Context, studentID, assignmentID string, selections models.RubricSelection) (*models.RubricScore, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.saved = selections
	return &models.RubricScore{StudentID: studentID, AssignmentID: assignmentID, Points: 80, MaxPoints: 100, Percentage: 80, Selections: selections}, nil
}

func (m *rubricServiceMock) Score(ctx context.Context, studentID, assignmentID string) (*models.RubricScore, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.RubricScore{StudentID: studentID, AssignmentID: assignmentID, Points: 75, MaxPoints: 100, Percentage: 75}, nil
}

func TestRubricHandlerSelections(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &rubricServiceMock{stored: models.RubricSelection{"Organization": 3}}
	h := NewRubricHandler(svc)

	c, w := newGinContext(http.MethodGet, "/rubric-selections/s1/essay", nil)
	c.Params = cellParams("s1", "essay")
	h.Selections(c)
	require.Equal(t, http.StatusOK, w.Code)

	var sel models.RubricSelection
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &sel))
	assert.Equal(t, 3, sel["Organization"])
}

func TestRubricHandlerSaveSelections(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &rubricServiceMock{}
	h := NewRubricHandler(svc)

	c, w := newGinContext(http.MethodPut, "/rubric-selections/s1/essay", []byte(`{"selections":{"Organization":4,"Evidence":2}}`))
	c.Params = cellParams("s1", "essay")
	h.SaveSelections(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RubricSelection{"Organization": 4, "Evidence": 2}, svc.saved)

	var score models.RubricScore
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &score))
	assert.Equal(t, 80, score.Points)

	c, w = newGinContext(http.MethodPut, "/rubric-selections/s1/essay", []byte(`{}`))
	c.Params = cellParams("s1", "essay")
	h.SaveSelections(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRubricHandlerScoreWithoutRubric(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &rubricServiceMock{err: appErrors.Clone(appErrors.ErrPreconditionFailed, "assignment has no usable rubric")}
	h := NewRubricHandler(svc)

	c, w := newGinContext(http.MethodGet, "/rubric-selections/s1/quiz/score", nil)
	c.Params = cellParams("s1", "quiz")
	h.Score(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}
