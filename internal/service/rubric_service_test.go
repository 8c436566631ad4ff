package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

func newRubricFixture() (*RubricService, *mockRubricLoader, *repository.RubricScoreStore) {
	f := newGradingFixture("stu1")
	svc := NewRubricService(f.loader, f.directory, f.scores, nil, zap.NewNop())
	return svc, f.loader, f.scores
}

func TestRubricServiceSaveSelectionsAndScore(t *testing.T) {
	svc, _, store := newRubricFixture()
	ctx := context.Background()

	assert.Empty(t, svc.Selections("stu1", "essay"))

	score, err := svc.SaveSelections(ctx, "stu1", "essay", models.RubricSelection{"Organization": 3, "Evidence": 3})
	require.NoError(t, err)
	assert.Equal(t, 80, score.Points)
	assert.Equal(t, 100, score.MaxPoints)
	assert.Equal(t, 80.0, score.Percentage)
	assert.Empty(t, score.Invalid)
	assert.Equal(t, 100, store.MaxScore("essay"))

	score, err = svc.SaveSelections(ctx, "stu1", "lab", models.RubricSelection{"Organization": 1, "Evidence": 6})
	require.NoError(t, err)
	assert.Equal(t, 10, score.Points)
	assert.Equal(t, 40, score.MaxPoints)
	assert.Equal(t, 25.0, score.Percentage)
	assert.Equal(t, []string{"Evidence"}, score.Invalid)

	again, err := svc.Score(ctx, "stu1", "essay")
	require.NoError(t, err)
	assert.Equal(t, 80, again.Points)
	assert.Equal(t, models.RubricSelection{"Organization": 3, "Evidence": 3}, again.Selections)
}

func TestRubricServiceWithoutRubric(t *testing.T) {
	svc, loader, _ := newRubricFixture()
	ctx := context.Background()

	_, err := svc.SaveSelections(ctx, "stu1", "quiz", models.RubricSelection{"Organization": 1})
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
	assert.Equal(t, 0, loader.calls)

	loader.err = errors.New("timeout")
	_, err = svc.Score(ctx, "stu1", "essay")
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))

	_, err = svc.Score(ctx, "stu1", "unknown")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	_, err = svc.SaveSelections(ctx, "", "essay", nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRubricServiceRubricFor(t *testing.T) {
	svc, _, _ := newRubricFixture()
	rubricID := "rubric-1"

	rubric, ok := svc.RubricFor(context.Background(), models.Assignment{ID: "essay", RubricID: &rubricID})
	require.True(t, ok)
	assert.Equal(t, 2, rubric.CriteriaCount())

	missing := "rubric-9"
	_, ok = svc.RubricFor(context.Background(), models.Assignment{ID: "essay", RubricID: &missing})
	assert.False(t, ok)
}

func TestFindAssignmentRejectsUngradable(t *testing.T) {
	directory := &mockDirectory{assignments: map[string]*models.Assignment{"bad": {ID: "bad", ClassID: "c", TotalPoints: 0}}}
	_, err := findAssignment(context.Background(), directory, "bad")
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
	_, err = findAssignment(context.Background(), directory, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
