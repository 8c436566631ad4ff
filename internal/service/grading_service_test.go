package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

type mockDirectory struct {
	assignments map[string]*models.Assignment
	rosters     map[string][]models.Student
	rosterErr   error
}

func (m *mockDirectory) FindAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDirectory) ListStudentsByClass(ctx context.Context, classID string) ([]models.Student, error) {
	if m.rosterErr != nil {
		return nil, m.rosterErr
	}
	return m.rosters[classID], nil
}

type mockRubricLoader struct {
	rubrics map[string]*models.Rubric
	err     error
	calls   int
}

func (m *mockRubricLoader) FindByID(ctx context.Context, id string) (*models.Rubric, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.rubrics[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		m.deleted = append(m.deleted, key)
		delete(m.entries, key)
	}
	return nil
}

func ptrFloat(v float64) *float64 {
	return &v
}

func ptrString(v string) *string {
	return &v
}

func essayRubric(criteria ...string) *models.Rubric {
	r := &models.Rubric{ID: "rubric-1", Name: "Essay"}
	for _, name := range criteria {
		r.Criteria = append(r.Criteria, models.RubricCriterion{Name: name, Levels: []models.RubricLevel{
			{Level: 1, Percentage: 0.5},
			{Level: 2, Percentage: 0.65},
			{Level: 3, Percentage: 0.8},
			{Level: 4, Percentage: 1},
		}})
	}
	return r
}

type gradingFixture struct {
	svc       *GradingService
	matrix    *repository.GradeMatrix
	scores    *repository.RubricScoreStore
	directory *mockDirectory
	loader    *mockRubricLoader
	cacheRepo *memoryCacheRepo
}

func newGradingFixture(students ...string) *gradingFixture {
	roster := make([]models.Student, 0, len(students))
	for _, id := range students {
		roster = append(roster, models.Student{ID: id, Name: strings.ToUpper(id), ClassID: "class"})
	}
	directory := &mockDirectory{
		assignments: map[string]*models.Assignment{
			"essay": {ID: "essay", ClassID: "class", Title: "Essay", TotalPoints: 100, RubricID: ptrString("rubric-1")},
			"quiz":  {ID: "quiz", ClassID: "class", Title: "Quiz", TotalPoints: 20},
			"lab":   {ID: "lab", ClassID: "class", Title: "Lab", TotalPoints: 40, RubricID: ptrString("rubric-1")},
		},
		rosters: map[string][]models.Student{"class": roster},
	}
	loader := &mockRubricLoader{rubrics: map[string]*models.Rubric{"rubric-1": essayRubric("Organization", "Evidence")}}
	matrix := repository.NewGradeMatrix()
	scores := repository.NewRubricScoreStore(repository.LevelScaleRubric, 100)
	cacheRepo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	cache := NewSummaryCache(cacheRepo, metrics, time.Minute, zap.NewNop(), true)
	svc := NewGradingService(matrix, scores, directory, loader, nil, cache, metrics, validator.New(), zap.NewNop())
	return &gradingFixture{svc: svc, matrix: matrix, scores: scores, directory: directory, loader: loader, cacheRepo: cacheRepo}
}

func TestGradingServiceGradeAllIsNonDestructive(t *testing.T) {
	f := newGradingFixture("stu1", "stu2", "stu3")
	ctx := context.Background()
	f.matrix.Upsert("stu2", "quiz", "class", 40)

	result, err := f.svc.GradeAll(ctx, BulkGradeRequest{AssignmentID: "quiz", Score: ptrFloat(100)})
	require.NoError(t, err)
	assert.Len(t, result.Graded, 2)
	assert.Equal(t, []string{"stu2"}, result.Skipped)

	g, ok := f.svc.Get("stu1", "quiz")
	require.True(t, ok)
	assert.Equal(t, 100.0, g.Score)
	g, _ = f.svc.Get("stu2", "quiz")
	assert.Equal(t, 40.0, g.Score)

	result, err = f.svc.GradeAll(ctx, BulkGradeRequest{AssignmentID: "quiz", Score: ptrFloat(50)})
	require.NoError(t, err)
	assert.Empty(t, result.Graded)
	assert.ElementsMatch(t, []string{"stu1", "stu2", "stu3"}, result.Skipped)
	g, _ = f.svc.Get("stu1", "quiz")
	assert.Equal(t, 100.0, g.Score)
	assert.Equal(t, 3, f.matrix.Len())
}

func TestGradingServiceGradeAllValidation(t *testing.T) {
	f := newGradingFixture("stu1")
	ctx := context.Background()

	_, err := f.svc.GradeAll(ctx, BulkGradeRequest{AssignmentID: "quiz", Score: ptrFloat(120)})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	_, err = f.svc.GradeAll(ctx, BulkGradeRequest{AssignmentID: "quiz"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	_, err = f.svc.GradeAll(ctx, BulkGradeRequest{AssignmentID: "nope", Score: ptrFloat(10)})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, 0, f.matrix.Len())

	f.directory.rosterErr = errors.New("db down")
	_, err = f.svc.GradeAll(ctx, BulkGradeRequest{AssignmentID: "quiz", Score: ptrFloat(10)})
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}

func TestGradingServiceGradeAllZeroScore(t *testing.T) {
	f := newGradingFixture("stu1")
	result, err := f.svc.GradeAll(context.Background(), BulkGradeRequest{AssignmentID: "quiz", Score: ptrFloat(0)})
	require.NoError(t, err)
	require.Len(t, result.Graded, 1)
	assert.Equal(t, 0.0, result.Graded[0].Score)
}

func TestGradingServiceGradeAllRosterQuirks(t *testing.T) {
	f := newGradingFixture("stu1")
	f.directory.rosters["class"] = append(f.directory.rosters["class"], models.Student{ID: "stu1"}, models.Student{Name: "ghost"})

	result, err := f.svc.GradeAll(context.Background(), BulkGradeRequest{AssignmentID: "quiz", Score: ptrFloat(75)})
	require.NoError(t, err)
	assert.Len(t, result.Graded, 1)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, f.matrix.Len())
}

func TestGradingServiceGradeAllWithRubric(t *testing.T) {
	f := newGradingFixture("stu1", "stu2", "stu3", "stu4")
	ctx := context.Background()
	f.matrix.Upsert("stu4", "essay", "class", 12)

	result, err := f.svc.GradeAllFromRubric(ctx, RubricBulkGradeRequest{
		AssignmentID: "essay",
		Selections:   models.RubricSelection{"Organization": 3, "Evidence": 3},
		Overrides: map[string]models.RubricSelection{
			"stu2": {"Organization": 1, "Evidence": 4},
			"stu3": {"Organization": 4, "Evidence": 9},
			"stu4": {"Organization": 4, "Evidence": 4},
		},
	})
	require.NoError(t, err)
	assert.Len(t, result.Graded, 3)
	assert.Equal(t, []string{"stu4"}, result.Skipped)

	scores := map[string]float64{}
	for _, g := range result.Graded {
		scores[g.StudentID] = g.Score
	}
	assert.Equal(t, 80.0, scores["stu1"])
	assert.Equal(t, 75.0, scores["stu2"])
	assert.Equal(t, 50.0, scores["stu3"])

	assert.Equal(t, models.RubricSelection{"Organization": 1, "Evidence": 4}, f.scores.GetSelections("stu2", "essay"))
	assert.Empty(t, f.scores.GetSelections("stu4", "essay"))
	g, _ := f.svc.Get("stu4", "essay")
	assert.Equal(t, 12.0, g.Score)
}

func TestGradingServiceGradeAllWithRubricConvertsToPercentage(t *testing.T) {
	f := newGradingFixture("stu1")
	rubric := essayRubric("Organization", "Evidence")

	result, err := f.svc.GradeAllWithRubric(context.Background(), "lab", rubric, models.RubricSelection{"Organization": 2, "Evidence": 4}, nil)
	require.NoError(t, err)
	require.Len(t, result.Graded, 1)
	// 40 points over two criteria: floor(20*0.65)=13 plus 20 gives 33/40
	assert.Equal(t, 82.5, result.Graded[0].Score)
	assert.Equal(t, 40, f.scores.MaxScore("lab"))
}

func TestGradingServiceGradeAllWithRubricMissingSelections(t *testing.T) {
	f := newGradingFixture("stu1", "stu2")
	rubric := essayRubric("Organization")

	result, err := f.svc.GradeAllWithRubric(context.Background(), "essay", rubric, nil, map[string]models.RubricSelection{"stu2": {}})
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "stu1", result.Failures[0].StudentID)
	require.Len(t, result.Graded, 1)
	assert.Equal(t, 0.0, result.Graded[0].Score)

	_, err = f.svc.GradeAllWithRubric(context.Background(), "essay", nil, nil, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
}

func TestGradingServiceRubricLoaderFailureFallsBack(t *testing.T) {
	f := newGradingFixture("stu1")
	f.loader.err = errors.New("connection refused")

	_, err := f.svc.GradeAllFromRubric(context.Background(), RubricBulkGradeRequest{AssignmentID: "essay", Selections: models.RubricSelection{"Organization": 1}})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
	assert.NotContains(t, err.Error(), "connection refused")

	_, err = f.svc.GradeAllFromRubric(context.Background(), RubricBulkGradeRequest{AssignmentID: "quiz", Selections: models.RubricSelection{"Organization": 1}})
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
	assert.Equal(t, 0, f.matrix.Len())

	grade, err := f.svc.CommitScore(context.Background(), models.GradeCell{StudentID: "stu1", AssignmentID: "essay"}, "64")
	require.NoError(t, err)
	assert.Equal(t, 64.0, grade.Score)
}

func TestGradingServiceCommitScore(t *testing.T) {
	f := newGradingFixture("stu1")
	ctx := context.Background()
	cell := models.GradeCell{StudentID: "stu1", AssignmentID: "quiz"}

	_, err := f.svc.CommitScore(ctx, cell, "150")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, 0, f.matrix.Len())
	session, open := f.svc.EditSession()
	require.True(t, open)
	assert.Equal(t, models.EditStateEditing, session.State)
	assert.Equal(t, "class", session.Cell.ClassID)

	grade, err := f.svc.CommitScore(ctx, cell, "88")
	require.NoError(t, err)
	assert.Equal(t, 88.0, grade.Score)
	assert.Equal(t, "class", grade.ClassID)
	_, open = f.svc.EditSession()
	assert.False(t, open)

	_, err = f.svc.CommitScore(ctx, models.GradeCell{StudentID: "stu1", AssignmentID: "missing"}, "10")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestGradingServiceEditRoundTrip(t *testing.T) {
	f := newGradingFixture("stu1")
	ctx := context.Background()
	f.matrix.Upsert("stu1", "quiz", "class", 30)
	before := f.matrix.Filter(nil)
	cell := models.GradeCell{StudentID: "stu1", AssignmentID: "quiz", ClassID: "class"}

	session, err := f.svc.BeginEdit(cell)
	require.NoError(t, err)
	assert.Equal(t, "30", session.Buffer)
	require.NoError(t, f.svc.Cancel(cell))
	assert.Equal(t, before, f.matrix.Filter(nil))

	_, err = f.svc.BeginEdit(cell)
	require.NoError(t, err)
	grade, err := f.svc.Commit(ctx, cell, "45")
	require.NoError(t, err)
	assert.Equal(t, 45.0, grade.Score)
	assert.Equal(t, before[0].ID, grade.ID)
	assert.Equal(t, 1, f.matrix.Len())

	_, err = f.svc.BeginEdit(models.GradeCell{StudentID: "stu1", AssignmentID: "quiz"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestGradingServiceRecordPoints(t *testing.T) {
	f := newGradingFixture("stu1")
	ctx := context.Background()
	cell := models.GradeCell{StudentID: "stu1", AssignmentID: "quiz"}

	grade, err := f.svc.RecordPoints(ctx, cell, RecordPointsRequest{Points: ptrFloat(15)})
	require.NoError(t, err)
	assert.Equal(t, 75.0, grade.Score)
	assert.Equal(t, "class", grade.ClassID)

	_, err = f.svc.RecordPoints(ctx, cell, RecordPointsRequest{Points: ptrFloat(21)})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	_, err = f.svc.RecordPoints(ctx, cell, RecordPointsRequest{Points: ptrFloat(-1)})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	_, err = f.svc.RecordPoints(ctx, cell, RecordPointsRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	g, _ := f.svc.Get("stu1", "quiz")
	assert.Equal(t, 75.0, g.Score)
}

func TestGradingServiceCommentsStatusAndRemoval(t *testing.T) {
	f := newGradingFixture("stu1")
	ctx := context.Background()
	cell := models.GradeCell{StudentID: "stu1", AssignmentID: "quiz", ClassID: "class"}

	grade, err := f.svc.SetComment(ctx, cell, "needs revision")
	require.NoError(t, err)
	assert.Equal(t, 0.0, grade.Score)

	grade, err = f.svc.SetStatus(ctx, "stu1", "quiz", "incomplete")
	require.NoError(t, err)
	assert.True(t, grade.IsIncomplete())

	_, err = f.svc.SetStatus(ctx, "stu1", "quiz", "late")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	_, err = f.svc.SetStatus(ctx, "stu9", "quiz", "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	grade, err = f.svc.CommitScore(ctx, cell, "60")
	require.NoError(t, err)
	assert.True(t, grade.IsIncomplete())
	assert.Equal(t, "needs revision", grade.Comments)

	listed := f.svc.List(models.GradeFilter{Status: models.GradeStatusIncomplete})
	require.Len(t, listed, 1)
	assert.Empty(t, f.svc.List(models.GradeFilter{Status: models.GradeStatusMissing}))

	require.NoError(t, f.svc.Remove(ctx, "stu1", "quiz"))
	assert.True(t, appErrors.Is(f.svc.Remove(ctx, "stu1", "quiz"), appErrors.ErrNotFound))

	_, err = f.svc.SetComment(ctx, models.GradeCell{StudentID: "stu1"}, "x")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestGradingServiceStudentSummary(t *testing.T) {
	f := newGradingFixture("stu1")
	ctx := context.Background()

	summary := f.svc.StudentSummary(ctx, "stu1")
	assert.Nil(t, summary.Average)

	f.matrix.Upsert("stu1", "a1", "class", 80)
	f.matrix.Upsert("stu1", "a2", "class", 90)
	f.matrix.Upsert("stu1", "a3", "class", 100)
	_, err := f.matrix.SetStatus("stu1", "a3", models.GradeStatusMissing)
	require.NoError(t, err)
	f.svc.cache.Invalidate(ctx, "stu1")

	summary = f.svc.StudentSummary(ctx, "stu1")
	require.NotNil(t, summary.Average)
	assert.Equal(t, 90.0, *summary.Average)
	assert.Equal(t, 2, summary.GradedCount)
	assert.Equal(t, 1, summary.MissingCount)
	assert.Contains(t, f.cacheRepo.entries, "gradebook:summary:stu1")

	// writes through the service drop the cached summary
	_, err = f.svc.CommitScore(ctx, models.GradeCell{StudentID: "stu1", AssignmentID: "quiz"}, "50")
	require.NoError(t, err)
	assert.NotContains(t, f.cacheRepo.entries, "gradebook:summary:stu1")

	summary = f.svc.StudentSummary(ctx, "stu1")
	assert.Equal(t, 80.0, *summary.Average)
}

func TestGradingServiceConcurrentBulkGradesEachStudentOnce(t *testing.T) {
	students := []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"}
	f := newGradingFixture(students...)
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		graded int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(score float64) {
			defer wg.Done()
			result, err := f.svc.GradeAll(ctx, BulkGradeRequest{AssignmentID: "quiz", Score: ptrFloat(score)})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			graded += len(result.Graded)
			mu.Unlock()
		}(float64(i * 10))
	}
	wg.Wait()

	assert.Equal(t, len(students), graded)
	assert.Equal(t, len(students), f.matrix.Len())
}
