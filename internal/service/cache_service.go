package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

const summaryKeyPrefix = "gradebook:summary:"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SummaryCache keeps student grade summaries for reporting consumers.
// Failures are logged and treated as misses; the matrix stays the source of truth.
type SummaryCache struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewSummaryCache constructs a summary cache.
func NewSummaryCache(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *SummaryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryCache{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *SummaryCache) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get returns the cached summary for the student, if any.
func (s *SummaryCache) Get(ctx context.Context, studentID string) (*models.StudentGradeSummary, bool) {
	if !s.Enabled() {
		return nil, false
	}
	start := time.Now()
	var summary models.StudentGradeSummary
	err := s.repo.Get(ctx, summaryKey(studentID), &summary)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("summary cache get failed", zap.String("student_id", studentID), zap.Error(err))
		}
		return nil, false
	}
	return &summary, true
}

// Set stores the summary.
func (s *SummaryCache) Set(ctx context.Context, summary models.StudentGradeSummary) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Set(ctx, summaryKey(summary.StudentID), summary, s.ttl); err != nil {
		s.logger.Warn("summary cache set failed", zap.String("student_id", summary.StudentID), zap.Error(err))
	}
}

// Invalidate drops cached summaries for the given students.
func (s *SummaryCache) Invalidate(ctx context.Context, studentIDs ...string) {
	if !s.Enabled() {
		return
	}
	if len(studentIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		keys = append(keys, summaryKey(id))
	}
	if err := s.repo.Delete(ctx, keys...); err != nil {
		s.logger.Warn("summary cache invalidate failed", zap.Strings("student_ids", studentIDs), zap.Error(err))
	}
}

func summaryKey(studentID string) string {
	return summaryKeyPrefix + studentID
}
