package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dpaiva-dev/frequencia-api/internal/analytics"
	"github.com/dpaiva-dev/frequencia-api/internal/models"
)

// AnalyticsService computes attendance statistics over the joined dataset
// with optional cache integration. Cache keys embed the attendance store
// version, so every successful sheet replacement implicitly invalidates all
// cached aggregates without any explicit deletion.
type AnalyticsService struct {
	attendance attendanceRepository
	roster     rosterReader
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(attendance attendanceRepository, roster rosterReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{attendance: attendance, roster: roster, cache: cache, metrics: metrics, logger: logger}
}

// PresenceRate returns the scoped presence ratio. The boolean indicates
// whether the result came from cache.
func (s *AnalyticsService) PresenceRate(ctx context.Context, scope models.AnalyticsScope) (*models.PresenceRateResult, bool, error) {
	cacheKey := s.cacheKey("presence", scopeKey(scope))
	var cached models.PresenceRateResult
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	records, err := s.loadRecords(ctx, scope)
	if err != nil {
		return nil, false, err
	}
	result := analytics.PresenceRate(records, scope)
	s.cacheSet(ctx, cacheKey, result)
	return &result, false, nil
}

// AbsenceRanking ranks students or classes by absence rate within scope.
func (s *AnalyticsService) AbsenceRanking(ctx context.Context, entity models.RankEntity, scope models.AnalyticsScope, limit int, direction models.RankDirection) ([]models.AbsenceRankEntry, bool, error) {
	if direction != models.RankAscending {
		direction = models.RankDescending
	}
	cacheKey := s.cacheKey("ranking", string(entity), scopeKey(scope), fmt.Sprintf("%d", limit), string(direction))
	var cached []models.AbsenceRankEntry
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	records, err := s.loadRecords(ctx, scope)
	if err != nil {
		return nil, false, err
	}

	var entries []models.AbsenceRankEntry
	switch entity {
	case models.RankByClass:
		classes, err := s.roster.AllClasses(ctx)
		if err != nil {
			return nil, false, err
		}
		entries = analytics.RankClassesByAbsence(records, classes, scope, limit, direction)
	default:
		students, err := s.roster.AllStudents(ctx)
		if err != nil {
			return nil, false, err
		}
		entries = analytics.RankStudentsByAbsence(records, students, scope, limit, direction)
	}

	s.cacheSet(ctx, cacheKey, entries)
	return entries, false, nil
}

// JustificationBreakdown tallies absence justifications within scope.
func (s *AnalyticsService) JustificationBreakdown(ctx context.Context, scope models.AnalyticsScope) (map[models.Justification]int, bool, error) {
	cacheKey := s.cacheKey("justifications", scopeKey(scope))
	var cached map[models.Justification]int
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	records, err := s.loadRecords(ctx, scope)
	if err != nil {
		return nil, false, err
	}
	breakdown := analytics.JustificationBreakdown(records, scope)
	s.cacheSet(ctx, cacheKey, breakdown)
	return breakdown, false, nil
}

// TeacherActivity summarises recording activity per teacher within scope.
func (s *AnalyticsService) TeacherActivity(ctx context.Context, scope models.AnalyticsScope) ([]models.TeacherActivityEntry, bool, error) {
	cacheKey := s.cacheKey("teacher-activity", scopeKey(scope))
	var cached []models.TeacherActivityEntry
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	records, err := s.loadRecords(ctx, scope)
	if err != nil {
		return nil, false, err
	}
	entries := analytics.TeacherActivity(records, scope)
	s.cacheSet(ctx, cacheKey, entries)
	return entries, false, nil
}

// MonthlyTrend buckets countable records per calendar month within scope.
func (s *AnalyticsService) MonthlyTrend(ctx context.Context, scope models.AnalyticsScope) ([]models.MonthlyTrendPoint, bool, error) {
	cacheKey := s.cacheKey("trend", scopeKey(scope))
	var cached []models.MonthlyTrendPoint
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	records, err := s.loadRecords(ctx, scope)
	if err != nil {
		return nil, false, err
	}
	points := analytics.MonthlyTrend(records, scope)
	s.cacheSet(ctx, cacheKey, points)
	return points, false, nil
}

// CalendarCoverage reports which dates of the month already carry records for
// the class. Month must be formatted as YYYY-MM.
func (s *AnalyticsService) CalendarCoverage(ctx context.Context, classID, month string) (*models.CalendarCoverage, bool, error) {
	cacheKey := s.cacheKey("coverage", classID, month)
	var cached models.CalendarCoverage
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	records, err := s.attendance.GetRecords(ctx, models.AttendanceFilter{ClassID: classID})
	if err != nil {
		return nil, false, err
	}
	coverage := analytics.CalendarCoverage(records, classID, month)
	s.cacheSet(ctx, cacheKey, coverage)
	return &coverage, false, nil
}

// SystemMetrics returns the instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.AnalyticsSystemMetrics {
	if s.metrics == nil {
		return models.AnalyticsSystemMetrics{}
	}
	return s.metrics.Snapshot()
}

func (s *AnalyticsService) loadRecords(ctx context.Context, scope models.AnalyticsScope) ([]models.AttendanceRecordDetail, error) {
	start := time.Now()
	records, err := s.attendance.GetRecords(ctx, models.AttendanceFilter{
		ClassID:   scope.ClassID,
		StudentID: scope.StudentID,
		TeacherID: scope.TeacherID,
		DateFrom:  scope.DateFrom,
		DateTo:    scope.DateTo,
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveStoreRead("attendance", time.Since(start))
	}
	return records, nil
}

func (s *AnalyticsService) cacheKey(parts ...string) string {
	var builder strings.Builder
	builder.WriteString("analytics:v")
	builder.WriteString(fmt.Sprintf("%d", s.attendance.Version()))
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}

func (s *AnalyticsService) cacheSet(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		s.logger.Warn("cache analytics result", zap.String("key", key), zap.Error(err))
	}
}

func scopeKey(scope models.AnalyticsScope) string {
	return strings.Join([]string{
		scope.ClassID,
		scope.StudentID,
		scope.TeacherID,
		formatScopeTime(scope.DateFrom),
		formatScopeTime(scope.DateTo),
	}, ",")
}

func formatScopeTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
