package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpaiva-dev/frequencia-api/internal/models"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func rec(studentID, classID, date string, status models.AttendanceStatus, just models.Justification, teacherID string) models.AttendanceRecordDetail {
	return models.AttendanceRecordDetail{
		AttendanceRecord: models.AttendanceRecord{
			StudentID:     studentID,
			Date:          day(date),
			Status:        status,
			Justification: just,
			TeacherID:     teacherID,
		},
		ClassID: classID,
	}
}

func TestPresenceRateExcludesDropped(t *testing.T) {
	records := []models.AttendanceRecordDetail{
		rec("s1", "c1", "2025-03-03", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
		rec("s2", "c1", "2025-03-03", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
		rec("s3", "c1", "2025-03-03", models.AttendanceStatusAbsent, models.JustificationIllness, "t1"),
		rec("s4", "c1", "2025-03-03", models.AttendanceStatusDropped, models.JustificationNone, "t1"),
	}

	result := PresenceRate(records, models.AnalyticsScope{})

	assert.Equal(t, 2, result.PresentCount)
	assert.Equal(t, 1, result.AbsentCount)
	assert.InDelta(t, 2.0/3.0, result.PresenceRate, 1e-9)
}

func TestPresenceRateEmptyDataset(t *testing.T) {
	result := PresenceRate(nil, models.AnalyticsScope{})

	assert.Zero(t, result.PresenceRate)
	assert.Zero(t, result.PresentCount)
	assert.Zero(t, result.AbsentCount)
}

func TestPresenceRateScopedByDateRange(t *testing.T) {
	records := []models.AttendanceRecordDetail{
		rec("s1", "c1", "2025-03-03", models.AttendanceStatusAbsent, models.JustificationOther, "t1"),
		rec("s1", "c1", "2025-04-07", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
	}
	from := day("2025-04-01")

	result := PresenceRate(records, models.AnalyticsScope{DateFrom: &from})

	assert.Equal(t, 1, result.PresentCount)
	assert.Equal(t, 0, result.AbsentCount)
	assert.InDelta(t, 1.0, result.PresenceRate, 1e-9)
}

func TestRankStudentsByAbsenceIncludesZeroRecordStudents(t *testing.T) {
	students := []models.Student{
		{ID: "s1", FullName: "Ana", ClassID: "c1"},
		{ID: "s2", FullName: "Bruno", ClassID: "c1"},
		{ID: "s3", FullName: "Clara", ClassID: "c1"},
	}
	records := []models.AttendanceRecordDetail{
		rec("s1", "c1", "2025-03-03", models.AttendanceStatusAbsent, models.JustificationIllness, "t1"),
		rec("s2", "c1", "2025-03-03", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
	}

	entries := RankStudentsByAbsence(records, students, models.AnalyticsScope{}, 0, models.RankDescending)

	require.Len(t, entries, 3)
	assert.Equal(t, "s1", entries[0].EntityID)
	assert.InDelta(t, 1.0, entries[0].AbsenceRate, 1e-9)
	// s2 and s3 tie at rate 0; the lower ID comes first.
	assert.Equal(t, "s2", entries[1].EntityID)
	assert.Equal(t, "s3", entries[2].EntityID)
	assert.Zero(t, entries[2].Recorded)
}

func TestRankStudentsByAbsenceTieBrokenByID(t *testing.T) {
	students := []models.Student{
		{ID: "s2", FullName: "Bruno", ClassID: "c1"},
		{ID: "s1", FullName: "Ana", ClassID: "c1"},
	}
	records := []models.AttendanceRecordDetail{
		rec("s1", "c1", "2025-03-03", models.AttendanceStatusAbsent, models.JustificationNone, "t1"),
		rec("s2", "c1", "2025-03-03", models.AttendanceStatusAbsent, models.JustificationNone, "t1"),
	}

	entries := RankStudentsByAbsence(records, students, models.AnalyticsScope{}, 0, models.RankDescending)

	require.Len(t, entries, 2)
	assert.Equal(t, "s1", entries[0].EntityID)
	assert.Equal(t, "s2", entries[1].EntityID)
}

func TestRankStudentsByAbsenceLimitAndDirection(t *testing.T) {
	students := []models.Student{
		{ID: "s1", FullName: "Ana", ClassID: "c1"},
		{ID: "s2", FullName: "Bruno", ClassID: "c1"},
		{ID: "s3", FullName: "Clara", ClassID: "c1"},
	}
	records := []models.AttendanceRecordDetail{
		rec("s1", "c1", "2025-03-03", models.AttendanceStatusAbsent, models.JustificationNone, "t1"),
		rec("s2", "c1", "2025-03-03", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
		rec("s2", "c1", "2025-03-04", models.AttendanceStatusAbsent, models.JustificationNone, "t1"),
	}

	entries := RankStudentsByAbsence(records, students, models.AnalyticsScope{}, 2, models.RankAscending)

	require.Len(t, entries, 2)
	assert.Equal(t, "s3", entries[0].EntityID)
	assert.Equal(t, "s2", entries[1].EntityID)
}

func TestRankClassesByAbsenceCountsDroppedOutOfDenominator(t *testing.T) {
	classes := []models.ClassGroup{
		{ID: "c1", Name: "1A"},
		{ID: "c2", Name: "1B"},
	}
	records := []models.AttendanceRecordDetail{
		rec("s1", "c1", "2025-03-03", models.AttendanceStatusAbsent, models.JustificationNone, "t1"),
		rec("s2", "c1", "2025-03-03", models.AttendanceStatusDropped, models.JustificationNone, "t1"),
		rec("s3", "c2", "2025-03-03", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
	}

	entries := RankClassesByAbsence(records, classes, models.AnalyticsScope{}, 0, models.RankDescending)

	require.Len(t, entries, 2)
	assert.Equal(t, "c1", entries[0].EntityID)
	assert.Equal(t, 1, entries[0].Recorded)
	assert.InDelta(t, 1.0, entries[0].AbsenceRate, 1e-9)
	assert.Equal(t, "c2", entries[1].EntityID)
	assert.Zero(t, entries[1].AbsenceRate)
}

func TestJustificationBreakdownOnlyCountsAbsences(t *testing.T) {
	records := []models.AttendanceRecordDetail{
		rec("s1", "c1", "2025-03-03", models.AttendanceStatusAbsent, models.JustificationIllness, "t1"),
		rec("s2", "c1", "2025-03-03", models.AttendanceStatusAbsent, models.JustificationIllness, "t1"),
		rec("s3", "c1", "2025-03-03", models.AttendanceStatusAbsent, models.JustificationTransport, "t1"),
		rec("s4", "c1", "2025-03-03", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
		rec("s5", "c1", "2025-03-03", models.AttendanceStatusDropped, models.JustificationOther, "t1"),
	}

	breakdown := JustificationBreakdown(records, models.AnalyticsScope{})

	assert.Equal(t, map[models.Justification]int{
		models.JustificationIllness:   2,
		models.JustificationTransport: 1,
	}, breakdown)
}

func TestJustificationBreakdownEmpty(t *testing.T) {
	breakdown := JustificationBreakdown(nil, models.AnalyticsScope{})

	assert.Empty(t, breakdown)
}

func TestTeacherActivity(t *testing.T) {
	records := []models.AttendanceRecordDetail{
		rec("s1", "c1", "2025-03-03", models.AttendanceStatusPresent, models.JustificationNone, "t2"),
		rec("s2", "c2", "2025-03-10", models.AttendanceStatusAbsent, models.JustificationFamily, "t2"),
		rec("s3", "c1", "2025-03-05", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
	}

	entries := TeacherActivity(records, models.AnalyticsScope{})

	require.Len(t, entries, 2)
	assert.Equal(t, "t1", entries[0].TeacherID)
	assert.Equal(t, 1, entries[0].RecordCount)
	assert.Equal(t, 1, entries[0].DistinctClasses)

	assert.Equal(t, "t2", entries[1].TeacherID)
	assert.Equal(t, 2, entries[1].RecordCount)
	assert.Equal(t, 2, entries[1].DistinctClasses)
	require.NotNil(t, entries[1].FirstDate)
	require.NotNil(t, entries[1].LastDate)
	assert.Equal(t, day("2025-03-03"), *entries[1].FirstDate)
	assert.Equal(t, day("2025-03-10"), *entries[1].LastDate)
}

func TestMonthlyTrendChronological(t *testing.T) {
	records := []models.AttendanceRecordDetail{
		rec("s1", "c1", "2025-04-07", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
		rec("s1", "c1", "2025-03-03", models.AttendanceStatusAbsent, models.JustificationNone, "t1"),
		rec("s2", "c1", "2025-03-03", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
		rec("s3", "c1", "2025-03-03", models.AttendanceStatusDropped, models.JustificationNone, "t1"),
	}

	points := MonthlyTrend(records, models.AnalyticsScope{})

	require.Len(t, points, 2)
	assert.Equal(t, models.MonthlyTrendPoint{Period: "2025-03", PresentCount: 1, AbsentCount: 1}, points[0])
	assert.Equal(t, models.MonthlyTrendPoint{Period: "2025-04", PresentCount: 1, AbsentCount: 0}, points[1])
}

func TestCalendarCoverage(t *testing.T) {
	records := []models.AttendanceRecordDetail{
		rec("s1", "c1", "2025-03-03", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
		rec("s2", "c1", "2025-03-03", models.AttendanceStatusAbsent, models.JustificationNone, "t1"),
		rec("s1", "c1", "2025-03-10", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
		rec("s1", "c1", "2025-04-01", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
		rec("s9", "c2", "2025-03-05", models.AttendanceStatusPresent, models.JustificationNone, "t1"),
	}

	coverage := CalendarCoverage(records, "c1", "2025-03")

	assert.Equal(t, []string{"2025-03-03", "2025-03-10"}, coverage.RecordedDates)
	assert.Equal(t, "c1", coverage.ClassID)
	assert.Equal(t, "2025-03", coverage.Month)
}

func TestCalendarCoverageEmptyMonth(t *testing.T) {
	coverage := CalendarCoverage(nil, "c1", "2025-03")

	assert.Empty(t, coverage.RecordedDates)
}
