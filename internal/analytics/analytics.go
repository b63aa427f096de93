// Package analytics derives statistics from the joined attendance dataset.
// Every function is pure and total: an empty input produces zero values and
// empty collections, never an error. Rates stay as raw float64 ratios;
// rounding happens at presentation time only.
package analytics

import (
	"sort"
	"time"

	"github.com/dpaiva-dev/frequencia-api/internal/models"
)

// InScope applies the scope to a joined record.
func InScope(rec models.AttendanceRecordDetail, scope models.AnalyticsScope) bool {
	if scope.ClassID != "" && rec.ClassID != scope.ClassID {
		return false
	}
	if scope.StudentID != "" && rec.StudentID != scope.StudentID {
		return false
	}
	if scope.TeacherID != "" && rec.TeacherID != scope.TeacherID {
		return false
	}
	if scope.DateFrom != nil && rec.Date.Before(*scope.DateFrom) {
		return false
	}
	if scope.DateTo != nil && rec.Date.After(*scope.DateTo) {
		return false
	}
	return true
}

// Filter returns the records within scope, preserving order.
func Filter(records []models.AttendanceRecordDetail, scope models.AnalyticsScope) []models.AttendanceRecordDetail {
	out := make([]models.AttendanceRecordDetail, 0, len(records))
	for _, rec := range records {
		if InScope(rec, scope) {
			out = append(out, rec)
		}
	}
	return out
}

// PresenceRate computes present / (present + absent) within scope. Dropped
// records are excluded from the denominator; an empty scope yields 0.
func PresenceRate(records []models.AttendanceRecordDetail, scope models.AnalyticsScope) models.PresenceRateResult {
	var result models.PresenceRateResult
	for _, rec := range Filter(records, scope) {
		switch rec.Status {
		case models.AttendanceStatusPresent:
			result.PresentCount++
		case models.AttendanceStatusAbsent:
			result.AbsentCount++
		}
	}
	if total := result.PresentCount + result.AbsentCount; total > 0 {
		result.PresenceRate = float64(result.PresentCount) / float64(total)
	}
	return result
}

// RankStudentsByAbsence orders every student in scope by absence rate.
// Students without countable records rank with rate 0 rather than being
// omitted. Ties are broken by student ID so repeated calls return the same
// ordering. A limit of 0 means no limit.
func RankStudentsByAbsence(records []models.AttendanceRecordDetail, students []models.Student, scope models.AnalyticsScope, limit int, direction models.RankDirection) []models.AbsenceRankEntry {
	entries := make([]models.AbsenceRankEntry, 0, len(students))
	byStudent := make(map[string]*models.AbsenceRankEntry, len(students))
	for _, student := range students {
		if scope.ClassID != "" && student.ClassID != scope.ClassID {
			continue
		}
		if scope.StudentID != "" && student.ID != scope.StudentID {
			continue
		}
		entries = append(entries, models.AbsenceRankEntry{EntityID: student.ID, EntityName: student.FullName})
		byStudent[student.ID] = &entries[len(entries)-1]
	}

	for _, rec := range Filter(records, scope) {
		entry, ok := byStudent[rec.StudentID]
		if !ok || !rec.Status.Countable() {
			continue
		}
		entry.Recorded++
		if rec.Status == models.AttendanceStatusAbsent {
			entry.Absences++
		}
	}
	for i := range entries {
		if entries[i].Recorded > 0 {
			entries[i].AbsenceRate = float64(entries[i].Absences) / float64(entries[i].Recorded)
		}
	}

	return sortAndTrim(entries, limit, direction)
}

// RankClassesByAbsence orders classes by absence rate with the same tie and
// zero-record semantics as the student ranking.
func RankClassesByAbsence(records []models.AttendanceRecordDetail, classes []models.ClassGroup, scope models.AnalyticsScope, limit int, direction models.RankDirection) []models.AbsenceRankEntry {
	entries := make([]models.AbsenceRankEntry, 0, len(classes))
	byClass := make(map[string]*models.AbsenceRankEntry, len(classes))
	for _, class := range classes {
		if scope.ClassID != "" && class.ID != scope.ClassID {
			continue
		}
		entries = append(entries, models.AbsenceRankEntry{EntityID: class.ID, EntityName: class.Name})
		byClass[class.ID] = &entries[len(entries)-1]
	}

	for _, rec := range Filter(records, scope) {
		entry, ok := byClass[rec.ClassID]
		if !ok || !rec.Status.Countable() {
			continue
		}
		entry.Recorded++
		if rec.Status == models.AttendanceStatusAbsent {
			entry.Absences++
		}
	}
	for i := range entries {
		if entries[i].Recorded > 0 {
			entries[i].AbsenceRate = float64(entries[i].Absences) / float64(entries[i].Recorded)
		}
	}

	return sortAndTrim(entries, limit, direction)
}

// JustificationBreakdown tallies justifications among absent records only.
// A scope without absences yields an empty map.
func JustificationBreakdown(records []models.AttendanceRecordDetail, scope models.AnalyticsScope) map[models.Justification]int {
	breakdown := make(map[models.Justification]int)
	for _, rec := range Filter(records, scope) {
		if rec.Status != models.AttendanceStatusAbsent {
			continue
		}
		breakdown[rec.Justification]++
	}
	return breakdown
}

// TeacherActivity summarises recording activity per teacher, sorted by
// teacher ID for stable output.
func TeacherActivity(records []models.AttendanceRecordDetail, scope models.AnalyticsScope) []models.TeacherActivityEntry {
	type activity struct {
		entry   models.TeacherActivityEntry
		classes map[string]struct{}
	}
	byTeacher := make(map[string]*activity)
	for _, rec := range Filter(records, scope) {
		act, ok := byTeacher[rec.TeacherID]
		if !ok {
			act = &activity{entry: models.TeacherActivityEntry{TeacherID: rec.TeacherID}, classes: make(map[string]struct{})}
			byTeacher[rec.TeacherID] = act
		}
		act.entry.RecordCount++
		if rec.ClassID != "" {
			act.classes[rec.ClassID] = struct{}{}
		}
		date := rec.Date
		if act.entry.FirstDate == nil || date.Before(*act.entry.FirstDate) {
			act.entry.FirstDate = &date
		}
		if act.entry.LastDate == nil || date.After(*act.entry.LastDate) {
			act.entry.LastDate = &date
		}
	}

	entries := make([]models.TeacherActivityEntry, 0, len(byTeacher))
	for _, act := range byTeacher {
		act.entry.DistinctClasses = len(act.classes)
		entries = append(entries, act.entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].TeacherID < entries[j].TeacherID })
	return entries
}

// MonthlyTrend buckets countable records by calendar month in chronological
// order.
func MonthlyTrend(records []models.AttendanceRecordDetail, scope models.AnalyticsScope) []models.MonthlyTrendPoint {
	byPeriod := make(map[string]*models.MonthlyTrendPoint)
	for _, rec := range Filter(records, scope) {
		if !rec.Status.Countable() {
			continue
		}
		period := rec.Date.Format("2006-01")
		point, ok := byPeriod[period]
		if !ok {
			point = &models.MonthlyTrendPoint{Period: period}
			byPeriod[period] = point
		}
		if rec.Status == models.AttendanceStatusPresent {
			point.PresentCount++
		} else {
			point.AbsentCount++
		}
	}

	points := make([]models.MonthlyTrendPoint, 0, len(byPeriod))
	for _, point := range byPeriod {
		points = append(points, *point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points
}

// CalendarCoverage returns the distinct dates within the month (formatted
// YYYY-MM) that carry at least one record for the class, sorted ascending.
// Weekend dates are included whenever data exists for them.
func CalendarCoverage(records []models.AttendanceRecordDetail, classID, month string) models.CalendarCoverage {
	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec.ClassID != classID {
			continue
		}
		if rec.Date.Format("2006-01") != month {
			continue
		}
		seen[rec.Date.Format("2006-01-02")] = struct{}{}
	}

	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return models.CalendarCoverage{ClassID: classID, Month: month, RecordedDates: dates}
}

func sortAndTrim(entries []models.AbsenceRankEntry, limit int, direction models.RankDirection) []models.AbsenceRankEntry {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AbsenceRate != entries[j].AbsenceRate {
			if direction == models.RankAscending {
				return entries[i].AbsenceRate < entries[j].AbsenceRate
			}
			return entries[i].AbsenceRate > entries[j].AbsenceRate
		}
		return entries[i].EntityID < entries[j].EntityID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// MonthOf formats a time as the YYYY-MM period key used across analytics.
func MonthOf(t time.Time) string {
	return t.Format("2006-01")
}
