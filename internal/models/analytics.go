package models

import "time"

// AnalyticsScope narrows analytics computations to a student, class, teacher
// and/or date range. An empty scope covers the whole dataset.
type AnalyticsScope struct {
	ClassID   string     `json:"class_id,omitempty"`
	StudentID string     `json:"student_id,omitempty"`
	TeacherID string     `json:"teacher_id,omitempty"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
}

// RankDirection orders absence rankings.
type RankDirection string

const (
	RankDescending RankDirection = "desc"
	RankAscending  RankDirection = "asc"
)

// RankEntity selects what an absence ranking ranks.
type RankEntity string

const (
	RankByStudent RankEntity = "student"
	RankByClass   RankEntity = "class"
)

// AbsenceRankEntry pairs an entity with its absence rate.
type AbsenceRankEntry struct {
	EntityID    string  `json:"entity_id"`
	EntityName  string  `json:"entity_name"`
	AbsenceRate float64 `json:"absence_rate"`
	Absences    int     `json:"absences"`
	Recorded    int     `json:"recorded"`
}

// TeacherActivityEntry summarises one teacher's recording activity.
type TeacherActivityEntry struct {
	TeacherID       string     `json:"teacher_id"`
	RecordCount     int        `json:"record_count"`
	DistinctClasses int        `json:"distinct_classes"`
	FirstDate       *time.Time `json:"first_date,omitempty"`
	LastDate        *time.Time `json:"last_date,omitempty"`
}

// MonthlyTrendPoint buckets countable records by calendar month.
type MonthlyTrendPoint struct {
	Period       string `json:"period"`
	PresentCount int    `json:"present_count"`
	AbsentCount  int    `json:"absent_count"`
}

// PresenceRateResult reports the rate alongside its inputs.
type PresenceRateResult struct {
	PresenceRate float64 `json:"presence_rate"`
	PresentCount int     `json:"present_count"`
	AbsentCount  int     `json:"absent_count"`
}

// CalendarCoverage lists the dates within a month that already carry records
// for a class.
type CalendarCoverage struct {
	ClassID       string   `json:"class_id"`
	Month         string   `json:"month"`
	RecordedDates []string `json:"recorded_dates"`
}

// AnalyticsSystemMetrics is a lightweight instrumentation snapshot exposed to
// administrators.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	StoreReadCount           uint64    `json:"store_read_count"`
	AverageStoreReadMs       float64   `json:"avg_store_read_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
