package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dpaiva-dev/frequencia-api/internal/models"
	appErrors "github.com/dpaiva-dev/frequencia-api/pkg/errors"
	"github.com/dpaiva-dev/frequencia-api/pkg/tablestore"
)

const (
	tableAttendance = "attendance"

	// DateLayout is the wire and storage format for attendance dates.
	DateLayout = "2006-01-02"
)

var attendanceHeader = []string{"student_id", "date", "status", "justification", "teacher_id"}

type rosterReader interface {
	AllStudents(ctx context.Context) ([]models.Student, error)
	AllClasses(ctx context.Context) ([]models.ClassGroup, error)
	StudentsInClass(ctx context.Context, classID string) ([]models.Student, error)
}

// AttendanceRepository is the canonical home of attendance records. The one
// non-trivial operation is Replace: submitting a sheet for a (class, date)
// atomically supersedes every prior record for that key.
type AttendanceRepository struct {
	store  tablestore.Store
	roster rosterReader

	// keyLocks serialises writers per (class, date) key; the table itself is
	// one document, so lock acquisition is also guarded.
	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
	tableMu  sync.Mutex

	version atomic.Int64
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(store tablestore.Store, roster rosterReader) *AttendanceRepository {
	return &AttendanceRepository{store: store, roster: roster, keyLocks: make(map[string]*sync.Mutex)}
}

// Version returns a counter bumped on every successful write. Analytics cache
// keys embed it, so stale entries expire by key mismatch instead of explicit
// invalidation.
func (r *AttendanceRepository) Version() int64 {
	return r.version.Load()
}

// GetRecords returns attendance records joined with the current roster,
// narrowed by the filter. Class membership is resolved at read time; records
// whose student has left the roster carry an empty class and are excluded
// from class-scoped queries.
func (r *AttendanceRepository) GetRecords(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, error) {
	records, err := r.readAll(ctx)
	if err != nil {
		return nil, err
	}

	students, err := r.roster.AllStudents(ctx)
	if err != nil {
		return nil, err
	}
	classes, err := r.roster.AllClasses(ctx)
	if err != nil {
		return nil, err
	}

	studentByID := make(map[string]models.Student, len(students))
	for _, student := range students {
		studentByID[student.ID] = student
	}
	classNameByID := make(map[string]string, len(classes))
	for _, class := range classes {
		classNameByID[class.ID] = class.Name
	}

	details := make([]models.AttendanceRecordDetail, 0, len(records))
	for _, rec := range records {
		if !filter.Matches(rec) {
			continue
		}
		detail := models.AttendanceRecordDetail{AttendanceRecord: rec}
		if student, ok := studentByID[rec.StudentID]; ok {
			detail.StudentName = student.FullName
			detail.ClassID = student.ClassID
			detail.ClassName = classNameByID[student.ClassID]
		}
		if filter.ClassID != "" && detail.ClassID != filter.ClassID {
			continue
		}
		details = append(details, detail)
	}
	return details, nil
}

// Replace is the sole write path. It validates that every new record belongs
// to the target class, removes all existing records for (classID, date), and
// persists the union in one atomic table write. Either the whole replacement
// becomes visible or none of it.
func (r *AttendanceRepository) Replace(ctx context.Context, classID string, date time.Time, newRecords []models.AttendanceRecord) error {
	unlock := r.lockKey(classID + "|" + date.Format(DateLayout))
	defer unlock()

	classStudents, err := r.roster.StudentsInClass(ctx, classID)
	if err != nil {
		return err
	}
	inClass := make(map[string]struct{}, len(classStudents))
	for _, student := range classStudents {
		inClass[student.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(newRecords))
	for _, rec := range newRecords {
		if _, ok := inClass[rec.StudentID]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not in class %s", rec.StudentID, classID))
		}
		if _, dup := seen[rec.StudentID]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate record for student %s", rec.StudentID))
		}
		seen[rec.StudentID] = struct{}{}
		if !rec.Status.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", rec.Status))
		}
	}

	existing, err := r.readAll(ctx)
	if err != nil {
		return err
	}

	day := date.Format(DateLayout)
	kept := make([]models.AttendanceRecord, 0, len(existing)+len(newRecords))
	for _, rec := range existing {
		_, member := inClass[rec.StudentID]
		if member && rec.Date.Format(DateLayout) == day {
			continue
		}
		kept = append(kept, rec)
	}

	for _, rec := range newRecords {
		rec.Date = date
		if rec.Status != models.AttendanceStatusAbsent {
			rec.Justification = models.JustificationNone
		} else if rec.Justification == "" {
			rec.Justification = models.JustificationNone
		}
		kept = append(kept, rec)
	}

	rows := make([]tablestore.Row, len(kept))
	for i, rec := range kept {
		rows[i] = tablestore.Row{
			"student_id":    rec.StudentID,
			"date":          rec.Date.Format(DateLayout),
			"status":        string(rec.Status),
			"justification": string(rec.Justification),
			"teacher_id":    rec.TeacherID,
		}
	}
	if err := r.store.WriteTable(ctx, tableAttendance, attendanceHeader, rows); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to write attendance")
	}

	r.version.Add(1)
	return nil
}

func (r *AttendanceRepository) readAll(ctx context.Context) ([]models.AttendanceRecord, error) {
	rows, err := r.store.ReadTable(ctx, tableAttendance)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read attendance")
	}

	records := make([]models.AttendanceRecord, 0, len(rows))
	for i, row := range rows {
		date, err := time.Parse(DateLayout, row["date"])
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status,
				fmt.Sprintf("malformed date in attendance row %d", i))
		}
		justification := models.Justification(row["justification"])
		if justification == "" {
			justification = models.JustificationNone
		}
		records = append(records, models.AttendanceRecord{
			StudentID:     row["student_id"],
			Date:          date,
			Status:        models.AttendanceStatus(row["status"]),
			Justification: justification,
			TeacherID:     row["teacher_id"],
		})
	}
	return records, nil
}

func (r *AttendanceRepository) lockKey(key string) func() {
	r.mu.Lock()
	lock, ok := r.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.keyLocks[key] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	// Writers on different keys still share the attendance table, so the
	// read-modify-write below must not interleave across keys either.
	r.tableMu.Lock()
	return func() {
		r.tableMu.Unlock()
		lock.Unlock()
	}
}
