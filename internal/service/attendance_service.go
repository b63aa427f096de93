package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dpaiva-dev/frequencia-api/internal/models"
	"github.com/dpaiva-dev/frequencia-api/internal/repository"
	appErrors "github.com/dpaiva-dev/frequencia-api/pkg/errors"
)

type attendanceRepository interface {
	GetRecords(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, error)
	Replace(ctx context.Context, classID string, date time.Time, records []models.AttendanceRecord) error
	Version() int64
}

type rosterReader interface {
	AllClasses(ctx context.Context) ([]models.ClassGroup, error)
	AllStudents(ctx context.Context) ([]models.Student, error)
	StudentsInClass(ctx context.Context, classID string) ([]models.Student, error)
}

// AttendanceService coordinates sheet reads and sheet submissions.
type AttendanceService struct {
	repo      attendanceRepository
	roster    rosterReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service and registers the
// validations its request payloads rely on.
func NewAttendanceService(repo attendanceRepository, roster rosterReader, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{repo: repo, roster: roster, validator: validate, logger: logger}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	svc.validator.RegisterValidation("absence_justification", func(fl validator.FieldLevel) bool {
		return models.Justification(strings.ToLower(fl.Field().String())).Valid()
	})
	svc.validator.RegisterValidation("attendance_date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(repository.DateLayout, fl.Field().String())
		return err == nil
	})
	return svc
}

// GetSheet merges the class roster with any records already stored for the
// date. Unrecorded students appear with Recorded=false so the client can
// prefill defaults.
func (s *AttendanceService) GetSheet(ctx context.Context, classID, date string) (*models.ClassSheet, error) {
	day, err := time.Parse(repository.DateLayout, date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	classes, err := s.roster.AllClasses(ctx)
	if err != nil {
		return nil, err
	}
	className := ""
	for _, class := range classes {
		if class.ID == classID {
			className = class.Name
			break
		}
	}
	if className == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	students, err := s.roster.StudentsInClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.GetRecords(ctx, models.AttendanceFilter{
		ClassID:  classID,
		DateFrom: &day,
		DateTo:   &day,
	})
	if err != nil {
		return nil, err
	}
	recorded := make(map[string]models.AttendanceRecordDetail, len(records))
	for _, rec := range records {
		recorded[rec.StudentID] = rec
	}

	sheet := &models.ClassSheet{ClassID: classID, ClassName: className, Date: date}
	for _, student := range students {
		entry := models.SheetEntry{StudentID: student.ID, StudentName: student.FullName}
		if rec, ok := recorded[student.ID]; ok {
			entry.Status = rec.Status
			entry.Justification = rec.Justification
			entry.Recorded = true
		}
		sheet.Entries = append(sheet.Entries, entry)
	}
	sort.Slice(sheet.Entries, func(i, j int) bool {
		return sheet.Entries[i].StudentName < sheet.Entries[j].StudentName
	})
	return sheet, nil
}

// Submit replaces the class sheet for the requested date with the submitted
// entries, stamping every record with the submitting teacher.
func (s *AttendanceService) Submit(ctx context.Context, teacherID string, req models.SubmitAttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	day, err := time.Parse(repository.DateLayout, req.Date)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	records := make([]models.AttendanceRecord, 0, len(req.Entries))
	for _, entry := range req.Entries {
		status := models.AttendanceStatus(strings.ToUpper(entry.Status))
		just := models.JustificationNone
		if entry.Justification != "" {
			just = models.Justification(strings.ToLower(entry.Justification))
		}
		records = append(records, models.AttendanceRecord{
			StudentID:     entry.StudentID,
			Date:          day,
			Status:        status,
			Justification: just,
			TeacherID:     teacherID,
		})
	}

	if err := s.repo.Replace(ctx, req.ClassID, day, records); err != nil {
		return err
	}

	s.logger.Info("attendance sheet saved",
		zap.String("class_id", req.ClassID),
		zap.String("date", req.Date),
		zap.Int("entries", len(records)),
		zap.String("teacher_id", teacherID),
	)
	return nil
}

// ListRecords returns joined attendance records matching the filter, most
// recent first, paginated in memory.
func (s *AttendanceService) ListRecords(ctx context.Context, filter models.AttendanceFilter, page, pageSize int) ([]models.AttendanceRecordDetail, *models.Pagination, error) {
	records, err := s.repo.GetRecords(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return records[i].StudentID < records[j].StudentID
	})

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	total := len(records)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return records[start:end], pagination, nil
}
