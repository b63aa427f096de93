package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dpaiva-dev/frequencia-api/internal/models"
	appErrors "github.com/dpaiva-dev/frequencia-api/pkg/errors"
	"github.com/dpaiva-dev/frequencia-api/pkg/export"
)

const monthLayout = "2006-01"

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders attendance datasets into downloadable files.
type ExportService struct {
	attendance attendanceRepository
	roster     rosterReader
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(attendance attendanceRepository, roster rosterReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		attendance: attendance,
		roster:     roster,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// MonthlyClassCSV renders every record of one class in one month as CSV.
func (s *ExportService) MonthlyClassCSV(ctx context.Context, classID, month string) (*ExportFile, error) {
	from, to, err := monthBounds(month)
	if err != nil {
		return nil, err
	}

	className, err := s.className(ctx, classID)
	if err != nil {
		return nil, err
	}

	records, err := s.attendance.GetRecords(ctx, models.AttendanceFilter{
		ClassID:  classID,
		DateFrom: &from,
		DateTo:   &to,
	})
	if err != nil {
		return nil, err
	}
	sortRecords(records)

	headers := []string{"date", "student", "status", "justification", "teacher_id"}
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, map[string]string{
			"date":          rec.Date.Format("2006-01-02"),
			"student":       rec.StudentName,
			"status":        string(rec.Status),
			"justification": string(rec.Justification),
			"teacher_id":    rec.TeacherID,
		})
	}

	data, err := s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}

	s.logger.Info("csv export rendered",
		zap.String("class_id", classID),
		zap.String("month", month),
		zap.Int("rows", len(rows)),
	)
	return &ExportFile{
		Filename:    fmt.Sprintf("attendance_%s_%s.csv", sanitizeFilename(className), month),
		ContentType: "text/csv",
		Data:        data,
	}, nil
}

// MonthlyAbsencePDF renders the absence occurrences of one month as a PDF
// report, one line per absent record, optionally restricted to one class.
func (s *ExportService) MonthlyAbsencePDF(ctx context.Context, classID, month string) (*ExportFile, error) {
	from, to, err := monthBounds(month)
	if err != nil {
		return nil, err
	}

	scopeName := "all classes"
	if classID != "" {
		scopeName, err = s.className(ctx, classID)
		if err != nil {
			return nil, err
		}
	}

	status := models.AttendanceStatusAbsent
	records, err := s.attendance.GetRecords(ctx, models.AttendanceFilter{
		ClassID:  classID,
		Status:   &status,
		DateFrom: &from,
		DateTo:   &to,
	})
	if err != nil {
		return nil, err
	}
	sortRecords(records)

	headers := []string{"Date", "Student", "Class", "Justification"}
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, map[string]string{
			"Date":          rec.Date.Format("2006-01-02"),
			"Student":       rec.StudentName,
			"Class":         rec.ClassName,
			"Justification": string(rec.Justification),
		})
	}

	data, err := s.pdf.Render(export.Dataset{Headers: headers, Rows: rows}, export.PDFOptions{
		Title:    "Absence Report",
		Subtitle: fmt.Sprintf("%s / %s / %d occurrences", scopeName, month, len(rows)),
		ColumnWeights: map[string]float64{
			"Date":          1,
			"Student":       2.5,
			"Class":         1.2,
			"Justification": 1.3,
		},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}

	s.logger.Info("pdf export rendered",
		zap.String("class_id", classID),
		zap.String("month", month),
		zap.Int("rows", len(rows)),
	)
	return &ExportFile{
		Filename:    fmt.Sprintf("absences_%s.pdf", month),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func (s *ExportService) className(ctx context.Context, classID string) (string, error) {
	classes, err := s.roster.AllClasses(ctx)
	if err != nil {
		return "", err
	}
	for _, class := range classes {
		if class.ID == classID {
			return class.Name, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrNotFound, "class not found")
}

func monthBounds(month string) (time.Time, time.Time, error) {
	start, err := time.Parse(monthLayout, month)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "month must be formatted as YYYY-MM")
	}
	end := start.AddDate(0, 1, -1)
	return start, end, nil
}

func sortRecords(records []models.AttendanceRecordDetail) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].StudentName < records[j].StudentName
	})
}

func sanitizeFilename(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		case r == ' ', r == '-', r == '_':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "class"
	}
	return string(out)
}
