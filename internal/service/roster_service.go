package service

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dpaiva-dev/frequencia-api/internal/models"
	appErrors "github.com/dpaiva-dev/frequencia-api/pkg/errors"
)

type rosterRepository interface {
	rosterReader
	CreateClass(ctx context.Context, name string) (*models.ClassGroup, error)
	DeleteClass(ctx context.Context, classID string) error
	CreateStudent(ctx context.Context, fullName, classID string) (*models.Student, error)
	MoveStudent(ctx context.Context, studentID, classID string) (*models.Student, error)
	DeleteStudent(ctx context.Context, studentID string) error
}

// RosterService manages classes and student enrollment.
type RosterService struct {
	repo      rosterRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(repo rosterRepository, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, validator: validate, logger: logger}
}

// ListClasses returns all classes sorted by name.
func (s *RosterService) ListClasses(ctx context.Context) ([]models.ClassGroup, error) {
	classes, err := s.repo.AllClasses(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

// CreateClass registers a new class with a unique name.
func (s *RosterService) CreateClass(ctx context.Context, req models.CreateClassRequest) (*models.ClassGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class, err := s.repo.CreateClass(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("class created", zap.String("class_id", class.ID), zap.String("name", class.Name))
	return class, nil
}

// DeleteClass removes an empty class.
func (s *RosterService) DeleteClass(ctx context.Context, classID string) error {
	if err := s.repo.DeleteClass(ctx, classID); err != nil {
		return err
	}
	s.logger.Info("class deleted", zap.String("class_id", classID))
	return nil
}

// ListStudents returns students, optionally restricted to one class, sorted
// by name.
func (s *RosterService) ListStudents(ctx context.Context, classID string) ([]models.Student, error) {
	var (
		students []models.Student
		err      error
	)
	if classID != "" {
		students, err = s.repo.StudentsInClass(ctx, classID)
	} else {
		students, err = s.repo.AllStudents(ctx)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(students, func(i, j int) bool { return students[i].FullName < students[j].FullName })
	return students, nil
}

// CreateStudent enrolls a student into an existing class.
func (s *RosterService) CreateStudent(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.CreateStudent(ctx, req.FullName, req.ClassID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("class_id", student.ClassID))
	return student, nil
}

// MoveStudent reassigns a student to another class. Past attendance keeps no
// class of its own, so history follows the student into the new class.
func (s *RosterService) MoveStudent(ctx context.Context, studentID string, req models.MoveStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	student, err := s.repo.MoveStudent(ctx, studentID, req.ClassID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("student moved", zap.String("student_id", studentID), zap.String("class_id", req.ClassID))
	return student, nil
}

// DeleteStudent removes a student from the roster. Their attendance rows stay
// in storage but drop out of class-scoped queries.
func (s *RosterService) DeleteStudent(ctx context.Context, studentID string) error {
	if err := s.repo.DeleteStudent(ctx, studentID); err != nil {
		return err
	}
	s.logger.Info("student deleted", zap.String("student_id", studentID))
	return nil
}
