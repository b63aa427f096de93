package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dpaiva-dev/frequencia-api/internal/models"
	appErrors "github.com/dpaiva-dev/frequencia-api/pkg/errors"
	"github.com/dpaiva-dev/frequencia-api/pkg/tablestore"
)

const (
	tableStudents = "students"
	tableClasses  = "classes"
)

var (
	studentHeader = []string{"id", "full_name", "class_id"}
	classHeader   = []string{"id", "name"}
)

// RosterRepository owns the students and classes tables. It is the read-only
// roster port for attendance and analytics, plus the write path for roster
// administration.
type RosterRepository struct {
	store   tablestore.Store
	writeMu sync.Mutex
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(store tablestore.Store) *RosterRepository {
	return &RosterRepository{store: store}
}

// AllClasses returns every class in insertion order.
func (r *RosterRepository) AllClasses(ctx context.Context) ([]models.ClassGroup, error) {
	rows, err := r.store.ReadTable(ctx, tableClasses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read classes")
	}
	classes := make([]models.ClassGroup, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, models.ClassGroup{ID: row["id"], Name: row["name"]})
	}
	return classes, nil
}

// AllStudents returns the full roster in insertion order.
func (r *RosterRepository) AllStudents(ctx context.Context) ([]models.Student, error) {
	rows, err := r.store.ReadTable(ctx, tableStudents)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read students")
	}
	students := make([]models.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, models.Student{ID: row["id"], FullName: row["full_name"], ClassID: row["class_id"]})
	}
	return students, nil
}

// StudentsInClass returns the students currently assigned to the class. An
// unknown class yields an empty slice.
func (r *RosterRepository) StudentsInClass(ctx context.Context, classID string) ([]models.Student, error) {
	students, err := r.AllStudents(ctx)
	if err != nil {
		return nil, err
	}
	inClass := make([]models.Student, 0, len(students))
	for _, student := range students {
		if student.ClassID == classID {
			inClass = append(inClass, student)
		}
	}
	return inClass, nil
}

// CreateClass appends a new class.
func (r *RosterRepository) CreateClass(ctx context.Context, name string) (*models.ClassGroup, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	rows, err := r.store.ReadTable(ctx, tableClasses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read classes")
	}
	for _, row := range rows {
		if row["name"] == name {
			return nil, appErrors.Clone(appErrors.ErrConflict, "class name already exists")
		}
	}

	class := models.ClassGroup{ID: uuid.NewString(), Name: name}
	rows = append(rows, tablestore.Row{"id": class.ID, "name": class.Name})
	if err := r.store.WriteTable(ctx, tableClasses, classHeader, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to write classes")
	}
	return &class, nil
}

// DeleteClass removes a class. Students still assigned to it block deletion.
func (r *RosterRepository) DeleteClass(ctx context.Context, classID string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	students, err := r.StudentsInClass(ctx, classID)
	if err != nil {
		return err
	}
	if len(students) > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "class still has students assigned")
	}

	rows, err := r.store.ReadTable(ctx, tableClasses)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read classes")
	}
	kept := make([]tablestore.Row, 0, len(rows))
	found := false
	for _, row := range rows {
		if row["id"] == classID {
			found = true
			continue
		}
		kept = append(kept, row)
	}
	if !found {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	if err := r.store.WriteTable(ctx, tableClasses, classHeader, kept); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to write classes")
	}
	return nil
}

// CreateStudent appends a student to the roster.
func (r *RosterRepository) CreateStudent(ctx context.Context, fullName, classID string) (*models.Student, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.requireClass(ctx, classID); err != nil {
		return nil, err
	}

	rows, err := r.store.ReadTable(ctx, tableStudents)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read students")
	}

	student := models.Student{ID: uuid.NewString(), FullName: fullName, ClassID: classID}
	rows = append(rows, tablestore.Row{"id": student.ID, "full_name": student.FullName, "class_id": student.ClassID})
	if err := r.store.WriteTable(ctx, tableStudents, studentHeader, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to write students")
	}
	return &student, nil
}

// MoveStudent reassigns a student to another class. This is a destructive
// update: past attendance is re-attributed to the new class on the next read.
func (r *RosterRepository) MoveStudent(ctx context.Context, studentID, classID string) (*models.Student, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.requireClass(ctx, classID); err != nil {
		return nil, err
	}

	rows, err := r.store.ReadTable(ctx, tableStudents)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read students")
	}

	var moved *models.Student
	for _, row := range rows {
		if row["id"] == studentID {
			row["class_id"] = classID
			moved = &models.Student{ID: row["id"], FullName: row["full_name"], ClassID: classID}
			break
		}
	}
	if moved == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if err := r.store.WriteTable(ctx, tableStudents, studentHeader, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to write students")
	}
	return moved, nil
}

// DeleteStudent removes a student from the roster. Their attendance rows stay
// behind and become classless on future joins.
func (r *RosterRepository) DeleteStudent(ctx context.Context, studentID string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	rows, err := r.store.ReadTable(ctx, tableStudents)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read students")
	}
	kept := make([]tablestore.Row, 0, len(rows))
	found := false
	for _, row := range rows {
		if row["id"] == studentID {
			found = true
			continue
		}
		kept = append(kept, row)
	}
	if !found {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if err := r.store.WriteTable(ctx, tableStudents, studentHeader, kept); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to write students")
	}
	return nil
}

func (r *RosterRepository) requireClass(ctx context.Context, classID string) error {
	classes, err := r.AllClasses(ctx)
	if err != nil {
		return err
	}
	for _, class := range classes {
		if class.ID == classID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, "unknown class")
}
