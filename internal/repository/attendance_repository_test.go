package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpaiva-dev/frequencia-api/internal/models"
	appErrors "github.com/dpaiva-dev/frequencia-api/pkg/errors"
	"github.com/dpaiva-dev/frequencia-api/pkg/tablestore"
)

type attendanceFixture struct {
	store  *tablestore.MemoryStore
	roster *RosterRepository
	repo   *AttendanceRepository

	classA   *models.ClassGroup
	classB   *models.ClassGroup
	students map[string]*models.Student
}

func newAttendanceFixture(t *testing.T) *attendanceFixture {
	t.Helper()
	store := tablestore.NewMemoryStore()
	roster := NewRosterRepository(store)
	ctx := context.Background()

	classA, err := roster.CreateClass(ctx, "1A")
	require.NoError(t, err)
	classB, err := roster.CreateClass(ctx, "1B")
	require.NoError(t, err)

	students := make(map[string]*models.Student)
	for name, classID := range map[string]string{
		"Ana":   classA.ID,
		"Bruno": classA.ID,
		"Clara": classB.ID,
	} {
		student, err := roster.CreateStudent(ctx, name, classID)
		require.NoError(t, err)
		students[name] = student
	}

	return &attendanceFixture{
		store:    store,
		roster:   roster,
		repo:     NewAttendanceRepository(store, roster),
		classA:   classA,
		classB:   classB,
		students: students,
	}
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(DateLayout, value)
	require.NoError(t, err)
	return parsed
}

func (f *attendanceFixture) record(name string, status models.AttendanceStatus, just models.Justification, date time.Time) models.AttendanceRecord {
	return models.AttendanceRecord{
		StudentID:     f.students[name].ID,
		Date:          date,
		Status:        status,
		Justification: just,
		TeacherID:     "t1",
	}
}

func TestReplaceInsertsRecords(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	day := mustDate(t, "2025-03-03")

	err := f.repo.Replace(ctx, f.classA.ID, day, []models.AttendanceRecord{
		f.record("Ana", models.AttendanceStatusPresent, models.JustificationNone, day),
		f.record("Bruno", models.AttendanceStatusAbsent, models.JustificationIllness, day),
	})
	require.NoError(t, err)

	records, err := f.repo.GetRecords(ctx, models.AttendanceFilter{ClassID: f.classA.ID})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), f.repo.Version())
}

func TestReplaceSupersedesSameKey(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	day := mustDate(t, "2025-03-03")

	require.NoError(t, f.repo.Replace(ctx, f.classA.ID, day, []models.AttendanceRecord{
		f.record("Ana", models.AttendanceStatusAbsent, models.JustificationOther, day),
		f.record("Bruno", models.AttendanceStatusAbsent, models.JustificationOther, day),
	}))
	require.NoError(t, f.repo.Replace(ctx, f.classA.ID, day, []models.AttendanceRecord{
		f.record("Ana", models.AttendanceStatusPresent, models.JustificationNone, day),
	}))

	records, err := f.repo.GetRecords(ctx, models.AttendanceFilter{ClassID: f.classA.ID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, f.students["Ana"].ID, records[0].StudentID)
	assert.Equal(t, models.AttendanceStatusPresent, records[0].Status)
	assert.Equal(t, int64(2), f.repo.Version())
}

func TestReplaceIsIdempotent(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	day := mustDate(t, "2025-03-03")
	sheet := []models.AttendanceRecord{
		f.record("Ana", models.AttendanceStatusPresent, models.JustificationNone, day),
	}

	require.NoError(t, f.repo.Replace(ctx, f.classA.ID, day, sheet))
	require.NoError(t, f.repo.Replace(ctx, f.classA.ID, day, sheet))

	records, err := f.repo.GetRecords(ctx, models.AttendanceFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReplaceLeavesOtherKeysUntouched(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	monday := mustDate(t, "2025-03-03")
	tuesday := mustDate(t, "2025-03-04")

	require.NoError(t, f.repo.Replace(ctx, f.classA.ID, monday, []models.AttendanceRecord{
		f.record("Ana", models.AttendanceStatusPresent, models.JustificationNone, monday),
	}))
	require.NoError(t, f.repo.Replace(ctx, f.classB.ID, monday, []models.AttendanceRecord{
		f.record("Clara", models.AttendanceStatusAbsent, models.JustificationTransport, monday),
	}))
	require.NoError(t, f.repo.Replace(ctx, f.classA.ID, tuesday, []models.AttendanceRecord{
		f.record("Ana", models.AttendanceStatusAbsent, models.JustificationFamily, tuesday),
	}))

	// Rewriting class A on Monday must not touch class B or Tuesday.
	require.NoError(t, f.repo.Replace(ctx, f.classA.ID, monday, nil))

	all, err := f.repo.GetRecords(ctx, models.AttendanceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	classB, err := f.repo.GetRecords(ctx, models.AttendanceFilter{ClassID: f.classB.ID})
	require.NoError(t, err)
	require.Len(t, classB, 1)
	assert.Equal(t, f.students["Clara"].ID, classB[0].StudentID)
}

func TestReplaceRejectsOutsideStudentWithoutWriting(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	day := mustDate(t, "2025-03-03")

	err := f.repo.Replace(ctx, f.classA.ID, day, []models.AttendanceRecord{
		f.record("Ana", models.AttendanceStatusPresent, models.JustificationNone, day),
		f.record("Clara", models.AttendanceStatusPresent, models.JustificationNone, day),
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	records, getErr := f.repo.GetRecords(ctx, models.AttendanceFilter{})
	require.NoError(t, getErr)
	assert.Empty(t, records)
	assert.Zero(t, f.repo.Version())
}

func TestReplaceRejectsDuplicateStudent(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	day := mustDate(t, "2025-03-03")

	err := f.repo.Replace(ctx, f.classA.ID, day, []models.AttendanceRecord{
		f.record("Ana", models.AttendanceStatusPresent, models.JustificationNone, day),
		f.record("Ana", models.AttendanceStatusAbsent, models.JustificationIllness, day),
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReplaceNormalizesJustification(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	day := mustDate(t, "2025-03-03")

	require.NoError(t, f.repo.Replace(ctx, f.classA.ID, day, []models.AttendanceRecord{
		// A justification on a present record is meaningless and dropped.
		f.record("Ana", models.AttendanceStatusPresent, models.JustificationIllness, day),
	}))

	records, err := f.repo.GetRecords(ctx, models.AttendanceFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.JustificationNone, records[0].Justification)
}

func TestReplaceStorageFailure(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	day := mustDate(t, "2025-03-03")
	f.store.FailWrites = errors.New("disk full")

	err := f.repo.Replace(ctx, f.classA.ID, day, []models.AttendanceRecord{
		f.record("Ana", models.AttendanceStatusPresent, models.JustificationNone, day),
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErrors.FromError(err).Code)
	assert.Zero(t, f.repo.Version())
}

func TestGetRecordsJoinFollowsCurrentMembership(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	day := mustDate(t, "2025-03-03")

	require.NoError(t, f.repo.Replace(ctx, f.classA.ID, day, []models.AttendanceRecord{
		f.record("Ana", models.AttendanceStatusAbsent, models.JustificationIllness, day),
	}))

	// Moving the student re-attributes their history to the new class.
	_, err := f.roster.MoveStudent(ctx, f.students["Ana"].ID, f.classB.ID)
	require.NoError(t, err)

	classA, err := f.repo.GetRecords(ctx, models.AttendanceFilter{ClassID: f.classA.ID})
	require.NoError(t, err)
	assert.Empty(t, classA)

	classB, err := f.repo.GetRecords(ctx, models.AttendanceFilter{ClassID: f.classB.ID})
	require.NoError(t, err)
	require.Len(t, classB, 1)
	assert.Equal(t, "1B", classB[0].ClassName)
}

func TestGetRecordsExcludesRosterlessFromClassQueries(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	day := mustDate(t, "2025-03-03")

	require.NoError(t, f.repo.Replace(ctx, f.classA.ID, day, []models.AttendanceRecord{
		f.record("Ana", models.AttendanceStatusPresent, models.JustificationNone, day),
	}))
	require.NoError(t, f.roster.DeleteStudent(ctx, f.students["Ana"].ID))

	scoped, err := f.repo.GetRecords(ctx, models.AttendanceFilter{ClassID: f.classA.ID})
	require.NoError(t, err)
	assert.Empty(t, scoped)

	// The raw record is still visible without a class scope.
	all, err := f.repo.GetRecords(ctx, models.AttendanceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Empty(t, all[0].ClassID)
}

func TestGetRecordsFilters(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	monday := mustDate(t, "2025-03-03")
	tuesday := mustDate(t, "2025-03-04")

	require.NoError(t, f.repo.Replace(ctx, f.classA.ID, monday, []models.AttendanceRecord{
		f.record("Ana", models.AttendanceStatusPresent, models.JustificationNone, monday),
		f.record("Bruno", models.AttendanceStatusAbsent, models.JustificationFamily, monday),
	}))
	require.NoError(t, f.repo.Replace(ctx, f.classA.ID, tuesday, []models.AttendanceRecord{
		f.record("Ana", models.AttendanceStatusAbsent, models.JustificationIllness, tuesday),
	}))

	absent := models.AttendanceStatusAbsent
	records, err := f.repo.GetRecords(ctx, models.AttendanceFilter{Status: &absent})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = f.repo.GetRecords(ctx, models.AttendanceFilter{StudentID: f.students["Ana"].ID, DateFrom: &tuesday})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.JustificationIllness, records[0].Justification)
}

func TestReplaceConcurrentWritersKeepAllKeys(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()

	days := make([]time.Time, 10)
	for i := range days {
		days[i] = mustDate(t, "2025-03-03").AddDate(0, 0, i)
	}

	var wg sync.WaitGroup
	for _, day := range days {
		wg.Add(1)
		go func(day time.Time) {
			defer wg.Done()
			err := f.repo.Replace(ctx, f.classA.ID, day, []models.AttendanceRecord{
				f.record("Ana", models.AttendanceStatusPresent, models.JustificationNone, day),
			})
			assert.NoError(t, err)
		}(day)
	}
	wg.Wait()

	records, err := f.repo.GetRecords(ctx, models.AttendanceFilter{})
	require.NoError(t, err)
	assert.Len(t, records, len(days))
	assert.Equal(t, int64(len(days)), f.repo.Version())
}

func TestReadAllRejectsMalformedDate(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.WriteTable(ctx, "attendance", attendanceHeader, []tablestore.Row{
		{"student_id": "s1", "date": "03/03/2025", "status": "PRESENT", "justification": "none", "teacher_id": "t1"},
	}))

	_, err := f.repo.GetRecords(ctx, models.AttendanceFilter{})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErrors.FromError(err).Code)
}
