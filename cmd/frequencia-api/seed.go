package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/dpaiva-dev/frequencia-api/internal/models"
	"github.com/dpaiva-dev/frequencia-api/internal/repository"
	"github.com/dpaiva-dev/frequencia-api/internal/service"
	"github.com/dpaiva-dev/frequencia-api/pkg/tablestore"
)

var seedUsers = []struct {
	username string
	password string
	fullName string
	role     models.UserRole
}{
	{"admin", "admin12345", "Administrador", models.RoleAdmin},
	{"prof.maria", "prof12345", "Maria Silva", models.RoleTeacher},
	{"prof.joao", "prof12345", "Joao Santos", models.RoleTeacher},
	{"coord.paula", "coord12345", "Paula Lima", models.RoleCoordinator},
	{"agente.rita", "agente12345", "Rita Costa", models.RoleAgent},
}

var seedClassNames = []string{"1A", "1B", "2A"}

var seedStudentNames = []string{
	"Ana Souza", "Bruno Oliveira", "Clara Mendes", "Davi Rocha", "Elisa Martins", "Felipe Alves",
	"Gabriela Nunes", "Heitor Ramos", "Isabela Cardoso", "Joao Pedro Dias", "Larissa Gomes", "Mateus Ferreira",
	"Nicole Barbosa", "Otavio Pinto", "Priscila Duarte", "Rafael Teixeira", "Sofia Moreira", "Thiago Castro",
}

var seedJustifications = []models.Justification{
	models.JustificationIllness,
	models.JustificationTransport,
	models.JustificationFamily,
	models.JustificationOther,
}

// seedData populates an empty store with demo accounts, a small roster and
// eight weeks of weekday attendance. Generation is deterministic so repeated
// seeds of a fresh store produce the same dataset.
func seedData(ctx context.Context, store tablestore.Store, logr *zap.Logger) error {
	rng := rand.New(rand.NewSource(42))

	rosterRepo := repository.NewRosterRepository(store)
	attendanceRepo := repository.NewAttendanceRepository(store, rosterRepo)
	userRepo := repository.NewUserRepository(store)

	teacherIDs := make([]string, 0, 2)
	for _, u := range seedUsers {
		hash, err := service.HashPassword(u.password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.username, err)
		}
		created, err := userRepo.Create(ctx, models.User{
			Username:     u.username,
			PasswordHash: hash,
			FullName:     u.fullName,
			Role:         u.role,
			Active:       true,
		})
		if err != nil {
			return fmt.Errorf("create user %s: %w", u.username, err)
		}
		if u.role == models.RoleTeacher {
			teacherIDs = append(teacherIDs, created.ID)
		}
	}

	classIDs := make([]string, 0, len(seedClassNames))
	for _, name := range seedClassNames {
		class, err := rosterRepo.CreateClass(ctx, name)
		if err != nil {
			return fmt.Errorf("create class %s: %w", name, err)
		}
		classIDs = append(classIDs, class.ID)
	}

	studentsByClass := make(map[string][]models.Student, len(classIDs))
	for i, fullName := range seedStudentNames {
		classID := classIDs[i%len(classIDs)]
		student, err := rosterRepo.CreateStudent(ctx, fullName, classID)
		if err != nil {
			return fmt.Errorf("create student %s: %w", fullName, err)
		}
		studentsByClass[classID] = append(studentsByClass[classID], *student)
	}

	end := time.Now().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -56)

	days := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		days++
		for i, classID := range classIDs {
			teacherID := teacherIDs[i%len(teacherIDs)]
			records := make([]models.AttendanceRecord, 0, len(studentsByClass[classID]))
			for _, student := range studentsByClass[classID] {
				status := models.AttendanceStatusPresent
				just := models.JustificationNone
				switch roll := rng.Float64(); {
				case roll < 0.08:
					status = models.AttendanceStatusAbsent
					just = seedJustifications[rng.Intn(len(seedJustifications))]
				case roll < 0.085:
					status = models.AttendanceStatusDropped
				}
				records = append(records, models.AttendanceRecord{
					StudentID:     student.ID,
					Date:          day,
					Status:        status,
					Justification: just,
					TeacherID:     teacherID,
				})
			}
			if err := attendanceRepo.Replace(ctx, classID, day, records); err != nil {
				return fmt.Errorf("seed attendance for class %s on %s: %w", classID, day.Format(repository.DateLayout), err)
			}
		}
	}

	logr.Info("seed data written",
		zap.Int("users", len(seedUsers)),
		zap.Int("classes", len(classIDs)),
		zap.Int("students", len(seedStudentNames)),
		zap.Int("school_days", days),
	)
	return nil
}
