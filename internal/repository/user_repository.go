package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dpaiva-dev/frequencia-api/internal/models"
	appErrors "github.com/dpaiva-dev/frequencia-api/pkg/errors"
	"github.com/dpaiva-dev/frequencia-api/pkg/tablestore"
)

const tableUsers = "users"

var userHeader = []string{"id", "username", "password_hash", "full_name", "role", "active"}

// UserRepository stores application users in the users table.
type UserRepository struct {
	store   tablestore.Store
	writeMu sync.Mutex
}

// NewUserRepository constructs the repository.
func NewUserRepository(store tablestore.Store) *UserRepository {
	return &UserRepository{store: store}
}

// FindByUsername returns the user or ErrNotFound.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

// FindByID returns the user or ErrNotFound.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	users, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

// All returns every user.
func (r *UserRepository) All(ctx context.Context) ([]models.User, error) {
	rows, err := r.store.ReadTable(ctx, tableUsers)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read users")
	}
	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, models.User{
			ID:           row["id"],
			Username:     row["username"],
			PasswordHash: row["password_hash"],
			FullName:     row["full_name"],
			Role:         models.UserRole(row["role"]),
			Active:       row["active"] != "false",
		})
	}
	return users, nil
}

// Create appends a user; usernames are unique.
func (r *UserRepository) Create(ctx context.Context, user models.User) (*models.User, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	rows, err := r.store.ReadTable(ctx, tableUsers)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read users")
	}
	for _, row := range rows {
		if row["username"] == user.Username {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	active := "true"
	if !user.Active {
		active = "false"
	}
	rows = append(rows, tablestore.Row{
		"id":            user.ID,
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"full_name":     user.FullName,
		"role":          string(user.Role),
		"active":        active,
	})
	if err := r.store.WriteTable(ctx, tableUsers, userHeader, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to write users")
	}
	return &user, nil
}
