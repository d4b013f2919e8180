package repository

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/ports"
)

// UserRepositoryImpl implements the UserRepository interface over the user
// record file. It never writes.
type UserRepositoryImpl struct {
	file *recordFile
}

// NewUserRepository creates a new user repository
func NewUserRepository(cfg FileConfig) ports.UserRepository {
	return &UserRepositoryImpl{file: newRecordFile("users", usersHeader, 4, cfg)}
}

func (r *UserRepositoryImpl) load(ctx context.Context, op string) ([]*entities.User, error) {
	records, err := r.file.read(ctx, op)
	if err != nil {
		return nil, err
	}

	users := make([]*entities.User, 0, len(records))
	for _, rec := range records {
		code, err := rec.int(0)
		if err != nil {
			return nil, r.file.wrap(op, err)
		}
		users = append(users, &entities.User{
			Code:     code,
			Name:     rec.fields[1],
			Email:    rec.fields[2],
			Password: rec.fields[3],
		})
	}

	return users, nil
}

// List returns every user in file order
func (r *UserRepositoryImpl) List(ctx context.Context) (users []*entities.User, err error) {
	defer func() { r.file.observe("list", err) }()

	return r.load(ctx, "list")
}

// GetByCode returns the last user whose code matches
func (r *UserRepositoryImpl) GetByCode(ctx context.Context, code int) (user *entities.User, err error) {
	defer func() { r.file.observe("get_by_code", err) }()

	users, err := r.load(ctx, "get_by_code")
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.Code == code {
			user = u
		}
	}
	if user == nil {
		return nil, entities.ErrUserNotFound
	}

	return user, nil
}

// GetByCredentials returns the last user whose email and password both match
func (r *UserRepositoryImpl) GetByCredentials(ctx context.Context, email, password string) (user *entities.User, err error) {
	defer func() { r.file.observe("get_by_credentials", err) }()

	users, err := r.load(ctx, "get_by_credentials")
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.Email == email && passwordMatches(u.Password, password) {
			user = u
		}
	}
	if user == nil {
		return nil, entities.ErrUserNotFound
	}

	return user, nil
}

// passwordMatches compares exactly, unless the stored value is a bcrypt hash
func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return stored == given
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
