package ports

import (
	"context"

	"github.com/taskmaster/tracker/internal/domain/entities"
)

// UserRepository defines read-only access to the user record file
type UserRepository interface {
	GetByCode(ctx context.Context, code int) (*entities.User, error)
	GetByCredentials(ctx context.Context, email, password string) (*entities.User, error)
	List(ctx context.Context) ([]*entities.User, error)
}

// TaskRepository defines the interface for task record operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByCode(ctx context.Context, code int) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, code int) error
	List(ctx context.Context) ([]*entities.Task, error)
}

// LogRepository defines the interface for the append-only status change log
type LogRepository interface {
	Create(ctx context.Context, entry *entities.LogEntry) error
	List(ctx context.Context) ([]*entities.LogEntry, error)
	ListByTaskCode(ctx context.Context, taskCode int) ([]*entities.LogEntry, error)
	DeleteByTaskCode(ctx context.Context, taskCode int) error
}
