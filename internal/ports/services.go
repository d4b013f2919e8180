package ports

import (
	"context"

	"github.com/taskmaster/tracker/internal/domain/entities"
)

// AuthService interface for authentication operations
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*entities.User, error)
}

// UserService interface for read-only user lookups
type UserService interface {
	ListUsers(ctx context.Context) ([]*entities.User, error)
	GetUser(ctx context.Context, code int) (*entities.User, error)
}

// TaskService interface for task management operations
type TaskService interface {
	ListAll(ctx context.Context, currentUser *entities.User) ([]TaskView, error)
	Create(ctx context.Context, req CreateTaskRequest, currentUser *entities.User) error
	ChangeStatus(ctx context.Context, req ChangeStatusRequest, currentUser *entities.User) error
	History(ctx context.Context, code int) ([]*entities.LogEntry, error)
	Delete(ctx context.Context, code int) error
}

// Request/Response Types

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Names are written unescaped into a comma separated record, so commas and
// line breaks are rejected. Codes and names are otherwise taken as given.
type CreateTaskRequest struct {
	Code        int    `json:"code"`
	Name        string `json:"name" validate:"excludesall=0x2C\r\n"`
	RepUserCode int    `json:"rep_user_code"`
}

type ChangeStatusRequest struct {
	Code   int                 `json:"code"`
	Status entities.TaskStatus `json:"status"`
}

// TaskView is one line of the task listing as seen by the current user
type TaskView struct {
	Code          int                 `json:"code"`
	Name          string              `json:"name"`
	Status        entities.TaskStatus `json:"status"`
	StatusLabel   string              `json:"status_label"`
	AssignedToYou bool                `json:"assigned_to_you"`
	AssigneeCode  int                 `json:"assignee_code"`
	AssigneeName  string              `json:"assignee_name,omitempty"`
}
