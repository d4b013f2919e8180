package entities

import (
	"errors"
	"fmt"
	"time"
)

// Common errors
var (
	ErrTaskNotFound          = errors.New("task not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrOperationNotSupported = fmt.Errorf("operation not supported: %w", errors.ErrUnsupported)
)

// DateLayout is the calendar date format of log entries
const DateLayout = "2006-01-02"

// Validation messages shown to the user
const (
	MsgUnknownUser       = "user code must refer to an existing user"
	MsgUnknownTask       = "task code must refer to an existing task"
	MsgInvalidTransition = "new status must be exactly one step ahead of current status"
)

// ValidationError is a recoverable domain error carrying a message meant for
// the person at the keyboard.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type TaskStatus int

const (
	TaskStatusUnstarted  TaskStatus = 0
	TaskStatusInProgress TaskStatus = 1
	TaskStatusDone       TaskStatus = 2
)

// User represents a user loaded from the user record file. Passwords are
// stored in plaintext unless the file holds a bcrypt hash.
type User struct {
	Code     int    `json:"code"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// Task represents a task record. RepUserCode is the persisted reference;
// RepUser is resolved at load time and is nil when the user no longer exists.
type Task struct {
	Code        int        `json:"code"`
	Name        string     `json:"name"`
	Status      TaskStatus `json:"status"`
	RepUserCode int        `json:"rep_user_code"`
	RepUser     *User      `json:"rep_user,omitempty"`
}

// LogEntry is an audit record of a task creation or status change
type LogEntry struct {
	TaskCode       int        `json:"task_code"`
	ChangeUserCode int        `json:"change_user_code"`
	Status         TaskStatus `json:"status"`
	ChangeDate     time.Time  `json:"change_date"`
}

// NewTask creates an unstarted task owned by user
func NewTask(code int, name string, user *User) *Task {
	return &Task{
		Code:        code,
		Name:        name,
		Status:      TaskStatusUnstarted,
		RepUserCode: user.Code,
		RepUser:     user,
	}
}

// Business logic methods for Task
func (t *Task) IsOwnedBy(user *User) bool {
	return user != nil && t.RepUserCode == user.Code
}

// AdvanceTo moves the task to next. Only a single forward step is allowed.
func (t *Task) AdvanceTo(next TaskStatus) error {
	if !t.Status.CanAdvanceTo(next) {
		return ErrInvalidStatus
	}
	t.Status = next
	return nil
}

// CanAdvanceTo reports whether next is exactly one step after ts
func (ts TaskStatus) CanAdvanceTo(next TaskStatus) bool {
	switch ts {
	case TaskStatusUnstarted:
		return next == TaskStatusInProgress
	case TaskStatusInProgress:
		return next == TaskStatusDone
	default:
		return false
	}
}

func (ts TaskStatus) Label() string {
	switch ts {
	case TaskStatusUnstarted:
		return "not started"
	case TaskStatusInProgress:
		return "in progress"
	case TaskStatusDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(ts))
	}
}

func (ts TaskStatus) String() string {
	return ts.Label()
}
