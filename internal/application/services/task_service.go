package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

// TaskService handles task-related operations
type TaskService struct {
	taskRepo ports.TaskRepository
	logRepo  ports.LogRepository
	userRepo ports.UserRepository
	validate *validator.Validate
	opts     Options
	logger   *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, logRepo ports.LogRepository, userRepo ports.UserRepository, logger *logger.Logger, opts Options) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		logRepo:  logRepo,
		userRepo: userRepo,
		validate: NewValidator(),
		opts:     opts.withDefaults(),
		logger:   logger.WithComponent("task_service"),
	}
}

// ListAll returns every stored task as seen by currentUser. A task file that
// cannot be read yields an empty list.
func (s *TaskService) ListAll(ctx context.Context, currentUser *entities.User) ([]ports.TaskView, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		if err := degrade(s.logger, s.opts.Strict, "tasks.list", err); err != nil {
			return nil, err
		}
		return []ports.TaskView{}, nil
	}

	views := make([]ports.TaskView, 0, len(tasks))
	for _, t := range tasks {
		view := ports.TaskView{
			Code:         t.Code,
			Name:         t.Name,
			Status:       t.Status,
			StatusLabel:  t.Status.Label(),
			AssigneeCode: t.RepUserCode,
		}
		if t.IsOwnedBy(currentUser) {
			view.AssignedToYou = true
		} else if t.RepUser != nil {
			view.AssigneeName = t.RepUser.Name
		}
		views = append(views, view)
	}

	return views, nil
}

// Create stores a new unstarted task and logs its creation. Task codes are
// not checked for uniqueness.
func (s *TaskService) Create(ctx context.Context, req ports.CreateTaskRequest, currentUser *entities.User) error {
	if currentUser == nil {
		return entities.ErrUnauthorized
	}
	if err := validateRequest(s.validate, s.opts.Metrics, req); err != nil {
		return err
	}

	owner, err := s.userRepo.GetByCode(ctx, req.RepUserCode)
	if err != nil {
		if !errors.Is(err, entities.ErrUserNotFound) {
			if err := degrade(s.logger, s.opts.Strict, "users.get_by_code", err); err != nil {
				return err
			}
		}
		s.opts.Metrics.ValidationFailure("rep_user_code")
		return entities.NewValidationError("rep_user_code", entities.MsgUnknownUser)
	}

	task := entities.NewTask(req.Code, req.Name, owner)
	if err := s.taskRepo.Create(ctx, task); err != nil {
		if err := degrade(s.logger, s.opts.Strict, "tasks.create", err); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
	}

	entry := &entities.LogEntry{
		TaskCode:       req.Code,
		ChangeUserCode: req.RepUserCode,
		Status:         entities.TaskStatusUnstarted,
		ChangeDate:     s.opts.Now(),
	}
	if err := s.logRepo.Create(ctx, entry); err != nil {
		if err := degrade(s.logger, s.opts.Strict, "logs.create", err); err != nil {
			return fmt.Errorf("failed to log task creation: %w", err)
		}
	}

	s.logger.LogUserAction(currentUser.Code, "task_created", map[string]interface{}{
		"task_code":     req.Code,
		"rep_user_code": req.RepUserCode,
	})

	return nil
}

// ChangeStatus advances a task by exactly one status step and logs the change
// under currentUser.
func (s *TaskService) ChangeStatus(ctx context.Context, req ports.ChangeStatusRequest, currentUser *entities.User) error {
	if currentUser == nil {
		return entities.ErrUnauthorized
	}
	if err := validateRequest(s.validate, s.opts.Metrics, req); err != nil {
		return err
	}

	task, err := s.taskRepo.GetByCode(ctx, req.Code)
	if err != nil {
		if !errors.Is(err, entities.ErrTaskNotFound) {
			if err := degrade(s.logger, s.opts.Strict, "tasks.get_by_code", err); err != nil {
				return err
			}
		}
		s.opts.Metrics.ValidationFailure("code")
		return entities.NewValidationError("code", entities.MsgUnknownTask)
	}

	from := task.Status
	if err := task.AdvanceTo(req.Status); err != nil {
		s.opts.Metrics.ValidationFailure("status")
		return entities.NewValidationError("status", entities.MsgInvalidTransition)
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if err := degrade(s.logger, s.opts.Strict, "tasks.update", err); err != nil {
			return fmt.Errorf("failed to update task status: %w", err)
		}
	}

	entry := &entities.LogEntry{
		TaskCode:       req.Code,
		ChangeUserCode: currentUser.Code,
		Status:         req.Status,
		ChangeDate:     s.opts.Now(),
	}
	if err := s.logRepo.Create(ctx, entry); err != nil {
		if err := degrade(s.logger, s.opts.Strict, "logs.create", err); err != nil {
			return fmt.Errorf("failed to log status change: %w", err)
		}
	}

	s.opts.Metrics.StatusTransition(from, req.Status)
	s.logger.LogUserAction(currentUser.Code, "task_status_changed", map[string]interface{}{
		"task_code": req.Code,
		"from":      int(from),
		"to":        int(req.Status),
	})

	return nil
}

// History returns the logged changes of one task in the order they were
// recorded
func (s *TaskService) History(ctx context.Context, code int) ([]*entities.LogEntry, error) {
	entries, err := s.logRepo.ListByTaskCode(ctx, code)
	if err != nil {
		if err := degrade(s.logger, s.opts.Strict, "logs.list_by_task_code", err); err != nil {
			return nil, err
		}
		return []*entities.LogEntry{}, nil
	}
	return entries, nil
}

// Delete is not supported
func (s *TaskService) Delete(ctx context.Context, code int) error {
	return entities.ErrOperationNotSupported
}
