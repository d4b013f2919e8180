package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

// TaskRepositoryImpl implements the TaskRepository interface. Every write
// loads the whole file and writes it back.
type TaskRepositoryImpl struct {
	file   *recordFile
	users  ports.UserRepository
	logger *logger.Logger
}

// NewTaskRepository creates a new task repository resolving owners through users
func NewTaskRepository(cfg FileConfig, users ports.UserRepository, log *logger.Logger) ports.TaskRepository {
	return &TaskRepositoryImpl{
		file:   newRecordFile("tasks", tasksHeader, 4, cfg),
		users:  users,
		logger: log.WithComponent("task_repository"),
	}
}

// loadRaw parses the task records without resolving owners
func (r *TaskRepositoryImpl) loadRaw(records []record, op string) ([]*entities.Task, error) {
	tasks := make([]*entities.Task, 0, len(records))
	for _, rec := range records {
		code, err := rec.int(0)
		if err != nil {
			return nil, r.file.wrap(op, err)
		}
		status, err := rec.int(2)
		if err != nil {
			return nil, r.file.wrap(op, err)
		}
		repUserCode, err := rec.int(3)
		if err != nil {
			return nil, r.file.wrap(op, err)
		}
		tasks = append(tasks, &entities.Task{
			Code:        code,
			Name:        rec.fields[1],
			Status:      entities.TaskStatus(status),
			RepUserCode: repUserCode,
		})
	}
	return tasks, nil
}

// resolveOwners fills RepUser from a single read of the user file. An
// owner that cannot be resolved stays nil.
func (r *TaskRepositoryImpl) resolveOwners(ctx context.Context, tasks []*entities.Task) {
	if len(tasks) == 0 {
		return
	}

	users, err := r.users.List(ctx)
	if err != nil {
		r.logger.Warnw("Failed to resolve task owners", "error", err)
		return
	}

	byCode := make(map[int]*entities.User, len(users))
	for _, u := range users {
		byCode[u.Code] = u
	}
	for _, t := range tasks {
		t.RepUser = byCode[t.RepUserCode]
	}
}

// List returns every task in file order
func (r *TaskRepositoryImpl) List(ctx context.Context) (tasks []*entities.Task, err error) {
	defer func() { r.file.observe("list", err) }()

	records, err := r.file.read(ctx, "list")
	if err != nil {
		return nil, err
	}
	tasks, err = r.loadRaw(records, "list")
	if err != nil {
		return nil, err
	}

	r.resolveOwners(ctx, tasks)
	return tasks, nil
}

// GetByCode returns the last task whose code matches
func (r *TaskRepositoryImpl) GetByCode(ctx context.Context, code int) (task *entities.Task, err error) {
	defer func() { r.file.observe("get_by_code", err) }()

	records, err := r.file.read(ctx, "get_by_code")
	if err != nil {
		return nil, err
	}
	tasks, err := r.loadRaw(records, "get_by_code")
	if err != nil {
		return nil, err
	}

	for _, t := range tasks {
		if t.Code == code {
			task = t
		}
	}
	if task == nil {
		return nil, entities.ErrTaskNotFound
	}

	owner, err := r.users.GetByCode(ctx, task.RepUserCode)
	switch {
	case err == nil:
		task.RepUser = owner
	case errors.Is(err, entities.ErrUserNotFound):
	default:
		r.logger.Warnw("Failed to resolve task owner", "task_code", task.Code, "error", err)
	}

	return task, nil
}

// Create appends task after every stored task
func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) (err error) {
	defer func() { r.file.observe("create", err) }()

	records, err := r.file.readForRewrite(ctx, "create")
	if err != nil {
		return err
	}
	tasks, err := r.loadRaw(records, "create")
	if err != nil {
		return err
	}

	lines := make([]string, 0, len(tasks)+1)
	for _, t := range tasks {
		lines = append(lines, formatTask(t))
	}
	lines = append(lines, formatTask(task))

	return r.file.write(ctx, "create", lines)
}

// Update replaces every stored task whose code matches task.Code, keeping
// its position.
func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) (err error) {
	defer func() { r.file.observe("update", err) }()

	records, err := r.file.read(ctx, "update")
	if err != nil {
		return err
	}
	tasks, err := r.loadRaw(records, "update")
	if err != nil {
		return err
	}

	found := false
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t.Code == task.Code {
			found = true
			lines = append(lines, formatTask(task))
			continue
		}
		lines = append(lines, formatTask(t))
	}
	if !found {
		return entities.ErrTaskNotFound
	}

	return r.file.write(ctx, "update", lines)
}

// Delete is not supported
func (r *TaskRepositoryImpl) Delete(ctx context.Context, code int) error {
	return entities.ErrOperationNotSupported
}

func formatTask(t *entities.Task) string {
	return fmt.Sprintf("%d,%s,%d,%d", t.Code, t.Name, int(t.Status), t.RepUserCode)
}
