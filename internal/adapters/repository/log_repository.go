package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/ports"
)

// LogRepositoryImpl implements the LogRepository interface
type LogRepositoryImpl struct {
	file *recordFile
	now  func() time.Time
}

// NewLogRepository creates a new log repository. now defaults to time.Now.
func NewLogRepository(cfg FileConfig, now func() time.Time) ports.LogRepository {
	if now == nil {
		now = time.Now
	}
	return &LogRepositoryImpl{
		file: newRecordFile("logs", logsHeader, 3, cfg),
		now:  now,
	}
}

// today is the date stamped on every loaded entry. The persisted change
// date is not read back.
func (r *LogRepositoryImpl) today() time.Time {
	t := r.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (r *LogRepositoryImpl) load(records []record, op string) ([]*entities.LogEntry, error) {
	date := r.today()
	entries := make([]*entities.LogEntry, 0, len(records))
	for _, rec := range records {
		taskCode, err := rec.int(0)
		if err != nil {
			return nil, r.file.wrap(op, err)
		}
		userCode, err := rec.int(1)
		if err != nil {
			return nil, r.file.wrap(op, err)
		}
		status, err := rec.int(2)
		if err != nil {
			return nil, r.file.wrap(op, err)
		}
		entries = append(entries, &entities.LogEntry{
			TaskCode:       taskCode,
			ChangeUserCode: userCode,
			Status:         entities.TaskStatus(status),
			ChangeDate:     date,
		})
	}
	return entries, nil
}

// List returns every entry in file order
func (r *LogRepositoryImpl) List(ctx context.Context) (entries []*entities.LogEntry, err error) {
	defer func() { r.file.observe("list", err) }()

	records, err := r.file.read(ctx, "list")
	if err != nil {
		return nil, err
	}
	return r.load(records, "list")
}

// ListByTaskCode returns the entries of one task in file order
func (r *LogRepositoryImpl) ListByTaskCode(ctx context.Context, taskCode int) (entries []*entities.LogEntry, err error) {
	defer func() { r.file.observe("list_by_task_code", err) }()

	records, err := r.file.read(ctx, "list_by_task_code")
	if err != nil {
		return nil, err
	}
	all, err := r.load(records, "list_by_task_code")
	if err != nil {
		return nil, err
	}

	for _, e := range all {
		if e.TaskCode == taskCode {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Create appends entry. Existing entries are rewritten as loaded, so every
// earlier change date becomes today's date.
func (r *LogRepositoryImpl) Create(ctx context.Context, entry *entities.LogEntry) (err error) {
	defer func() { r.file.observe("create", err) }()

	records, err := r.file.readForRewrite(ctx, "create")
	if err != nil {
		return err
	}
	entries, err := r.load(records, "create")
	if err != nil {
		return err
	}

	lines := make([]string, 0, len(entries)+1)
	for _, e := range append(entries, entry) {
		lines = append(lines, formatLogEntry(e))
	}

	return r.file.write(ctx, "create", lines)
}

// DeleteByTaskCode is not supported
func (r *LogRepositoryImpl) DeleteByTaskCode(ctx context.Context, taskCode int) error {
	return entities.ErrOperationNotSupported
}

func formatLogEntry(e *entities.LogEntry) string {
	return fmt.Sprintf("%d,%d,%d,%s", e.TaskCode, e.ChangeUserCode, int(e.Status), e.ChangeDate.Format(entities.DateLayout))
}
