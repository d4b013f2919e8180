package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

const testTasks = `Code,Name,Status,Rep_User_Code
1,Write docs,2,1
2,Review code,1,2
3,Deploy,0,3
`

func TestTaskRepository_CreateOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	repo, path := newTestTaskRepo(t, dir, "")
	ctx := context.Background()

	if err := repo.Create(ctx, &entities.Task{Code: 5, Name: "X", RepUserCode: 1}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := []string{tasksHeader, "5,X,0,1"}
	if got := readLines(t, path); !reflect.DeepEqual(got, want) {
		t.Fatalf("file = %q, want %q", got, want)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected only users.csv and tasks.csv, got %d entries", len(entries))
	}
}

func TestTaskRepository_RoundTrip(t *testing.T) {
	repo, _ := newTestTaskRepo(t, t.TempDir(), "")
	ctx := context.Background()

	created := []*entities.Task{
		{Code: 10, Name: "First", Status: entities.TaskStatusUnstarted, RepUserCode: 1},
		{Code: 11, Name: "Second", Status: entities.TaskStatusInProgress, RepUserCode: 2},
		{Code: 12, Name: "Third", Status: entities.TaskStatusDone, RepUserCode: 3},
		{Code: 13, Name: "Orphan", Status: entities.TaskStatusUnstarted, RepUserCode: 42},
	}
	for _, task := range created {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("Create %d: %v", task.Code, err)
		}
	}

	loaded, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(loaded) != len(created) {
		t.Fatalf("loaded %d tasks, want %d", len(loaded), len(created))
	}
	for i, got := range loaded {
		want := created[i]
		if got.Code != want.Code || got.Name != want.Name || got.Status != want.Status || got.RepUserCode != want.RepUserCode {
			t.Fatalf("task %d = %+v, want %+v", i, got, want)
		}
	}

	if loaded[1].RepUser == nil || loaded[1].RepUser.Name != "Tanaka" {
		t.Fatalf("owner not resolved: %+v", loaded[1].RepUser)
	}
	if loaded[3].RepUser != nil {
		t.Fatalf("expected absent owner for unknown user code, got %+v", loaded[3].RepUser)
	}
}

func TestTaskRepository_UpdateKeepsPosition(t *testing.T) {
	repo, path := newTestTaskRepo(t, t.TempDir(), testTasks)
	ctx := context.Background()

	if err := repo.Update(ctx, &entities.Task{Code: 2, Name: "Review code", Status: entities.TaskStatusDone, RepUserCode: 2}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := []string{tasksHeader, "1,Write docs,2,1", "2,Review code,2,2", "3,Deploy,0,3"}
	if got := readLines(t, path); !reflect.DeepEqual(got, want) {
		t.Fatalf("file = %q, want %q", got, want)
	}
}

func TestTaskRepository_UpdateUnknownCode(t *testing.T) {
	repo, path := newTestTaskRepo(t, t.TempDir(), testTasks)
	before := readLines(t, path)

	err := repo.Update(context.Background(), &entities.Task{Code: 9, Name: "Ghost", RepUserCode: 1})
	if !errors.Is(err, entities.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if got := readLines(t, path); !reflect.DeepEqual(got, before) {
		t.Fatalf("file changed: %q", got)
	}
}

func TestTaskRepository_GetByCodeLastMatchWins(t *testing.T) {
	repo, _ := newTestTaskRepo(t, t.TempDir(), testTasks+"2,Review again,0,3\n")
	ctx := context.Background()

	task, err := repo.GetByCode(ctx, 2)
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if task.Name != "Review again" || task.RepUser == nil || task.RepUser.Code != 3 {
		t.Fatalf("unexpected task %+v", task)
	}

	if _, err := repo.GetByCode(ctx, 77); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskRepository_CreateDoesNotTruncateMalformedFile(t *testing.T) {
	malformed := tasksHeader + "\n1,Write docs,started,1\n"
	repo, path := newTestTaskRepo(t, t.TempDir(), malformed)

	err := repo.Create(context.Background(), &entities.Task{Code: 2, Name: "New", RepUserCode: 1})
	if !ports.IsStorageError(err) {
		t.Fatalf("expected storage error, got %v", err)
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("ReadFile: %v", readErr)
	}
	if string(data) != malformed {
		t.Fatalf("file rewritten after failed read: %q", data)
	}
}

func TestTaskRepository_MissingUserFileLeavesOwnersAbsent(t *testing.T) {
	dir := t.TempDir()
	tasksPath := writeFile(t, dir, "tasks.csv", testTasks)
	users := NewUserRepository(FileConfig{Path: filepath.Join(dir, "missing-users.csv")})
	repo := NewTaskRepository(FileConfig{Path: tasksPath}, users, logger.NewNop())

	tasks, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.RepUser != nil {
			t.Fatalf("expected absent owner, got %+v", task.RepUser)
		}
	}
}

func TestTaskRepository_CanceledContext(t *testing.T) {
	repo, path := newTestTaskRepo(t, t.TempDir(), testTasks)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.List(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := repo.Create(ctx, &entities.Task{Code: 4, Name: "Late", RepUserCode: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := readLines(t, path); len(got) != 4 {
		t.Fatalf("file changed under canceled context: %q", got)
	}
}

func TestTaskRepository_DeleteUnsupported(t *testing.T) {
	repo, path := newTestTaskRepo(t, t.TempDir(), testTasks)

	err := repo.Delete(context.Background(), 1)
	if !errors.Is(err, entities.ErrOperationNotSupported) || !errors.Is(err, errors.ErrUnsupported) {
		t.Fatalf("expected ErrOperationNotSupported, got %v", err)
	}
	if got := readLines(t, path); len(got) != 4 {
		t.Fatalf("file changed: %q", got)
	}
}

func TestTaskRepository_LongRecordLine(t *testing.T) {
	name := strings.Repeat("a", 200*1024)
	repo, path := newTestTaskRepo(t, t.TempDir(), testTasks+"4,"+name+",0,1\n")
	ctx := context.Background()

	task, err := repo.GetByCode(ctx, 4)
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if task.Name != name {
		t.Fatalf("name length = %d, want %d", len(task.Name), len(name))
	}

	if err := repo.Update(ctx, &entities.Task{Code: 4, Name: name, Status: entities.TaskStatusInProgress, RepUserCode: 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got := readLines(t, path)
	if len(got) != 5 || got[4] != "4,"+name+",1,1" {
		t.Fatalf("unexpected rewrite of long record")
	}
}
