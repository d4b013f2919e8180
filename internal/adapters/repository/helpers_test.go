package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

const testUsers = `Code,Name,Email,Password
1,Suzuki,suzuki@example.com,pass1
2,Tanaka,tanaka@example.com,pass2
3,Sato,sato@example.com,pass3
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", name, err)
	}
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func newTestTaskRepo(t *testing.T, dir, tasks string) (ports.TaskRepository, string) {
	t.Helper()
	usersPath := writeFile(t, dir, "users.csv", testUsers)
	tasksPath := filepath.Join(dir, "tasks.csv")
	if tasks != "" {
		writeFile(t, dir, "tasks.csv", tasks)
	}
	users := NewUserRepository(FileConfig{Path: usersPath})
	return NewTaskRepository(FileConfig{Path: tasksPath, AtomicWrites: true}, users, logger.NewNop()), tasksPath
}
