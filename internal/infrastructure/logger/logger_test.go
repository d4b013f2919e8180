package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/taskmaster/tracker/internal/infrastructure/config"
)

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LoggerConfig{Level: "chatty", Format: "json"})
	if err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.log")
	log, err := New(config.LoggerConfig{Level: "info", Format: "json", Output: "file", Filename: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.WithComponent("test").Infow("hello", "task_code", 5)
	_ = log.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"task_code":5`) || !strings.Contains(string(data), `"component":"test"`) {
		t.Fatalf("unexpected log output: %s", data)
	}
}

func TestLogStorageFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core).WithSessionID("abc")

	log.LogStorageFailure("tasks.list", errors.New("disk gone"))

	entries := logs.FilterMessage("Record file operation failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["op"] != "tasks.list" || fields["error"] != "disk gone" || fields["session_id"] != "abc" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %v", entries[0].Level)
	}
}

func TestLogSecurityEvent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	NewWithCore(core).LogSecurityEvent("login_failed", "a@example.com", map[string]interface{}{"reason": "no match"})

	entries := logs.FilterField(zapcore.Field{Key: "security_event", Type: zapcore.StringType, String: "login_failed"}).All()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected one warn entry, got %v", entries)
	}
}

func TestLogUserAction(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	NewWithCore(core).LogUserAction(2, "task_created", map[string]interface{}{"task_code": 5})

	entries := logs.FilterMessage("User action").All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["user_code"] != int64(2) || fields["action"] != "task_created" || fields["task_code"] != int64(5) {
		t.Fatalf("unexpected fields: %v", fields)
	}
}
