package repository

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taskmaster/tracker/internal/infrastructure/metrics"
	"github.com/taskmaster/tracker/internal/ports"
)

// Record file headers
const (
	usersHeader = "Code,Name,Email,Password"
	tasksHeader = "Code,Name,Status,Rep_User_Code"
	logsHeader  = "Task_Code,Change_User_Code,Status,Change_Date"
)

// FileConfig configures the record file owned by one repository
type FileConfig struct {
	Path         string
	AtomicWrites bool
	Metrics      *metrics.Metrics
}

// maxRecordLine bounds a single line, header included
const maxRecordLine = 16 << 20

// record is one data line of a record file
type record struct {
	line   int
	fields []string
}

func (r record) int(i int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(r.fields[i]))
	if err != nil {
		return 0, &ports.ParseError{Line: r.line, Err: err}
	}
	return v, nil
}

type recordFile struct {
	store   string
	header  string
	fields  int
	path    string
	atomic  bool
	metrics *metrics.Metrics
}

func newRecordFile(store, header string, fields int, cfg FileConfig) *recordFile {
	return &recordFile{
		store:   store,
		header:  header,
		fields:  fields,
		path:    cfg.Path,
		atomic:  cfg.AtomicWrites,
		metrics: cfg.Metrics,
	}
}

func (f *recordFile) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ports.StorageError{Store: f.store, Op: op, Path: f.path, Err: err}
}

// observe counts a public repository operation
func (f *recordFile) observe(op string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	if !ports.IsStorageError(err) {
		err = nil
	}
	f.metrics.StoreOperation(f.store, op, err)
}

// read returns every data record. The first line is the header and is
// skipped without inspection; blank lines are ignored.
func (f *recordFile) read(ctx context.Context, op string) ([]record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, f.wrap(op, err)
	}
	defer file.Close()

	var records []record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordLine)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < f.fields {
			return nil, f.wrap(op, &ports.ParseError{
				Line: lineNo,
				Err:  fmt.Errorf("expected %d fields, got %d", f.fields, len(fields)),
			})
		}
		records = append(records, record{line: lineNo, fields: fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, f.wrap(op, err)
	}

	return records, nil
}

// readForRewrite is read, except that a missing file is an empty collection
func (f *recordFile) readForRewrite(ctx context.Context, op string) ([]record, error) {
	records, err := f.read(ctx, op)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return records, err
}

// write replaces the whole file with the header followed by lines
func (f *recordFile) write(ctx context.Context, op string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(f.header)
	buf.WriteByte('\n')
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	if f.atomic {
		return f.wrap(op, writeFileAtomic(f.path, buf.Bytes(), 0o644))
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return f.wrap(op, err)
	}
	return f.wrap(op, os.WriteFile(f.path, buf.Bytes(), 0o644))
}

// writeFileAtomic writes to a temp file in the same directory, syncs it and
// renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
