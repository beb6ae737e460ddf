package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DebugLogger is a Sink that appends each record as a JSON line to a
// per-instance file under a directory. Useful when diagnosing routing
// behavior across a pool of instances.
type DebugLogger struct {
	dir string

	mu    sync.Mutex
	files map[string]*os.File
}

// NewDebugLogger creates a debug logger writing under dir.
func NewDebugLogger(dir string) (*DebugLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create debug log directory: %w", err)
	}
	return &DebugLogger{
		dir:   dir,
		files: make(map[string]*os.File),
	}, nil
}

// Record appends the record to its instance's log file.
func (d *DebugLogger) Record(rec *Record) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := d.file(rec.Instance)
	if err != nil {
		return
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return
	}
	f.Write(append(line, '\n'))
}

// Close closes all open log files.
func (d *DebugLogger) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	for _, f := range d.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.files = make(map[string]*os.File)
	return firstErr
}

func (d *DebugLogger) file(instance string) (*os.File, error) {
	name := sanitize(instance)
	if f, ok := d.files[name]; ok {
		return f, nil
	}

	f, err := os.OpenFile(
		filepath.Join(d.dir, name+".jsonl"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
	)
	if err != nil {
		return nil, err
	}
	d.files[name] = f
	return f, nil
}

func sanitize(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
