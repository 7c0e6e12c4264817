package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/go-logr/logr"
)

// mockLogLevel is zapcore.InfoLevel.
const mockLogLevel int8 = 0

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewWritesJSONWithBuildFields(t *testing.T) {
	var buf bytes.Buffer
	zl, lg := New(Options{Level: mockLogLevel, Output: &buf})
	lg.Info("rendered", "rows", 3)
	_ = zl.Sync()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d log lines; want 1", len(lines))
	}
	entry := lines[0]
	if entry[MessageKey] != "rendered" {
		t.Errorf("message = %v; want rendered", entry[MessageKey])
	}
	for _, key := range []string{TimeStampKey, CommitKey, VersionKey, BuildTimeKey, GoVersionKey} {
		if _, ok := entry[key]; !ok {
			t.Errorf("log line is missing %q", key)
		}
	}
	if entry["rows"] != float64(3) {
		t.Errorf("rows = %v; want 3", entry["rows"])
	}
}

func TestNewHonoursVerbosity(t *testing.T) {
	tests := []struct {
		name  string
		level int8
		want  int
	}{
		{name: "info_drops_v1", level: 0, want: 1},
		{name: "v1_keeps_v1", level: -1, want: 2},
		{name: "v2_keeps_all", level: -2, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			zl, lg := New(Options{Level: tt.level, Output: &buf})
			lg.Info("base")
			lg.V(1).Info("detail")
			lg.V(2).Info("trace")
			_ = zl.Sync()
			if got := len(decodeLines(t, &buf)); got != tt.want {
				t.Errorf("got %d lines; want %d", got, tt.want)
			}
		})
	}
}

func TestGetReturnsSameInstanceOnSubsequentCalls(t *testing.T) {
	logger1 := Get(mockLogLevel)
	logger2 := Setup(Options{Level: -2})
	if logger1 == nil || logger1 != logger2 {
		t.Error("Setup should return the logger built by the first call")
	}
}

func TestWithLoggerAndFromContext(t *testing.T) {
	ctx := context.Background()
	lg := Get(mockLogLevel)

	ctx1 := WithLogger(ctx, lg)
	if FromContext(ctx1) != lg {
		t.Error("FromContext should return the logger stored by WithLogger")
	}
	if WithLogger(ctx1, lg) != ctx1 {
		t.Error("WithLogger should keep the context when the logger is already set")
	}

	other := logr.Discard()
	ctx2 := WithLogger(ctx1, &other)
	if FromContext(ctx2) != &other {
		t.Error("WithLogger should replace a different logger")
	}
	if FromContext(ctx) != GetGlobalLogger() {
		t.Error("FromContext without a logger should fall back to the global logger")
	}
}

func TestFallbacksWithoutGlobalLogger(t *testing.T) {
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	if GetGlobalLogger() != GetNoopLogger() {
		t.Error("GetGlobalLogger should return the no-op logger before Setup")
	}
	if FromContext(context.Background()) != GetNoopLogger() {
		t.Error("FromContext should return the no-op logger before Setup")
	}
	if GetNoopLogger().Enabled() {
		t.Error("no-op logger should not be enabled")
	}
}

func TestSyncDoesNotPanicWithoutLogger(t *testing.T) {
	orig := globalZapLogger
	globalZapLogger = nil
	defer func() { globalZapLogger = orig }()
	Sync()
}

func TestIsIgnorableSyncError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "enotty", err: &os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.ENOTTY}, want: true},
		{name: "einval", err: syscall.EINVAL, want: true},
		{name: "windows_handle", err: errors.New("sync /dev/stderr: The handle is invalid."), want: true},
		{name: "other", err: errors.New("disk full"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isIgnorableSyncError(tt.err); got != tt.want {
				t.Errorf("isIgnorableSyncError(%v) = %v; want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kvgrid.log")
	for i := 0; i < 2; i++ {
		f, err := OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
		zl, lg := New(Options{Output: f})
		lg.Info("line")
		_ = zl.Sync()
		_ = f.Close()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Errorf("log file has %d lines; want 2", got)
	}

	if _, err := OpenFile(filepath.Join(t.TempDir(), "missing", "x.log")); err == nil {
		t.Error("OpenFile should fail for a missing directory")
	}
}

func TestWithValuesReturnsNewLogger(t *testing.T) {
	lg := Get(mockLogLevel)
	if got := WithValues(lg, "grid", "main"); got == nil || got == lg {
		t.Error("WithValues should return a new logger instance")
	}
}
