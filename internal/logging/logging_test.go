package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDebugLogger_EmptyPathIsNoop(t *testing.T) {
	l, err := NewDebugLogger("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Log("nothing %d", 1)
	if err := l.Close(); err != nil {
		t.Errorf("close of no-op logger failed: %v", err)
	}
}

func TestDebugLogger_WritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")
	l, err := NewDebugLogger(path)
	if err != nil {
		t.Fatalf("NewDebugLogger: %v", err)
	}

	SetDefault(l)
	defer SetDefault(nil)
	Debugf("[graph] built %d tasks", 8)

	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[graph] built 8 tasks") {
		t.Errorf("log missing message, got:\n%s", data)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *DebugLogger
	l.Log("ignored")
	if err := l.Close(); err != nil {
		t.Errorf("nil close: %v", err)
	}
}
