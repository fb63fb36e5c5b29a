package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNew(t *testing.T) {
	for _, cfg := range []Config{
		{},
		{Level: "debug", Format: "console", Output: "stderr"},
		{Level: "warn", Development: true},
	} {
		logger, err := New(cfg)
		if err != nil {
			t.Fatalf("New(%+v) failed: %v", cfg, err)
		}
		if logger == nil {
			t.Fatal("expected non-nil logger")
		}
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typecodec.log")
	logger, err := New(Config{Level: "debug", Output: path})
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("value encoded in fallback form")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	for _, want := range []string{`"level":"debug"`, `"msg":"value encoded in fallback form"`, `"service":"typecodec"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %s lacks %s", line, want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{Level: "debug", Format: "console"}).Validate(); err != nil {
		t.Errorf("valid config: %v", err)
	}
	if err := (Config{Level: "loud"}).Validate(); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := (Config{Format: "xml"}).Validate(); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("default logger should not emit debug entries")
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("default logger should emit info entries")
	}
}
