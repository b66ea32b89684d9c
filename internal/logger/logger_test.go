package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarning, false},
		{"warning", LevelWarning, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_Filtering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarning)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warning("warning %d", 3)
	l.Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("entries below the level were written:\n%s", out)
	}
	if !strings.Contains(out, "WARNING ") || !strings.Contains(out, "warning 3") {
		t.Errorf("warning entry missing:\n%s", out)
	}
	if !strings.Contains(out, "ERROR   ") || !strings.Contains(out, "error 4") {
		t.Errorf("error entry missing:\n%s", out)
	}
	if !strings.Contains(out, "logger_test.go:") {
		t.Errorf("entries should carry the caller's file:\n%s", out)
	}
}

func TestLogger_NilAndDiscard(t *testing.T) {
	var l *Logger
	// Should not panic
	l.Info("ignored")

	Discard().Error("ignored")
}
