package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", input: "DEBUG", want: slog.LevelDebug},
		{name: "info", input: "INFO", want: slog.LevelInfo},
		{name: "warning", input: "WARNING", want: slog.LevelWarn},
		{name: "error", input: "ERROR", want: slog.LevelError},
		{name: "critical", input: "CRITICAL", want: LevelCritical},
		{name: "lower case", input: "info", want: slog.LevelInfo},
		{name: "unknown", input: "VERBOSE", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelName(t *testing.T) {
	for name, level := range levelNames {
		if got := LevelName(level); got != name {
			t.Errorf("LevelName(%v) = %q, want %q", level, got, name)
		}
	}
}

func TestConsoleHandler(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	logger := New(&buf, Options{Level: slog.LevelInfo, Console: true})

	Named(logger, "sheetsync.extractor").Info("Extracting data", "sheet", "42")
	logger.Debug("hidden")
	Named(logger, "sheetsync.job").Log(context.Background(), LevelCritical, "Sync failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}

	if want := "[INFO    ] sheetsync.extractor:  Extracting data sheet=42"; lines[0] != want {
		t.Errorf("line 0 = %q, want %q", lines[0], want)
	}
	if want := "[CRITICAL] sheetsync.job:  Sync failed"; lines[1] != want {
		t.Errorf("line 1 = %q, want %q", lines[1], want)
	}
}

func TestJSONHandlerLevelNames(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: slog.LevelWarn})

	logger.Warn("careful")
	logger.Log(context.Background(), LevelCritical, "boom")

	dec := json.NewDecoder(&buf)
	for _, want := range []string{"WARNING", "CRITICAL"} {
		var entry map[string]interface{}
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if entry["level"] != want {
			t.Errorf("level = %v, want %v", entry["level"], want)
		}
	}
}
