package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf, false)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept", "functions", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %q", buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record["msg"] != "kept" || record["functions"] != float64(3) {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestNewLoggerVerboseText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LoggingConfig{Level: "error", Format: "text"}.NewLogger(&buf, true)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("expression parsed", "source", "1 + 2")
	if !strings.Contains(buf.String(), `msg="expression parsed"`) {
		t.Fatalf("expected debug text record, got %q", buf.String())
	}
}

func TestNewLoggerRejectsUnknownValues(t *testing.T) {
	if _, err := (LoggingConfig{Level: "loud"}).NewLogger(nil, false); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := (LoggingConfig{Format: "xml"}).NewLogger(nil, false); err == nil {
		t.Fatalf("expected format error")
	}
}
