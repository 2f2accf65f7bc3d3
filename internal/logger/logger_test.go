package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/fd1az/counter-dapp/internal/logger"
)

func TestLogger_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelInfo, "counter-dapp", func(context.Context) string {
		return "abc123"
	})

	log.Info(context.Background(), "counter read", "count", 5)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}

	if line["msg"] != "counter read" {
		t.Errorf("expected msg 'counter read', got %v", line["msg"])
	}
	if line["service"] != "counter-dapp" {
		t.Errorf("expected service attr, got %v", line["service"])
	}
	if line["trace_id"] != "abc123" {
		t.Errorf("expected trace_id abc123, got %v", line["trace_id"])
	}
	if line["count"] != float64(5) {
		t.Errorf("expected count 5, got %v", line["count"])
	}
}

func TestLogger_RespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelWarn, "svc", nil)

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "hidden")

	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}

	log.Error(context.Background(), "shown")
	if buf.Len() == 0 {
		t.Error("expected error line to be written")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]logger.Level{
		"debug":   logger.LevelDebug,
		"warn":    logger.LevelWarn,
		"error":   logger.LevelError,
		"info":    logger.LevelInfo,
		"verbose": logger.LevelInfo,
	}

	for in, want := range tests {
		if got := logger.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
