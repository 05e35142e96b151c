package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		debug  bool
	}{
		{"debug level text", &Config{Level: "debug", Format: "text"}, true},
		{"info level json", &Config{Level: "info", Format: "json"}, false},
		{"warn level text", &Config{Level: "warn", Format: "text"}, false},
		{"default level", &Config{Level: "invalid", Format: "text"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.config.Output = &buf
			Init(tt.config)

			slog.Debug("debug line")
			if got := strings.Contains(buf.String(), "debug line"); got != tt.debug {
				t.Errorf("Expected debug output %v, got %v", tt.debug, got)
			}
		})
	}
}

func TestWithContextCarriesKeys(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "info", Format: "json", Output: &buf})

	ctx := context.Background()
	ctx = With(ctx, RequestIDKey, "req-123")
	ctx = With(ctx, TenantKey, "acme")
	ctx = With(ctx, PacketIDKey, "pk-9")
	ctx = With(ctx, UsernameKey, "")

	Info(ctx, "document generated")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("Failed to parse log line: %v", err)
	}
	if line["request_id"] != "req-123" {
		t.Errorf("Expected request_id req-123, got %v", line["request_id"])
	}
	if line["tenant"] != "acme" {
		t.Errorf("Expected tenant acme, got %v", line["tenant"])
	}
	if line["packet_id"] != "pk-9" {
		t.Errorf("Expected packet_id pk-9, got %v", line["packet_id"])
	}
	if _, ok := line["username"]; ok {
		t.Error("Expected empty username to be omitted")
	}
}

func TestLogFunctions(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")

	tests := []struct {
		log func(context.Context, string, ...any)
		msg string
	}{
		{Info, "info message"},
		{Debug, "debug message"},
		{Warn, "warn message"},
		{Error, "error message"},
	}
	for _, tt := range tests {
		buf.Reset()
		tt.log(ctx, tt.msg)
		if !strings.Contains(buf.String(), tt.msg) {
			t.Errorf("Expected %q in log", tt.msg)
		}
		if !strings.Contains(buf.String(), "request_id=req-123") {
			t.Errorf("Expected request_id in %q", buf.String())
		}
	}
}
