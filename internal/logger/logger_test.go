package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

// resetLogger resets the logger to default state for test isolation
func resetLogger() {
	Init(Options{})
}

// --- Level Tests ---

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		logged    []string
		notLogged []string
	}{
		{
			name:      "default_info",
			logged:    []string{"info-msg", "warn-msg", "error-msg"},
			notLogged: []string{"debug-msg"},
		},
		{
			name:   "debug",
			opts:   Options{Debug: true},
			logged: []string{"debug-msg", "info-msg", "warn-msg", "error-msg"},
		},
		{
			name:      "quiet",
			opts:      Options{Quiet: true},
			logged:    []string{"error-msg"},
			notLogged: []string{"debug-msg", "info-msg", "warn-msg"},
		},
		{
			name:      "quiet_overrides_debug",
			opts:      Options{Debug: true, Quiet: true},
			logged:    []string{"error-msg"},
			notLogged: []string{"debug-msg", "info-msg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			opts := tt.opts
			opts.Output = buf
			Init(opts)
			defer resetLogger()

			Debug("debug-msg")
			Info("info-msg")
			Warn("warn-msg")
			Error("error-msg")

			out := buf.String()
			for _, m := range tt.logged {
				if !strings.Contains(out, m) {
					t.Errorf("expected %q to be logged, output: %s", m, out)
				}
			}
			for _, m := range tt.notLogged {
				if strings.Contains(out, m) {
					t.Errorf("expected %q not to be logged, output: %s", m, out)
				}
			}
		})
	}
}

// --- Format Tests ---

func TestInit_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	Info("fetch complete", "url", "https://example.com")

	out := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected JSON output, got %s", out)
	}
	if !strings.Contains(out, `"msg":"fetch complete"`) {
		t.Errorf("expected msg field, got %s", out)
	}
}

func TestInit_CustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	custom := slog.New(slog.NewTextHandler(buf, nil))
	Init(Options{Logger: custom, Quiet: true})
	defer resetLogger()

	Info("from custom")
	if !strings.Contains(buf.String(), "from custom") {
		t.Error("custom logger should ignore Quiet and log at its own level")
	}
}

// --- Attribute Tests ---

func TestComponent_TagsStage(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Component("reconcile").Info("rows kept", "count", 20)

	out := buf.String()
	for _, want := range []string{"component=reconcile", "rows kept", "count=20"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %s", want, out)
		}
	}
}

func TestWith_ReturnsLoggerWithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	With("domain", "standings").Warn("fallback used")

	out := buf.String()
	if !strings.Contains(out, "domain=standings") {
		t.Errorf("expected attribute in output: %s", out)
	}
}

// --- Context Tests ---

func TestContextVariants(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Debug: true, Output: buf})
	defer resetLogger()

	ctx := context.Background()
	DebugContext(ctx, "debug ctx")
	InfoContext(ctx, "info ctx")
	WarnContext(ctx, "warn ctx")
	ErrorContext(ctx, "error ctx")

	for _, want := range []string{"debug ctx", "info ctx", "warn ctx", "error ctx"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestEnabled(t *testing.T) {
	Init(Options{Output: &bytes.Buffer{}})
	defer resetLogger()

	ctx := context.Background()
	if Enabled(ctx, slog.LevelDebug) {
		t.Error("debug should be disabled at default level")
	}
	if !Enabled(ctx, slog.LevelWarn) {
		t.Error("warn should be enabled at default level")
	}
}
