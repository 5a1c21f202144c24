package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNotesHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		opID    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			opID:    "op-123",
			level:   slog.LevelInfo,
			message: "note created",
			want:    "2024-06-15T14:30:45Z\tINFO\top-123\tnote created\n",
		},
		{
			name:    "debug level",
			opID:    "op-456",
			level:   slog.LevelDebug,
			message: "collection saved",
			want:    "2024-06-15T14:30:45Z\tDEBUG\top-456\tcollection saved\n",
		},
		{
			name:    "with record attrs",
			opID:    "op-789",
			level:   slog.LevelWarn,
			message: "discarding unreadable collection",
			attrs:   []slog.Attr{slog.String("collection", "notes"), slog.Int("bytes", 42)},
			want:    "2024-06-15T14:30:45Z\tWARN\top-789\tdiscarding unreadable collection\tcollection=notes\tbytes=42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &notesHandler{w: &buf, opID: tt.opID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestNotesHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &notesHandler{w: &buf, opID: "op-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "registry")}).(*notesHandler)

	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}

	r := slog.NewRecord(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), slog.LevelInfo, "save", 0)
	r.AddAttrs(slog.String("key", "tags"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{"a=1", "component=registry", "key=tags"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %s", got, want)
		}
	}
}

func TestNotesHandler_Enabled(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Leveler
		want  map[slog.Level]bool
	}{
		{
			name: "no threshold enables everything",
			want: map[slog.Level]bool{slog.LevelDebug: true, slog.LevelInfo: true, slog.LevelWarn: true, slog.LevelError: true},
		},
		{
			name:  "warn threshold",
			level: slog.LevelWarn,
			want:  map[slog.Level]bool{slog.LevelDebug: false, slog.LevelInfo: false, slog.LevelWarn: true, slog.LevelError: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &notesHandler{level: tt.level}
			for level, want := range tt.want {
				if got := h.Enabled(context.Background(), level); got != want {
					t.Errorf("Enabled(%v) = %v, want %v", level, got, want)
				}
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	var stderr bytes.Buffer

	logger, f, err := newLogger(dir, "test-op", &stderr)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Debug("loaded collection", "collection", "notes")
	logger.Warn("persist failed", "collection", "tags")

	data, err := os.ReadFile(filepath.Join(dir, "notes.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	file := string(data)
	if !strings.Contains(file, "loaded collection") || !strings.Contains(file, "persist failed") {
		t.Errorf("log file missing records:\n%s", file)
	}

	if strings.Contains(stderr.String(), "loaded collection") {
		t.Errorf("debug record reached stderr: %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "\tWARN\ttest-op\tpersist failed\tcollection=tags") {
		t.Errorf("warning missing from stderr: %q", stderr.String())
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	a := &slogAdapter{l: slog.New(&notesHandler{w: &buf, opID: "op"})}

	a.Debug("d")
	a.Info("i")
	a.Warn("w")
	a.Error("e", "err", "boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}
	if !strings.HasSuffix(lines[3], "\tERROR\top\te\terr=boom") {
		t.Errorf("last line = %q", lines[3])
	}
}
