package logtail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeSlogFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stockroom.log")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create log: %v", err)
	}
	defer file.Close()

	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	for i := 1; i <= 6; i++ {
		switch i % 3 {
		case 0:
			logger.Warn(fmt.Sprintf("sync domain failed %d", i), "domain", "orders")
		case 1:
			logger.Debug(fmt.Sprintf("api request %d", i), "status", 200)
		default:
			logger.Info(fmt.Sprintf("sync done %d", i))
		}
	}
	return path
}

func messages(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestRead(t *testing.T) {
	path := writeSlogFile(t)

	tests := []struct {
		name     string
		maxLines int
		level    slog.Level
		expected []string
	}{
		{"zero", 0, slog.LevelDebug, nil},
		{"negative", -1, slog.LevelDebug, nil},
		{"tail of all", 2, slog.LevelDebug, []string{"sync done 5", "sync domain failed 6"}},
		{"more than exists", 20, slog.LevelWarn, []string{"sync domain failed 3", "sync domain failed 6"}},
		{"info and above", 3, slog.LevelInfo, []string{"sync domain failed 3", "sync done 5", "sync domain failed 6"}},
		{"exactly all", 6, slog.LevelDebug, []string{
			"api request 1", "sync done 2", "sync domain failed 3",
			"api request 4", "sync done 5", "sync domain failed 6",
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(path, tt.maxLines, tt.level)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if tt.expected == nil {
				if got != nil {
					t.Fatalf("Read() = %v, want nil", got)
				}
				return
			}
			if !reflect.DeepEqual(messages(got), tt.expected) {
				t.Errorf("Read() = %v, want %v", messages(got), tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10, slog.LevelDebug)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v, want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Entry
	}{
		{
			name:  "full line",
			input: `time=2026-03-01T09:00:00.000Z level=WARN msg="sync domain failed" domain=orders error="503 Service Unavailable"`,
			want: Entry{
				Time:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				Level:   slog.LevelWarn,
				Message: "sync domain failed",
				Attrs:   `domain=orders error="503 Service Unavailable"`,
			},
		},
		{
			name:  "unquoted message",
			input: `time=2026-03-01T09:00:00Z level=INFO msg=started`,
			want: Entry{
				Time:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				Level:   slog.LevelInfo,
				Message: "started",
			},
		},
		{
			name:  "escaped quote",
			input: `level=ERROR msg="bad \"token\""`,
			want:  Entry{Level: slog.LevelError, Message: `bad "token"`},
		},
		{
			name:  "free text",
			input: "panic: runtime error",
			want:  Entry{Level: slog.LevelInfo, Message: "panic: runtime error"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			tt.want.Raw = tt.input
			if !got.Time.Equal(tt.want.Time) {
				t.Fatalf("Time = %v, want %v", got.Time, tt.want.Time)
			}
			got.Time, tt.want.Time = time.Time{}, time.Time{}
			if got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
