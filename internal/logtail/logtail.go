package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Entry is one parsed line written by slog's text handler.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	// Attrs holds the remaining key=value pairs verbatim.
	Attrs string
	Raw   string
}

// Read returns at most maxLines entries from the end of the file at path
// whose level is at least minLevel. A missing file yields no entries.
func Read(path string, maxLines int, minLevel slog.Level) ([]Entry, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]Entry, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count, next := 0, 0
	for scanner.Scan() {
		entry := Parse(scanner.Text())
		if entry.Level < minLevel {
			continue
		}
		ring[next] = entry
		next = (next + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	out := make([]Entry, count)
	start := 0
	if count == maxLines {
		start = next
	}
	for i := 0; i < count; i++ {
		out[i] = ring[(start+i)%maxLines]
	}
	return out, nil
}

// Parse splits a text-handler line into its time, level and msg fields.
// Lines in any other shape are kept as the message at info level.
func Parse(line string) Entry {
	entry := Entry{Level: slog.LevelInfo, Message: line, Raw: line}
	rest := line

	if v, tail, ok := cutField(rest, "time"); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			entry.Time = t
		}
		rest = tail
	}
	v, tail, ok := cutField(rest, "level")
	if !ok {
		return entry
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err == nil {
		entry.Level = level
	}
	rest = tail

	if v, tail, ok := cutField(rest, "msg"); ok {
		entry.Message = v
		rest = tail
	} else {
		entry.Message = ""
	}
	entry.Attrs = strings.TrimSpace(rest)
	return entry
}

// cutField reads `key=value` at the start of s. Quoted values may contain
// spaces and escaped quotes.
func cutField(s, key string) (value, rest string, ok bool) {
	s = strings.TrimLeft(s, " ")
	if !strings.HasPrefix(s, key+"=") {
		return "", s, false
	}
	s = s[len(key)+1:]
	if strings.HasPrefix(s, `"`) {
		var b strings.Builder
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '\\':
				if i+1 < len(s) {
					i++
					b.WriteByte(s[i])
				}
			case '"':
				return b.String(), s[i+1:], true
			default:
				b.WriteByte(s[i])
			}
		}
		return b.String(), "", true
	}
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], s[i:], true
	}
	return s, "", true
}
