package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func parseLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Log line is not valid JSON: %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestJSONLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("flush finished", Count(10), Bytes(2048))

	entries := parseLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Got %d entries, want 1", len(entries))
	}
	if entries[0].Level != "INFO" || entries[0].Message != "flush finished" {
		t.Errorf("Entry = %+v", entries[0])
	}
	if entries[0].Fields["count"] != float64(10) {
		t.Errorf("count field = %v", entries[0].Fields["count"])
	}
}

func TestJSONLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("shown")

	if entries := parseLines(t, &buf); len(entries) != 2 {
		t.Errorf("Got %d entries, want 2", len(entries))
	}

	logger.SetLevel(DebugLevel)
	buf.Reset()
	logger.Debug("now visible")
	if entries := parseLines(t, &buf); len(entries) != 1 {
		t.Errorf("Debug suppressed after SetLevel")
	}
}

func TestJSONLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(Component("lsm"), String("engine_id", "abc"))
	child.Info("created")

	entries := parseLines(t, &buf)
	if entries[0].Fields["component"] != "lsm" || entries[0].Fields["engine_id"] != "abc" {
		t.Errorf("Pre-set fields missing: %+v", entries[0].Fields)
	}
}

func TestFieldConstructors(t *testing.T) {
	cases := []struct {
		field Field
		key   string
	}{
		{Key([]byte("user1")), "key"},
		{Table(42), "table_id"},
		{LevelNum(3), "level"},
		{Latency(5 * time.Millisecond), "latency"},
		{Error(errors.New("boom")), "error"},
		{Bytes(1024), "bytes"},
	}
	for _, c := range cases {
		if c.field.Key != c.key {
			t.Errorf("Field key = %q, want %q", c.field.Key, c.key)
		}
	}

	if Error(nil).Value != nil {
		t.Error("Error(nil) must carry a nil value")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug": DebugLevel, "INFO": InfoLevel, "warning": WarnLevel,
		"ERROR": ErrorLevel, "bogus": InfoLevel,
	}
	for s, want := range cases {
		if got := ParseLevel(s); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	// Must not panic and With must stay nop
	logger.Info("ignored")
	logger.With(String("k", "v")).Error("ignored")
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	timer := StartTimer(logger, "compaction", LevelNum(0))
	timer.End()

	entries := parseLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Got %d entries, want 1", len(entries))
	}
	if _, ok := entries[0].Fields["latency"]; !ok {
		t.Error("Timed entry missing latency field")
	}
}
