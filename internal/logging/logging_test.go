package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func resetLogging() {
	Init("text", "info", os.Stdout)
}

func TestComponentLoggerPicksUpInitHandler(t *testing.T) {
	defer resetLogging()

	// Logger created before Init, the way packages declare `var log = logging.L(...)`.
	log := L("scanner")

	var buf bytes.Buffer
	Init("json", "info", &buf)

	log.Info("table scanned", "rows", 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "table scanned" {
		t.Fatalf("msg = %v, want %q", record["msg"], "table scanned")
	}
	if record[KeyComponent] != "scanner" {
		t.Fatalf("component = %v, want scanner", record[KeyComponent])
	}
}

func TestInitLevelFiltersDebug(t *testing.T) {
	defer resetLogging()

	var buf bytes.Buffer
	Init("text", "warn", &buf)

	log := L("tracker")
	log.Debug("not shown")
	log.Info("not shown either")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "not shown") {
		t.Fatalf("lower-level records leaked through: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		"INFO":     slog.LevelInfo,
		" warn ":   slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"error":    slog.LevelError,
		"":         slog.LevelInfo,
		"gibberish": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
