package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		" warn ":  WARN,
		"warning": WARN,
		"error":   ERROR,
		"fatal":   FATAL,
		"bogus":   INFO,
		"":        INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter("warn", &buf)
	l.Debugf("hidden %d", 1)
	l.Infof("hidden %d", 2)
	l.Warnf("shown %d", 3)
	l.Errorf("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("filtered lines leaked: %q", out)
	}
	if strings.Count(out, "shown") != 2 {
		t.Fatalf("expected two lines, got %q", out)
	}
	if !strings.Contains(out, "logger_test.go:") {
		t.Errorf("missing caller location: %q", out)
	}
}

func TestWithTag(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter("debug", &buf).With("Sequencer")
	l.Infof("engine started")
	if !strings.Contains(buf.String(), "[Sequencer] engine started") {
		t.Fatalf("tag missing: %q", buf.String())
	}
}
