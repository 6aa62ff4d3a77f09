package logger

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {

	tt := []struct {
		name    string
		level   string
		debug   bool
		warning bool
	}{
		{name: "info", level: "info"},
		{name: "debug", level: "debug", debug: true},
		{name: "unknown", level: "chatty", warning: true},
		{name: "empty", level: ""},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			var buf bytes.Buffer
			l := NewWithWriter(Config{Level: tc.level}, &buf)

			if w := strings.Contains(buf.String(), "unknown log level"); w != tc.warning {
				t.Errorf("expected warning %v, got %v: %s", tc.warning, w, buf.String())
			}

			buf.Reset()
			l.Debug().Msg("debug line")
			if d := strings.Contains(buf.String(), "debug line"); d != tc.debug {
				t.Errorf("expected debug output %v, got %v", tc.debug, d)
			}

			buf.Reset()
			l.Info().Str("phase", "parse_body").Msg("info line")
			if !strings.Contains(buf.String(), `"phase":"parse_body"`) {
				t.Errorf("expected structured field, got: %s", buf.String())
			}
		})
	}
}

func TestNewFile(t *testing.T) {

	path := filepath.Join(t.TempDir(), "gate.log")

	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "info", File: path}, &buf)
	l.Info().Msg("to both")

	b, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read log file: %v", err)
	}
	if !strings.Contains(string(b), "to both") {
		t.Errorf("expected line in file, got: %s", string(b))
	}
	if !strings.Contains(buf.String(), "to both") {
		t.Errorf("expected line on writer, got: %s", buf.String())
	}
}
