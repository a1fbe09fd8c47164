package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" warn ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStartupLoggerEmitsSingleEvent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	NewStartupLogger("studio-test").
		Version("v1.2.3").
		Resource("store", "backend", "file").
		Resource("store", "empty", "").
		Feature("metrics", true).
		Config("frames", "6").
		Log()

	var evt map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &evt); err != nil {
		t.Fatalf("startup event is not a single JSON line: %v (%s)", err, buf.String())
	}
	if evt["message"] != "Startup complete" {
		t.Errorf("message = %v", evt["message"])
	}
	process, _ := evt["process"].(map[string]any)
	if process["name"] != "studio-test" || process["version"] != "v1.2.3" {
		t.Errorf("process = %v", process)
	}
	resources, _ := evt["resources"].(map[string]any)
	store, _ := resources["store"].(map[string]any)
	if store["backend"] != "file" {
		t.Errorf("store resources = %v", store)
	}
	if _, ok := store["empty"]; ok {
		t.Error("empty resource names should be skipped")
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("STUDIO_TEST_ENV", "")
	if got := EnvOrDefault("STUDIO_TEST_ENV", "fallback"); got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
	t.Setenv("STUDIO_TEST_ENV", "set")
	if got := EnvOrDefault("STUDIO_TEST_ENV", "fallback"); got != "set" {
		t.Errorf("got %q, want set", got)
	}
}
