package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{" error ", zerolog.ErrorLevel, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Info().Str("path", "main.go").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("not JSON: %q", buf.String())
	}
	if entry["message"] != "hello" || entry["path"] != "main.go" || entry["app"] != "mrtea" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("entry should carry a timestamp")
	}
}

func TestSetup(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "nested", "mrtea.log")
	closer, err := Setup(path, "warn")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	log.Info().Msg("filtered out")
	log.Warn().Msg("kept")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "filtered out") {
		t.Error("info entry should be below the configured level")
	}
	if !strings.Contains(string(data), "kept") {
		t.Errorf("warn entry missing from log: %q", data)
	}
}

func TestSetup_BadLevel(t *testing.T) {
	if _, err := Setup(filepath.Join(t.TempDir(), "x.log"), "chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

// blockedPath returns a log path whose parent is a regular file, so the
// directory can never be created.
func blockedPath(t *testing.T) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "notadir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(file, "mrtea", "mrtea.log")
}

func restoreGlobals(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestSetup_UnusableDirectory(t *testing.T) {
	if _, err := Setup(blockedPath(t), "info"); err == nil {
		t.Error("expected an error when the log directory cannot be created")
	}
}

func TestSetupOrFallback_UsesFallbackDir(t *testing.T) {
	restoreGlobals(t)
	fallback := t.TempDir()

	closer, warning, err := SetupOrFallback(blockedPath(t), fallback, "info")
	if err != nil {
		t.Fatalf("SetupOrFallback: %v", err)
	}
	log.Info().Msg("still logging")
	closer.Close()

	if !strings.Contains(warning, fallback) {
		t.Errorf("warning %q should name the fallback location", warning)
	}
	data, err := os.ReadFile(filepath.Join(fallback, "mrtea.log"))
	if err != nil {
		t.Fatalf("fallback log not written: %v", err)
	}
	if !strings.Contains(string(data), "still logging") {
		t.Errorf("fallback log = %q", data)
	}
}

func TestSetupOrFallback_DiscardsWhenNothingWorks(t *testing.T) {
	restoreGlobals(t)

	closer, warning, err := SetupOrFallback(blockedPath(t), filepath.Dir(blockedPath(t)), "info")
	if err != nil {
		t.Fatalf("SetupOrFallback: %v", err)
	}
	if closer == nil || closer.Close() != nil {
		t.Error("closer should be usable even when logging is disabled")
	}
	if !strings.Contains(warning, "Logging disabled") {
		t.Errorf("warning = %q", warning)
	}
}

func TestSetupOrFallback_PreferredPath(t *testing.T) {
	restoreGlobals(t)
	path := filepath.Join(t.TempDir(), "mrtea.log")

	closer, warning, err := SetupOrFallback(path, t.TempDir(), "info")
	if err != nil {
		t.Fatal(err)
	}
	closer.Close()
	if warning != "" {
		t.Errorf("no warning expected, got %q", warning)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("preferred log file missing: %v", err)
	}
}

func TestSetupOrFallback_BadLevelIsAnError(t *testing.T) {
	if _, _, err := SetupOrFallback(blockedPath(t), t.TempDir(), "chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}
