package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadConfig tests defaults when nothing is configured.
func TestLoadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.DataDir != "./data" {
		t.Errorf("DataDir = %q, want ./data", config.DataDir)
	}
	if config.Store != "yaml" {
		t.Errorf("Store = %q, want yaml", config.Store)
	}
	if config.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100", config.BatchSize)
	}
	if config.Delay != 500*time.Millisecond {
		t.Errorf("Delay = %v, want 500ms", config.Delay)
	}
	if !config.SkipAttempted {
		t.Error("SkipAttempted should default to true")
	}
	if len(config.ExcludePrefixes) != 1 || config.ExcludePrefixes[0] != "BWB" {
		t.Errorf("ExcludePrefixes = %v, want [BWB]", config.ExcludePrefixes)
	}
}

// TestConfig_EnvironmentVariables tests PROMISE_* and .env overrides.
func TestConfig_EnvironmentVariables(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PROMISE_STORE", "sqlite")
	t.Setenv("PROMISE_SKIP_ATTEMPTED", "false")

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PROMISE_BATCH_SIZE=25\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("PROMISE_BATCH_SIZE") })

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.Store != "sqlite" {
		t.Errorf("Store = %q, want sqlite", config.Store)
	}
	if config.SkipAttempted {
		t.Error("SkipAttempted should be false")
	}
	if config.BatchSize != 25 {
		t.Errorf("BatchSize = %d, want 25 from .env", config.BatchSize)
	}
}

// TestConfig_File tests reading a config file from the working directory.
func TestConfig_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	content := "data_dir: /srv/pallets\ndelay: 2s\nexclude_prefixes:\n  - BWB\n  - XYZ\n"
	if err := os.WriteFile(filepath.Join(dir, ".promise.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.DataDir != "/srv/pallets" {
		t.Errorf("DataDir = %q", config.DataDir)
	}
	if config.Delay != 2*time.Second {
		t.Errorf("Delay = %v, want 2s", config.Delay)
	}
	if len(config.ExcludePrefixes) != 2 {
		t.Errorf("ExcludePrefixes = %v", config.ExcludePrefixes)
	}
	if config.ConfigFile == "" {
		t.Error("ConfigFile should name the file read")
	}
}

// TestConfig_UpdateFromFlags tests flag precedence.
func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{Format: "yaml", LogLevel: "warn"}

	config.UpdateFromFlags(true, false, true, "", "")
	if !config.Verbose || !config.NoColor {
		t.Error("boolean flags not applied")
	}
	if config.Format != "yaml" || config.LogLevel != "warn" {
		t.Error("empty flag values should keep configured values")
	}

	config.UpdateFromFlags(false, true, false, "json", "debug")
	if config.Format != "json" || config.LogLevel != "debug" {
		t.Errorf("Format/LogLevel = %q/%q, want json/debug", config.Format, config.LogLevel)
	}
}
