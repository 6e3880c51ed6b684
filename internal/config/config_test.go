// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal() can be
// safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()

	var wg sync.WaitGroup

	// 50 writers using SetGlobal, 50 readers using Global
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			cfg := Global()
			if cfg == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Version == "" {
		t.Error("Default config should have a version")
	}

	if cfg.API.BaseURL == "" {
		t.Error("Default config should have an API base URL")
	}

	if cfg.Artifacts.MinFragmentChars != 100 {
		t.Errorf("Expected min fragment chars 100, got %d", cfg.Artifacts.MinFragmentChars)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"invalid base URL", func(c *Config) { c.API.BaseURL = "not a url" }, true},
		{"timeout too small", func(c *Config) { c.API.TimeoutSecs = 0 }, true},
		{"timeout too large", func(c *Config) { c.API.TimeoutSecs = 601 }, true},
		{"retries out of range", func(c *Config) { c.API.MaxRetries = 11 }, true},
		{"negative rate limit", func(c *Config) { c.API.RequestsPerMinute = -1 }, true},
		{"negative min fragment chars", func(c *Config) { c.Artifacts.MinFragmentChars = -1 }, true},
		{"invalid theme", func(c *Config) { c.UI.Theme = "invalid" }, true},
		{"invalid log level", func(c *Config) { c.Log.Level = "trace" }, true},
		{"cache size out of range", func(c *Config) { c.Cache.MaxSize = 200000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_GetSet tests Get and Set methods with dot notation.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("ui.theme")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if val != "dark" {
		t.Errorf("Get('ui.theme') = %v, want 'dark'", val)
	}

	if err := cfg.Set("ui.theme", "light"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	val, _ = cfg.Get("ui.theme")
	if val != "light" {
		t.Errorf("Get('ui.theme') after Set = %v, want 'light'", val)
	}

	// Numeric conversion from string input
	if err := cfg.Set("api.timeout_secs", "90"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	val, _ = cfg.Get("api.timeout_secs")
	if val != 90 {
		t.Errorf("Get('api.timeout_secs') after Set = %v, want 90", val)
	}

	if _, err := cfg.Get("invalid.key"); err == nil {
		t.Error("Get() with invalid key should return error")
	}
}

// TestConfig_EnvOverrides tests environment variable overrides.
func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FORGE_MODEL", "openai/gpt-4o")
	t.Setenv("FORGE_DATA_DIR", "/tmp/forge-test")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.DefaultModel != "openai/gpt-4o" {
		t.Errorf("DefaultModel = %q, want openai/gpt-4o", cfg.DefaultModel)
	}
	if cfg.DataDir != "/tmp/forge-test" {
		t.Errorf("DataDir = %q, want /tmp/forge-test", cfg.DataDir)
	}
	if cfg.API.OpenRouterKey != "sk-or-test" {
		t.Errorf("OpenRouterKey = %q, want sk-or-test", cfg.API.OpenRouterKey)
	}
}

// TestConfig_SaveLoadTOML round-trips config through a TOML file.
func TestConfig_SaveLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DefaultModel = "google/gemini-pro"
	cfg.Artifacts.MinFragmentChars = 50

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if loaded.DefaultModel != "google/gemini-pro" {
		t.Errorf("DefaultModel = %q, want google/gemini-pro", loaded.DefaultModel)
	}
	if loaded.Artifacts.MinFragmentChars != 50 {
		t.Errorf("MinFragmentChars = %d, want 50", loaded.Artifacts.MinFragmentChars)
	}
	// Unset nested values fall back to defaults.
	if loaded.API.TimeoutSecs == 0 {
		t.Error("TimeoutSecs should fall back to default")
	}
}

// TestConfig_SaveLoadJSON round-trips config through a JSON file.
func TestConfig_SaveLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.DefaultModel = "openai/gpt-4o"
	cfg.Cache.TTLHours = 12

	if err := SaveJSON(cfg, path); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if loaded.DefaultModel != "openai/gpt-4o" {
		t.Errorf("DefaultModel = %q, want openai/gpt-4o", loaded.DefaultModel)
	}
	if loaded.Cache.TTLHours != 12 {
		t.Errorf("TTLHours = %d, want 12", loaded.Cache.TTLHours)
	}
}

// TestConfig_DataDirPaths tests the derived path helpers.
func TestConfig_DataDirPaths(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/data/forge"

	projects, err := cfg.ProjectsDir()
	if err != nil {
		t.Fatalf("ProjectsDir() error = %v", err)
	}
	if projects != filepath.Join("/data/forge", "projects") {
		t.Errorf("ProjectsDir() = %q", projects)
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		t.Fatalf("LogPath() error = %v", err)
	}
	if logPath != filepath.Join("/data/forge", "forge.log") {
		t.Errorf("LogPath() = %q", logPath)
	}

	cfg.Log.Path = "/var/log/forge.log"
	logPath, _ = cfg.LogPath()
	if logPath != "/var/log/forge.log" {
		t.Errorf("explicit LogPath() = %q", logPath)
	}
}

// TestConfig_StringRedactsKey ensures the API key never appears in debug output.
func TestConfig_StringRedactsKey(t *testing.T) {
	cfg := Default()
	cfg.API.OpenRouterKey = "sk-or-supersecret"

	out := cfg.String()
	if strings.Contains(out, "supersecret") {
		t.Error("String() leaked the API key")
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Error("String() should mark the key as redacted")
	}
}
