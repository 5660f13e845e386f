package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.Server.Host != DefaultHost || cfg.Server.Port != DefaultPort {
		t.Errorf("unexpected defaults: %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Model.Name != DefaultModel {
		t.Errorf("unexpected default model: %s", cfg.Model.Name)
	}
	if cfg.Model.Timeout() != DefaultRequestTimeout {
		t.Errorf("unexpected default timeout: %v", cfg.Model.Timeout())
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	path := filepath.Join(t.TempDir(), "civicaid.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9000
  rateLimitRpm: 120
model:
  name: gemini-1.5-pro
  timeoutSeconds: 30
telemetry:
  enabled: true
  endpoint: localhost:4317
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9000" {
		t.Errorf("unexpected addr: %s", cfg.Addr())
	}
	if cfg.Model.Name != "gemini-1.5-pro" {
		t.Errorf("unexpected model: %s", cfg.Model.Name)
	}
	if cfg.Model.Timeout() != 30*time.Second {
		t.Errorf("unexpected timeout: %v", cfg.Model.Timeout())
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("telemetry not loaded: %+v", cfg.Telemetry)
	}
	if cfg.Server.RateLimitRPM != 120 {
		t.Errorf("unexpected rate limit: %d", cfg.Server.RateLimitRPM)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("CIVICAID_PORT", "8123")
	t.Setenv("CIVICAID_MODEL", "gemini-2.0-flash-lite")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GeminiAPIKey != "gem-key" {
		t.Errorf("expected env key, got %q", cfg.GeminiAPIKey)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("expected port override, got %d", cfg.Server.Port)
	}
	if cfg.Model.Name != "gemini-2.0-flash-lite" {
		t.Errorf("expected model override, got %s", cfg.Model.Name)
	}
}

func TestLoad_GoogleKeyWins(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GeminiAPIKey != "google-key" {
		t.Errorf("GOOGLE_API_KEY should take precedence, got %q", cfg.GeminiAPIKey)
	}
}

func TestValidateForServe_MissingCredentials(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	err = cfg.ValidateForServe()
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("error should name the missing credential: %v", err)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
