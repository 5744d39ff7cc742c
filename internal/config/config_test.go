package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log defaults = %q, %q", cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.Harvest.FastModeDelay != 100*time.Millisecond {
		t.Errorf("fast_mode_delay = %v", cfg.Harvest.FastModeDelay)
	}
	if cfg.Harvest.InvitePause != 60*time.Second {
		t.Errorf("invite_pause = %v", cfg.Harvest.InvitePause)
	}
	if cfg.AI.Provider != "openrouter" || cfg.AI.Temperature != 0.1 {
		t.Errorf("ai defaults = %q, %v", cfg.AI.Provider, cfg.AI.Temperature)
	}
	if cfg.CSV.Delimiter != "," || cfg.CSV.Encoding != "UTF-8" {
		t.Errorf("csv defaults = %q, %q", cfg.CSV.Delimiter, cfg.CSV.Encoding)
	}
	if cfg.Sheets.Worksheet != "Sheet1" {
		t.Errorf("worksheet = %q", cfg.Sheets.Worksheet)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
log:
  level: debug
  format: text
harvest:
  data_folder: /tmp/exports
csv:
  delimiter: ";"
ai:
  provider: gemini
  model: gemini-2.0-flash
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log = %q, %q", cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.Harvest.DataFolder != "/tmp/exports" {
		t.Errorf("data_folder = %q", cfg.Harvest.DataFolder)
	}
	if cfg.CSV.Delimiter != ";" {
		t.Errorf("delimiter = %q", cfg.CSV.Delimiter)
	}
	if cfg.AI.Provider != "gemini" || cfg.AI.Model != "gemini-2.0-flash" {
		t.Errorf("ai = %q, %q", cfg.AI.Provider, cfg.AI.Model)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name, yaml string
	}{
		{"bad log level", "log:\n  level: verbose\n"},
		{"bad provider", "ai:\n  provider: oracle\n"},
		{"bad delimiter", "csv:\n  delimiter: '::'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.yaml)); err == nil {
				t.Error("invalid configuration accepted")
			}
		})
	}
}

func TestRequireTelegram(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.RequireTelegram(); err == nil {
		t.Error("missing credentials accepted")
	}

	cfg.Telegram.APIID = 12345
	cfg.Telegram.APIHash = "hash"
	cfg.Telegram.Phone = "+15550001111"
	if err := cfg.RequireTelegram(); err != nil {
		t.Errorf("complete credentials rejected: %v", err)
	}
}
