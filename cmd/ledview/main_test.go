package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-ledview/internal/config"
)

func newTestCmd(cfg *config.Config, cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{Use: "ledview", RunE: func(*cobra.Command, []string) error { return nil }}
	bindFlags(cmd, cfg, cfgPath)
	return cmd
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledview.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func restoreGlobalLevel(t *testing.T) {
	t.Helper()
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })
}

func TestLogLevelFromConfigFile(t *testing.T) {
	restoreGlobalLevel(t)
	path := writeConfig(t, "log_level: error\n")

	cfg := config.Default()
	var cfgPath string
	cmd := newTestCmd(&cfg, &cfgPath)
	if err := cmd.ParseFlags([]string{"--config", path}); err != nil {
		t.Fatal(err)
	}

	if err := resolveConfig(cmd, cfgPath, &cfg); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := zerolog.GlobalLevel(); got != zerolog.ErrorLevel {
		t.Fatalf("expected error level from config file, got %s", got)
	}
}

func TestLogLevelFlagBeatsConfigFile(t *testing.T) {
	restoreGlobalLevel(t)
	path := writeConfig(t, "log_level: error\n")

	cfg := config.Default()
	var cfgPath string
	cmd := newTestCmd(&cfg, &cfgPath)
	if err := cmd.ParseFlags([]string{"--config", path, "--log-level", "debug"}); err != nil {
		t.Fatal(err)
	}

	if err := resolveConfig(cmd, cfgPath, &cfg); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := zerolog.GlobalLevel(); got != zerolog.DebugLevel {
		t.Fatalf("expected debug level from flag, got %s", got)
	}
}

func TestChangedFlagsOverrideFileConfig(t *testing.T) {
	restoreGlobalLevel(t)
	path := writeConfig(t, "panel:\n  rows: 64\n  cols: 64\ndriver: term\n")

	cfg := config.Default()
	var cfgPath string
	cmd := newTestCmd(&cfg, &cfgPath)
	if err := cmd.ParseFlags([]string{"--config", path, "--led-rows", "16"}); err != nil {
		t.Fatal(err)
	}

	if err := resolveConfig(cmd, cfgPath, &cfg); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Panel.Rows != 16 {
		t.Fatalf("expected flag to win for rows, got %d", cfg.Panel.Rows)
	}
	if cfg.Panel.Cols != 64 || cfg.Driver != "term" {
		t.Fatalf("expected file values to apply, got cols=%d driver=%q", cfg.Panel.Cols, cfg.Driver)
	}
}
