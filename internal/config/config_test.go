package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"subseg/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, ".local", "share", "subseg", "segments")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.HistoryPath() != filepath.Join(tempHome, ".local", "share", "subseg", "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.Grouping.Workers != runtime.NumCPU() {
		t.Fatalf("expected workers to default to NumCPU, got %d", cfg.Grouping.Workers)
	}
	if !cfg.Grouping.PreMerge {
		t.Fatal("expected pre-merge enabled by default")
	}
	if cfg.FrameInterval() != time.Second {
		t.Fatalf("unexpected frame interval: %s", cfg.FrameInterval())
	}
	if cfg.TaskTimeout() != time.Minute {
		t.Fatalf("unexpected task timeout: %s", cfg.TaskTimeout())
	}
	if cfg.Grouping.LooseMinRegions != 2 || cfg.Grouping.LooseMinPrecision != 0.5 {
		t.Fatalf("unexpected loose thresholds: %+v", cfg.Grouping)
	}
	if cfg.Detection.Engine != "luminance" {
		t.Fatalf("unexpected engine: %q", cfg.Detection.Engine)
	}
}

func TestLoadCustomConfigNormalizesValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
output_dir = "~/segments"
state_dir = "~/state"
log_dir = ""

[frames]
extensions = ["PNG", " .Jpg ", ""]
frame_interval_ms = 500

[grouping]
workers = 3
pre_merge = false
task_timeout_seconds = 0

[detection]
engine = " OpenCV "

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "segments") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Paths.LogDir != "" {
		t.Fatalf("expected empty log dir to stay empty, got %q", cfg.Paths.LogDir)
	}
	if strings.Join(cfg.Frames.Extensions, ",") != ".png,.jpg" {
		t.Fatalf("unexpected extensions: %v", cfg.Frames.Extensions)
	}
	if cfg.FrameInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected frame interval: %s", cfg.FrameInterval())
	}
	if cfg.Grouping.Workers != 3 || cfg.Grouping.PreMerge {
		t.Fatalf("unexpected grouping: %+v", cfg.Grouping)
	}
	if cfg.TaskTimeout() != 0 {
		t.Fatalf("expected disabled task timeout, got %s", cfg.TaskTimeout())
	}
	if cfg.Detection.Engine != "opencv" {
		t.Fatalf("unexpected engine: %q", cfg.Detection.Engine)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[grouping]\nthreads = 4\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown field to fail")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"frame interval", func(c *config.Config) { c.Frames.FrameIntervalMS = 0 }, "frames.frame_interval_ms"},
		{"workers", func(c *config.Config) { c.Grouping.Workers = 0 }, "grouping.workers"},
		{"timeout", func(c *config.Config) { c.Grouping.TaskTimeoutSeconds = -1 }, "grouping.task_timeout_seconds"},
		{"precision", func(c *config.Config) { c.Grouping.LooseMinPrecision = 1.5 }, "grouping.loose_min_precision"},
		{"engine", func(c *config.Config) { c.Detection.Engine = "tesseract" }, "detection.engine"},
		{"threshold", func(c *config.Config) { c.Detection.LuminanceThreshold = 300 }, "detection.luminance_threshold"},
		{"margin", func(c *config.Config) { c.Output.ClipMargin = -2 }, "output.clip_margin"},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	for _, section := range []string{"paths", "frames", "grouping", "detection", "output", "logging"} {
		if _, ok := raw[section]; !ok {
			t.Fatalf("sample missing [%s] section", section)
		}
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectoriesCreatesStateAndLogDirs(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
