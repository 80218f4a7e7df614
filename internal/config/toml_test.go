package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[practice]
lesson = "l03"
countdown = 60
target-acc = 0.95
target-wpm = 30
backspace-penalty = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Practice.Lesson == nil || *cfg.Practice.Lesson != "l03" {
		t.Errorf("Lesson = %v, want l03", cfg.Practice.Lesson)
	}
	if cfg.Practice.Countdown == nil || *cfg.Practice.Countdown != 60 {
		t.Errorf("Countdown = %v, want 60", cfg.Practice.Countdown)
	}
	if cfg.Practice.TargetAccuracy == nil || *cfg.Practice.TargetAccuracy != 0.95 {
		t.Errorf("TargetAccuracy = %v, want 0.95", cfg.Practice.TargetAccuracy)
	}
	if cfg.Practice.TargetWpm == nil || *cfg.Practice.TargetWpm != 30 {
		t.Errorf("TargetWpm = %v, want 30", cfg.Practice.TargetWpm)
	}
	if cfg.Practice.BackspacePenalty == nil || !*cfg.Practice.BackspacePenalty {
		t.Errorf("BackspacePenalty = %v, want true", cfg.Practice.BackspacePenalty)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[practice]\nlesson = \"l02\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Practice.Lesson == nil || *cfg.Practice.Lesson != "l02" {
		t.Errorf("Lesson = %v, want l02", cfg.Practice.Lesson)
	}
	// Unset keys stay nil so flag defaults win.
	if cfg.Practice.Countdown != nil {
		t.Errorf("Countdown = %v, want nil", cfg.Practice.Countdown)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Errorf("LoadConfig(missing) error = %v, want nil", err)
	}
	if cfg.Practice.Lesson != nil {
		t.Errorf("missing file produced values: %+v", cfg)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig(malformed) error = nil, want decode failure")
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Error("LoadConfig(\"\") error = nil, want failure")
	}
}

func TestXDGPathsHonorEnv(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/conf")
	if got := DefaultDBPath(); got != filepath.Join("/tmp/data", "keydrill", "keydrill.db") {
		t.Errorf("DefaultDBPath() = %q", got)
	}
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/conf", "keydrill", "config.toml") {
		t.Errorf("DefaultConfigPath() = %q", got)
	}
}
