package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), Config{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadMergesFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "detail_level_adjust = 2\nlanguage = \"02\"\ndefault_typ_path = \"/styles/default.typ\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path, Config{Language: "08"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DetailLevelAdjust != 2 {
		t.Errorf("DetailLevelAdjust = %d, want 2", cfg.DetailLevelAdjust)
	}
	if cfg.DefaultTYPPath != "/styles/default.typ" {
		t.Errorf("DefaultTYPPath = %q, want file value", cfg.DefaultTYPPath)
	}
	if cfg.Language != "08" {
		t.Errorf("Language = %q, want override %q", cfg.Language, "08")
	}
}
