package config

import (
	"os"
	"path/filepath"
	"testing"

	"qirvm/internal/trace"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFile))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Run.Shots != 1024 || cfg.Run.Runtime != RuntimeStats {
		t.Fatalf("defaults = %+v", cfg.Run)
	}
	if cfg.TraceLevel() != trace.LevelOff {
		t.Fatalf("default trace level = %v, want off", cfg.TraceLevel())
	}
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
[run]
shots = 16
runtime = "tuple"
seed = 42
lower_st = true

[trace]
level = "detail"
file = "trace.log"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Run.Shots != 16 || cfg.Run.Runtime != RuntimeTuple || cfg.Run.Seed != 42 || !cfg.Run.LowerST {
		t.Fatalf("run = %+v", cfg.Run)
	}
	if cfg.TraceLevel() != trace.LevelDetail || cfg.Trace.File != "trace.log" {
		t.Fatalf("trace = %+v", cfg.Trace)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []string{
		"[run]\nshots = 0\n",
		"[run]\nruntime = \"csv\"\n",
		"[trace]\nlevel = \"chatty\"\n",
		"[run\n",
	}
	for _, content := range cases {
		if _, err := Load(writeManifest(t, content)); err == nil {
			t.Errorf("manifest %q should be rejected", content)
		}
	}
}
