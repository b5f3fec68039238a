package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "showroom.yaml")
	yml := `
log_level: debug
audio:
  backend: portaudio
  sequencer:
    fade_time: 150ms
smoke:
  particles_per_emission: 5
  position: {x: 1, y: 2, z: 3}
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.Audio.Backend != "portaudio" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Audio.Sequencer.FadeTime != 150*time.Millisecond {
		t.Fatalf("fade time = %v", cfg.Audio.Sequencer.FadeTime)
	}
	if cfg.Audio.Sequencer.StopFadeTime != 500*time.Millisecond {
		t.Fatalf("untouched default lost: %v", cfg.Audio.Sequencer.StopFadeTime)
	}
	if cfg.Smoke.ParticlesPerEmission != 5 || cfg.Smoke.EmissionRate != 50 {
		t.Fatalf("smoke = %+v", cfg.Smoke)
	}
	if cfg.Smoke.Position.Z != 3 {
		t.Fatalf("smoke position = %+v", cfg.Smoke.Position)
	}
	if len(cfg.Flash.Emitters) != 2 {
		t.Fatalf("flash emitters = %d", len(cfg.Flash.Emitters))
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
	if cfg == nil || cfg.Smoke.EmissionRate != 50 {
		t.Fatal("defaults not returned for a missing file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"backend":  "audio: {backend: alsa}",
		"fade":     "audio: {sequencer: {fade_time: 0s}}",
		"emission": "smoke: {emission_rate_ms: 0}",
		"window":   "window: {width: -1}",
		"syntax":   "audio: [",
	}
	for name, yml := range cases {
		path := filepath.Join(t.TempDir(), name+".yaml")
		os.WriteFile(path, []byte(yml), 0o644)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestSeedFromEnvironment(t *testing.T) {
	t.Setenv(SeedEnv, "12345")
	cfg, _ := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if cfg.Seed != 12345 {
		t.Fatalf("seed = %d", cfg.Seed)
	}
}

func TestSaveWritesReadableYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Audio.Sequencer.DuckTime = 75 * time.Millisecond
	if err := Save(cfg, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "duck_time: 75ms") {
		t.Fatalf("duration not written as a string:\n%s", data)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Audio.Sequencer.DuckTime != 75*time.Millisecond {
		t.Fatalf("duck time = %v", back.Audio.Sequencer.DuckTime)
	}
}
