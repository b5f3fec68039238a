// Package config loads the showroom's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"showroom/internal/audio"
	"showroom/internal/effects"
)

// SeedEnv overrides the random seed when set to an unsigned integer.
const SeedEnv = "SHOWROOM_SEED"

// Config is the whole showroom configuration.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	LogFile  string       `yaml:"log_file"`
	Seed     uint64       `yaml:"seed"` // 0 means seed from the clock
	Window   WindowConfig `yaml:"window"`
	Audio    AudioConfig  `yaml:"audio"`
	Smoke    SmokeConfig  `yaml:"smoke"`
	Flash    FlashConfig  `yaml:"flash"`
	Camera   CameraConfig `yaml:"camera"`
}

type WindowConfig struct {
	Width       int           `yaml:"width"`
	Height      int           `yaml:"height"`
	Title       string        `yaml:"title"`
	VSync       bool          `yaml:"vsync"`
	Background  effects.Color `yaml:"background"`
	CarColor    effects.Color `yaml:"car_color"`
	MinLoading  time.Duration `yaml:"min_loading"`
	MaxFrameGap time.Duration `yaml:"max_frame_gap"`
}

type AudioConfig struct {
	Enabled           bool           `yaml:"enabled"`
	Backend           string         `yaml:"backend"` // oto or portaudio
	BufferFrames      int            `yaml:"buffer_frames"`
	Volume            float64        `yaml:"volume"`
	SynthesizeMissing bool           `yaml:"synthesize_missing"`
	Assets            audio.Assets   `yaml:"assets"`
	Sequencer         audio.Settings `yaml:"sequencer"`
}

// SmokeConfig places the exhaust emitter.
type SmokeConfig struct {
	Position            effects.Vec3 `yaml:"position"`
	effects.SmokeConfig `yaml:",inline"`
}

type FlashConfig struct {
	Emitters []effects.FlashConfig `yaml:"emitters"`
}

type CameraConfig struct {
	Position   effects.Vec3 `yaml:"position"`
	Target     effects.Vec3 `yaml:"target"`
	FOV        float64      `yaml:"fov"` // vertical, degrees
	ShakeBurst float64      `yaml:"shake_burst"`
	ShakeMax   float64      `yaml:"shake_max"`
	StripSpeed float64      `yaml:"strip_speed"` // lightformer scroll, units/s
}

// Default returns the reference showroom.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Window: WindowConfig{
			Width:       1280,
			Height:      720,
			Title:       "Showroom",
			VSync:       true,
			Background:  effects.Color{R: 0x44 / 255.0, G: 0x44 / 255.0, B: 0x44 / 255.0},
			CarColor:    effects.Color{R: 0.8, G: 0, B: 1},
			MinLoading:  2 * time.Second,
			MaxFrameGap: 100 * time.Millisecond,
		},
		Audio: AudioConfig{
			Enabled:           true,
			Backend:           "oto",
			BufferFrames:      1024,
			Volume:            0.8,
			SynthesizeMissing: true,
			Assets: audio.Assets{
				Start: "assets/audio/start.mp3",
				Loop:  "assets/audio/loop.mp3",
				Rev:   "assets/audio/rev.mp3",
				Tail:  "assets/audio/tail.mp3",
			},
			Sequencer: audio.DefaultSettings(),
		},
		Smoke: SmokeConfig{
			Position: effects.Vec3{X: -1.35, Y: -0.1, Z: -1.5},
			SmokeConfig: effects.SmokeConfig{
				ParticlesPerEmission: 3,
				EmissionRate:         50,
				Lifetime:             2000,
				Color:                effects.Color{R: 0.3, G: 0.3, B: 0.3},
				Scale:                1.2,
			},
		},
		Flash: FlashConfig{
			Emitters: []effects.FlashConfig{
				{Position: effects.Vec3{X: -2.25, Y: 0.06, Z: -2.9}, Color: effects.Color{R: 0, G: 0x88 / 255.0, B: 1}, Intensity: 1.8},
				{Position: effects.Vec3{X: -2.7, Y: 0.06, Z: -2.5}, Color: effects.Color{R: 0, G: 0x99 / 255.0, B: 1}, Intensity: 1.8},
			},
		},
		Camera: CameraConfig{
			Position:   effects.Vec3{X: 5, Y: 0, Z: 15},
			FOV:        30,
			ShakeBurst: 0.04,
			ShakeMax:   0.12,
			StripSpeed: 10,
		},
	}
}

// Load overlays the YAML file at path on the defaults, applies the
// environment and validates the result. A missing file is reported with an
// error wrapping os.ErrNotExist alongside usable defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ApplyEnv(cfg)
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv applies environment overrides.
func ApplyEnv(cfg *Config) {
	if s := os.Getenv(SeedEnv); s != "" {
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			cfg.Seed = v
		}
	}
}

// Validate rejects values the showroom cannot run with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Window.MaxFrameGap <= 0 {
		return fmt.Errorf("window.max_frame_gap must be positive")
	}

	a := c.Audio
	switch a.Backend {
	case "oto", "portaudio":
	default:
		return fmt.Errorf("audio.backend %q: want oto or portaudio", a.Backend)
	}
	if a.Volume < 0 || a.Volume > 1 {
		return fmt.Errorf("audio.volume %.2f out of [0,1]", a.Volume)
	}
	s := a.Sequencer
	if s.FadeTime <= 0 || s.DuckTime <= 0 || s.StopFadeTime <= 0 {
		return fmt.Errorf("audio.sequencer fade, duck and stop times must be positive")
	}
	if s.LoopTrim < 0 {
		return fmt.Errorf("audio.sequencer.loop_trim must not be negative")
	}
	if s.NormalLoopVolume <= 0 || s.NormalLoopVolume > 1 {
		return fmt.Errorf("audio.sequencer.normal_loop_volume %.2f out of (0,1]", s.NormalLoopVolume)
	}
	if s.RevLoopVolume <= 0 || s.RevLoopVolume > 1 {
		return fmt.Errorf("audio.sequencer.rev_loop_volume %.2f out of (0,1]", s.RevLoopVolume)
	}

	sm := c.Smoke
	if sm.EmissionRate <= 0 || sm.Lifetime <= 0 {
		return fmt.Errorf("smoke emission rate and lifetime must be positive")
	}
	if sm.ParticlesPerEmission < 0 || sm.Scale <= 0 {
		return fmt.Errorf("smoke particles_per_emission must be >= 0 and scale > 0")
	}
	for i, f := range c.Flash.Emitters {
		if f.Intensity < 0 {
			return fmt.Errorf("flash.emitters[%d].intensity must not be negative", i)
		}
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("camera.fov %.1f out of (0,180)", c.Camera.FOV)
	}
	return nil
}
