package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

type Config struct {
	World      WorldConfig       `yaml:"world"`
	Character  CharacterConfig   `yaml:"character"`
	Animations []AnimationConfig `yaml:"animations"`
	Logging    LoggingConfig     `yaml:"logging"`
}

type WorldConfig struct {
	// Gravity is the downward acceleration in m/s^2.
	Gravity float64 `yaml:"gravity"`
}

type CharacterConfig struct {
	Radius float64 `yaml:"radius"`
	Height float64 `yaml:"height"`
	// Center offsets the capsule volume center from the node origin,
	// given as [x, y, z].
	Center        []float64 `yaml:"center"`
	MaxStepHeight float64   `yaml:"max_step_height"`
	MaxSlopeAngle float64   `yaml:"max_slope_angle"`
	MovementLayer int       `yaml:"movement_layer"`
}

type AnimationConfig struct {
	Name string `yaml:"name"`
	// LengthSeconds is the clip duration.
	LengthSeconds float64 `yaml:"length_seconds"`
	MoveSpeed     float64 `yaml:"move_speed"`
	Layer         int     `yaml:"layer"`
	Loop          bool    `yaml:"loop"`
}

func (a AnimationConfig) Length() time.Duration {
	return time.Duration(a.LengthSeconds * float64(time.Second))
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the configuration used when a field (or the whole file)
// is absent: a human-sized capsule under standard gravity.
func Default() *Config {
	return &Config{
		World: WorldConfig{Gravity: 9.81},
		Character: CharacterConfig{
			Radius:        0.3,
			Height:        1.8,
			MaxStepHeight: 0.35,
			MaxSlopeAngle: 45,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads path, layers it over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.World.Gravity < 0 {
		return fmt.Errorf("world gravity must not be negative, got %v", c.World.Gravity)
	}
	ch := c.Character
	if ch.Radius <= 0 {
		return fmt.Errorf("character radius must be positive, got %v", ch.Radius)
	}
	if ch.Height <= 0 {
		return fmt.Errorf("character height must be positive, got %v", ch.Height)
	}
	if len(ch.Center) != 0 && len(ch.Center) != 3 {
		return fmt.Errorf("character center needs 3 components, got %d", len(ch.Center))
	}
	if ch.MaxStepHeight < 0 {
		return fmt.Errorf("character max_step_height must not be negative, got %v", ch.MaxStepHeight)
	}
	if ch.MaxSlopeAngle < 0 || ch.MaxSlopeAngle >= 90 {
		return fmt.Errorf("character max_slope_angle must be in [0, 90), got %v", ch.MaxSlopeAngle)
	}
	seen := make(map[string]bool, len(c.Animations))
	for i, a := range c.Animations {
		if a.Name == "" {
			return fmt.Errorf("animation %d has no name", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("animation %q listed twice", a.Name)
		}
		seen[a.Name] = true
		if a.LengthSeconds <= 0 {
			return fmt.Errorf("animation %q length_seconds must be positive, got %v", a.Name, a.LengthSeconds)
		}
		if a.MoveSpeed < 0 {
			return fmt.Errorf("animation %q move_speed must not be negative, got %v", a.Name, a.MoveSpeed)
		}
	}
	return nil
}

// Watch reloads path on every change and hands valid configurations to
// apply. Invalid or half-written files are logged and skipped. The watcher
// runs until Close is called on the returned value.
//
// The parent directory is watched rather than the file itself: editors and
// deploy tools typically replace the file, which would silently detach a
// file-level watch.
func Watch(path string, apply func(*Config)) (*fsnotify.Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name != abs || !ev.Op.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				cfg, err := Load(abs)
				if err != nil {
					slog.Warn("Config reload skipped", "path", abs, "error", err)
					continue
				}
				slog.Info("Config reloaded", "path", abs)
				apply(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("Config watcher error", "error", err)
			}
		}
	}()
	return w, nil
}
