// Package config provides configuration helpers and TOML parsing.
package config

import (
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/m-mizutani/goerr/v2"

	"github.com/ayusman/neurosprint/internal/trainer"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Training     TrainingConfig                `toml:"training"`
	Camera       CameraConfig                  `toml:"camera"`
	Detector     DetectorConfig                `toml:"detector"`
	Replica      ReplicaConfig                 `toml:"replica"`
	Server       ServerConfig                  `toml:"server"`
	Difficulties map[string]DifficultyOverride `toml:"difficulty"`
}

// TrainingConfig maps session settings.
type TrainingConfig struct {
	Difficulty *string `toml:"difficulty"`
	Trials     *int    `toml:"trials"`
	User       *string `toml:"user"`
	Live       *string `toml:"live"`
}

// CameraConfig maps capture settings.
type CameraConfig struct {
	Device *int  `toml:"device"`
	Width  *int  `toml:"width"`
	Height *int  `toml:"height"`
	FPS    *int  `toml:"fps"`
	Mirror *bool `toml:"mirror"`
}

// DetectorConfig maps hand detector settings.
type DetectorConfig struct {
	MinConfidence *float64 `toml:"min-confidence"`
	MinTracking   *float64 `toml:"min-tracking"`
	Script        *string  `toml:"script"`
}

// ReplicaConfig points at a leaderboard replica. An empty URL disables
// replication.
type ReplicaConfig struct {
	URL *string `toml:"url"`
}

// ServerConfig maps `serve` settings.
type ServerConfig struct {
	Addr *string `toml:"addr"`
	DB   *string `toml:"db"`
}

// DifficultyOverride replaces individual fields of a difficulty preset.
// Delays are in seconds. A name that is not a preset defines a new
// difficulty and must set every field.
type DifficultyOverride struct {
	Label          *string  `toml:"label"`
	WinProbability *float64 `toml:"win-probability"`
	MinDelay       *float64 `toml:"min-delay"`
	MaxDelay       *float64 `toml:"max-delay"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, goerr.New("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, goerr.Wrap(err, "failed to stat config", goerr.V("path", path))
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, goerr.Wrap(err, "failed to decode config", goerr.V("path", path))
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, goerr.New("unknown config keys", goerr.V("path", path), goerr.V("keys", keys))
	}
	return cfg, nil
}

// Difficulty resolves name against the presets and any override in the
// file, then validates the result.
func (c FileConfig) Difficulty(name string) (trainer.Difficulty, error) {
	o, overridden := c.Difficulties[name]
	d, err := trainer.Preset(name)
	if err != nil {
		if !overridden {
			return trainer.Difficulty{}, err
		}
		if o.WinProbability == nil || o.MinDelay == nil || o.MaxDelay == nil {
			return trainer.Difficulty{}, goerr.Wrap(trainer.ErrInvalidDifficulty,
				"custom difficulty must set win-probability, min-delay and max-delay", goerr.V("name", name))
		}
		d = trainer.Difficulty{Name: name, Label: name}
	}

	if overridden {
		if o.Label != nil {
			d.Label = *o.Label
		}
		if o.WinProbability != nil {
			d.WinRatio = *o.WinProbability
		}
		if o.MinDelay != nil {
			d.MinDelay = seconds(*o.MinDelay)
		}
		if o.MaxDelay != nil {
			d.MaxDelay = seconds(*o.MaxDelay)
		}
	}

	if err := d.Validate(); err != nil {
		return trainer.Difficulty{}, err
	}
	return d, nil
}

// DifficultyNames lists the presets followed by custom difficulties from
// the file, sorted.
func (c FileConfig) DifficultyNames() []string {
	names := trainer.PresetNames()
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	var custom []string
	for n := range c.Difficulties {
		if !seen[n] {
			custom = append(custom, n)
		}
	}
	sort.Strings(custom)
	return append(names, custom...)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
