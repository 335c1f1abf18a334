// Package trainer implements the reaction rounds and the session bookkeeping
// of a rock-paper-scissors reaction training session.
package trainer

import (
	"errors"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ErrUnknownDifficulty is returned when a difficulty name has no preset.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// ErrInvalidDifficulty is returned when a difficulty has out-of-range values.
var ErrInvalidDifficulty = errors.New("invalid difficulty")

// Difficulty controls round polarity odds and the pause before each round.
type Difficulty struct {
	Name     string
	Label    string
	WinRatio float64 // probability a round asks for the winning gesture
	MinDelay time.Duration
	MaxDelay time.Duration
}

// DefaultDifficulty is the preset used when none is configured.
const DefaultDifficulty = "medium"

// DefaultRequiredTrials is the session length used when none is configured.
const DefaultRequiredTrials = 10

var presets = map[string]Difficulty{
	"easy": {
		Name:     "easy",
		Label:    "Easy",
		WinRatio: 0.80,
		MinDelay: 3000 * time.Millisecond,
		MaxDelay: 5000 * time.Millisecond,
	},
	"medium": {
		Name:     "medium",
		Label:    "Medium",
		WinRatio: 0.65,
		MinDelay: 1800 * time.Millisecond,
		MaxDelay: 3500 * time.Millisecond,
	},
	"hard": {
		Name:     "hard",
		Label:    "Hard",
		WinRatio: 0.50,
		MinDelay: 800 * time.Millisecond,
		MaxDelay: 2000 * time.Millisecond,
	},
}

// Preset returns the built-in difficulty with the given name.
func Preset(name string) (Difficulty, error) {
	d, ok := presets[name]
	if !ok {
		return Difficulty{}, goerr.Wrap(ErrUnknownDifficulty, "no such preset", goerr.V("name", name))
	}
	return d, nil
}

// PresetNames returns the built-in difficulty names sorted by ascending
// challenge (longest delay first).
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return presets[names[i]].MaxDelay > presets[names[j]].MaxDelay
	})
	return names
}

// Validate checks that the ratio is a probability and the delay bounds are ordered.
func (d Difficulty) Validate() error {
	if d.Name == "" {
		return goerr.Wrap(ErrInvalidDifficulty, "name is empty")
	}
	if d.WinRatio < 0 || d.WinRatio > 1 {
		return goerr.Wrap(ErrInvalidDifficulty, "win ratio must be within [0,1]",
			goerr.V("name", d.Name), goerr.V("win_ratio", d.WinRatio))
	}
	if d.MinDelay < 0 || d.MaxDelay < d.MinDelay {
		return goerr.Wrap(ErrInvalidDifficulty, "delay bounds must satisfy 0 <= min <= max",
			goerr.V("name", d.Name), goerr.V("min", d.MinDelay), goerr.V("max", d.MaxDelay))
	}
	return nil
}

// Delay draws a pre-round pause uniformly from [MinDelay, MaxDelay].
func (d Difficulty) Delay(rng *rand.Rand) time.Duration {
	span := d.MaxDelay - d.MinDelay
	if span <= 0 {
		return d.MinDelay
	}
	return d.MinDelay + time.Duration(rng.Float64()*float64(span))
}
