package config

import (
	"fmt"

	"github.com/ayusman/neurosprint/internal/trainer"
)

// Template returns the commented config file written by `neurosprint config`.
func Template() string {
	return fmt.Sprintf(`# neurosprint configuration
# Uncomment a value to enable it. CLI flags override config values.

[training]
# difficulty = %q       # easy, medium, hard or a custom [difficulty.<name>]
# trials = %d             # Correct answers needed to finish a session
# user = ""               # Train as this user instead of the active one
# live = ""               # Address for the live event feed, e.g. "127.0.0.1:8787"

[camera]
# device = 0
# width = 640
# height = 480
# fps = 30
# mirror = true

[detector]
# min-confidence = 0.7
# min-tracking = 0.7
# script = ""             # Path to mediapipe_service.py

[replica]
# url = ""                # Leaderboard replica, e.g. "http://127.0.0.1:8080"

[server]
# addr = ":8080"
# db = ""                 # Replica database (default: local database)

# Override a preset or define a new difficulty. Delays are in seconds.
# [difficulty.hard]
# win-probability = 0.5
# min-delay = 0.8
# max-delay = 2.0
`, trainer.DefaultDifficulty, trainer.DefaultRequiredTrials)
}
