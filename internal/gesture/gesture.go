// Package gesture defines the hand gestures used by the reaction trainer and
// the rock-paper-scissors relation between them.
package gesture

import "github.com/m-mizutani/goerr/v2"

// Gesture is a per-frame hand classification.
type Gesture string

const (
	// Rock is a closed fist.
	Rock Gesture = "rock"
	// Scissors is the index and middle fingers raised.
	Scissors Gesture = "scissors"
	// Paper is an open hand.
	Paper Gesture = "paper"
	// Neutral is the index finger alone raised; it gates the start of a round.
	Neutral Gesture = "neutral"
	// Unknown is any other pose, including no hand in frame.
	Unknown Gesture = "unknown"
)

// Answerable lists the gestures that can be scored as a response, in the
// order rounds pick from.
var Answerable = [3]Gesture{Rock, Scissors, Paper}

// beats maps each answerable gesture to the one it defeats.
var beats = map[Gesture]Gesture{
	Rock:     Scissors,
	Scissors: Paper,
	Paper:    Rock,
}

// IsAnswerable reports whether g is rock, scissors or paper.
func (g Gesture) IsAnswerable() bool {
	_, ok := beats[g]
	return ok
}

// Emoji returns the stimulus glyph shown for g.
func (g Gesture) Emoji() string {
	switch g {
	case Rock:
		return "✊"
	case Scissors:
		return "✌️"
	case Paper:
		return "🖐️"
	case Neutral:
		return "☝️"
	default:
		return "✋"
	}
}

// Parse converts a label into a Gesture.
func Parse(s string) (Gesture, error) {
	switch g := Gesture(s); g {
	case Rock, Scissors, Paper, Neutral, Unknown:
		return g, nil
	}
	return "", goerr.New("unknown gesture", goerr.V("label", s))
}

// UnmarshalText rejects labels other than the five gestures, so stored and
// pushed trials can only carry known values.
func (g *Gesture) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// Beats reports whether a defeats b.
func Beats(a, b Gesture) bool {
	loser, ok := beats[a]
	return ok && loser == b
}

// Loser returns the gesture that g defeats. It returns "" for sentinels.
func Loser(g Gesture) Gesture {
	return beats[g]
}

// Winner returns the gesture that defeats g. It returns "" for sentinels.
func Winner(g Gesture) Gesture {
	for w, l := range beats {
		if l == g {
			return w
		}
	}
	return ""
}

// Polarity selects whether the response must beat the target or lose to it.
type Polarity string

const (
	// Win asks for the gesture that beats the target (a "go" round).
	Win Polarity = "win"
	// Lose asks for the gesture the target beats (a "no-go" round).
	Lose Polarity = "lose"
)

// CorrectResponse returns the single gesture accepted for target under p.
func CorrectResponse(target Gesture, p Polarity) Gesture {
	if p == Win {
		return Winner(target)
	}
	return Loser(target)
}
