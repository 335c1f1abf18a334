package debounce_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/ayusman/neurosprint/internal/debounce"
	"github.com/ayusman/neurosprint/internal/gesture"
)

func openRound(t *testing.T) *debounce.Debouncer {
	t.Helper()
	d := debounce.New()
	d.Begin()
	ev := d.Feed(gesture.Neutral)
	gt.V(t, ev.Kind).Equal(debounce.NeutralAcknowledged)
	gt.B(t, d.OpenRound()).True()
	gt.V(t, d.State()).Equal(debounce.RoundOpen)
	return d
}

func candidates(d *debounce.Debouncer, labels ...gesture.Gesture) []gesture.Gesture {
	var out []gesture.Gesture
	for _, l := range labels {
		if ev := d.Feed(l); ev.Kind == debounce.Candidate {
			out = append(out, ev.Gesture)
		}
	}
	return out
}

func TestDebouncer_IdleIgnoresEverything(t *testing.T) {
	d := debounce.New()
	for _, l := range []gesture.Gesture{gesture.Neutral, gesture.Rock, gesture.Paper} {
		gt.V(t, d.Feed(l).Kind).Equal(debounce.NoEvent)
	}
	gt.V(t, d.State()).Equal(debounce.Idle)
	gt.B(t, d.OpenRound()).False()
}

func TestDebouncer_NeutralGate(t *testing.T) {
	d := debounce.New()
	d.Begin()

	for _, l := range []gesture.Gesture{gesture.Rock, gesture.Unknown, gesture.Paper, gesture.Scissors} {
		gt.V(t, d.Feed(l).Kind).Equal(debounce.NoEvent)
		gt.V(t, d.State()).Equal(debounce.AwaitingNeutral)
	}

	ev := d.Feed(gesture.Neutral)
	gt.V(t, ev.Kind).Equal(debounce.NeutralAcknowledged)
	gt.V(t, d.State()).Equal(debounce.Arming)

	// held neutral and anything else while arming produce nothing
	for _, l := range []gesture.Gesture{gesture.Neutral, gesture.Rock, gesture.Neutral} {
		gt.V(t, d.Feed(l).Kind).Equal(debounce.NoEvent)
	}
	gt.V(t, d.State()).Equal(debounce.Arming)
}

func TestDebouncer_HeldGestureEvaluatedOnce(t *testing.T) {
	d := openRound(t)

	got := candidates(d, gesture.Rock, gesture.Rock, gesture.Rock, gesture.Rock, gesture.Rock)
	gt.A(t, got).Length(1)
	gt.V(t, got[0]).Equal(gesture.Rock)
}

func TestDebouncer_ChangeRetriggers(t *testing.T) {
	d := openRound(t)

	got := candidates(d, gesture.Rock, gesture.Rock, gesture.Paper, gesture.Paper)
	gt.A(t, got).Length(2)
	gt.V(t, got[0]).Equal(gesture.Rock)
	gt.V(t, got[1]).Equal(gesture.Paper)

	// switching back to an earlier label is a change as well
	got = candidates(d, gesture.Rock)
	gt.A(t, got).Length(1)
}

func TestDebouncer_NeutralOrLostHandClearsLast(t *testing.T) {
	for _, sentinel := range []gesture.Gesture{gesture.Neutral, gesture.Unknown} {
		t.Run(string(sentinel), func(t *testing.T) {
			d := openRound(t)

			got := candidates(d, gesture.Scissors, sentinel, gesture.Scissors)
			gt.A(t, got).Length(2)
			gt.V(t, d.State()).Equal(debounce.RoundOpen)
		})
	}
}

func TestDebouncer_SuccessReturnsToNeutralGate(t *testing.T) {
	d := openRound(t)
	gt.A(t, candidates(d, gesture.Paper)).Length(1)

	d.Succeeded()
	gt.V(t, d.State()).Equal(debounce.PostSuccessCooldown)

	// still holding the answer: cooldown ends, gate waits for neutral
	gt.V(t, d.Feed(gesture.Paper).Kind).Equal(debounce.NoEvent)
	gt.V(t, d.State()).Equal(debounce.AwaitingNeutral)

	gt.V(t, d.Feed(gesture.Neutral).Kind).Equal(debounce.NeutralAcknowledged)
	gt.B(t, d.OpenRound()).True()

	// previous answer is a fresh candidate in the new round
	gt.A(t, candidates(d, gesture.Paper)).Length(1)
}

func TestDebouncer_NeutralDuringCooldownArms(t *testing.T) {
	d := openRound(t)
	d.Feed(gesture.Rock)
	d.Succeeded()

	gt.V(t, d.Feed(gesture.Neutral).Kind).Equal(debounce.NeutralAcknowledged)
	gt.V(t, d.State()).Equal(debounce.Arming)
}

func TestDebouncer_NeutralIsEdgeTriggered(t *testing.T) {
	d := openRound(t)
	d.Feed(gesture.Rock)
	d.Succeeded()
	d.Feed(gesture.Rock)

	gt.V(t, d.Feed(gesture.Neutral).Kind).Equal(debounce.NeutralAcknowledged)
}

func TestDebouncer_EndIsTerminal(t *testing.T) {
	states := []func(*debounce.Debouncer){
		func(d *debounce.Debouncer) {},
		func(d *debounce.Debouncer) { d.Begin() },
		func(d *debounce.Debouncer) { d.Begin(); d.Feed(gesture.Neutral) },
		func(d *debounce.Debouncer) { d.Begin(); d.Feed(gesture.Neutral); d.OpenRound() },
	}

	for _, setup := range states {
		d := debounce.New()
		setup(d)
		d.End()

		gt.V(t, d.State()).Equal(debounce.Ended)
		for _, l := range []gesture.Gesture{gesture.Neutral, gesture.Rock, gesture.Paper, gesture.Unknown} {
			gt.V(t, d.Feed(l).Kind).Equal(debounce.NoEvent)
		}
		gt.B(t, d.OpenRound()).False()
		d.Begin()
		gt.V(t, d.State()).Equal(debounce.Ended)
	}
}

func TestDebouncer_NoCandidateOutsideRoundOpen(t *testing.T) {
	d := debounce.New()
	d.Begin()
	seq := []gesture.Gesture{gesture.Rock, gesture.Paper, gesture.Neutral, gesture.Scissors, gesture.Rock}
	for _, l := range seq {
		gt.V(t, d.Feed(l).Kind == debounce.Candidate).Equal(false)
	}
	gt.V(t, d.State()).Equal(debounce.Arming)
}

func TestState_String(t *testing.T) {
	gt.V(t, debounce.RoundOpen.String()).Equal("round_open")
	gt.V(t, debounce.State(99).String()).Equal("invalid")
}
