package trainer_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/ayusman/neurosprint/internal/gesture"
	"github.com/ayusman/neurosprint/internal/trainer"
)

// seqSource replays fixed values so rounds can be forced.
type seqSource struct {
	vals []uint64
	i    int
}

func (s *seqSource) Uint64() uint64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

// forcedRand yields the given target and polarity on every StartRound
// (with a win ratio strictly between 0 and 1).
func forcedRand(target gesture.Gesture, p gesture.Polarity) *rand.Rand {
	var tv, pv uint64
	switch target {
	case gesture.Rock:
		tv = 1
	case gesture.Scissors:
		tv = 1 << 63
	case gesture.Paper:
		tv = math.MaxUint64
	}
	pv = 1
	if p == gesture.Lose {
		pv = math.MaxUint64
	}
	return rand.New(&seqSource{vals: []uint64{tv, pv}})
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func medium(t *testing.T) trainer.Difficulty {
	t.Helper()
	d, err := trainer.Preset("medium")
	gt.NoError(t, err)
	return d
}

func TestRoundEngine_ForcedRounds(t *testing.T) {
	for _, target := range gesture.Answerable {
		for _, p := range []gesture.Polarity{gesture.Win, gesture.Lose} {
			s := trainer.NewSession(medium(t), 3)
			e := trainer.NewRoundEngine(s, trainer.WithRand(forcedRand(target, p)))

			spec := e.StartRound(medium(t))
			gt.V(t, spec.Target).Equal(target)
			gt.V(t, spec.Polarity).Equal(p)
		}
	}
}

func TestRoundEngine_RockWinScenario(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	d := medium(t)
	s := trainer.NewSession(d, 3)
	e := trainer.NewRoundEngine(s,
		trainer.WithRand(forcedRand(gesture.Rock, gesture.Win)),
		trainer.WithClock(clk.Now),
	)

	spec := e.StartRound(d)
	gt.V(t, spec.Expected()).Equal(gesture.Paper)

	// scissors loses to rock, so it is the wrong answer for a win round
	clk.Advance(150 * time.Millisecond)
	v, err := e.Evaluate(gesture.Scissors)
	gt.NoError(t, err)
	gt.B(t, v.Correct).False()
	gt.N(t, s.Snapshot().TotalWrong).Equal(1)
	gt.N(t, e.WrongAttempts()).Equal(1)

	clk.Advance(237*time.Millisecond + 456*time.Microsecond)
	v, err = e.Evaluate(gesture.Paper)
	gt.NoError(t, err)
	gt.B(t, v.Correct).True()
	gt.V(t, v.ReactionMs).Equal(387.46)

	st := s.Snapshot()
	gt.N(t, st.CompletedTrials).Equal(1)
	gt.N(t, st.RoundsPresented).Equal(1)
	gt.A(t, st.ReactionSamples).Length(1)

	trials := s.Trials()
	gt.A(t, trials).Length(1)
	gt.V(t, trials[0].WrongAttempts).Equal(1)
	gt.V(t, trials[0].Response).Equal(gesture.Paper)
	gt.V(t, trials[0].Target).Equal(gesture.Rock)
}

func TestRoundEngine_PaperLose(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	d := medium(t)
	s := trainer.NewSession(d, 1)
	e := trainer.NewRoundEngine(s,
		trainer.WithRand(forcedRand(gesture.Paper, gesture.Lose)),
		trainer.WithClock(clk.Now),
	)

	spec := e.StartRound(d)
	gt.V(t, spec.Expected()).Equal(gesture.Loser(gesture.Paper))
	gt.V(t, spec.Expected()).Equal(gesture.Rock)

	v, err := e.Evaluate(gesture.Scissors)
	gt.NoError(t, err)
	gt.B(t, v.Correct).False()

	v, err = e.Evaluate(gesture.Rock)
	gt.NoError(t, err)
	gt.B(t, v.Correct).True()
	gt.B(t, s.IsComplete()).True()
}

func TestRoundEngine_RoundStaysOpenAfterWrong(t *testing.T) {
	d := medium(t)
	s := trainer.NewSession(d, 5)
	e := trainer.NewRoundEngine(s, trainer.WithRand(forcedRand(gesture.Scissors, gesture.Win)))
	e.StartRound(d)

	for i := 0; i < 4; i++ {
		v, err := e.Evaluate(gesture.Paper)
		gt.NoError(t, err)
		gt.B(t, v.Correct).False()
		_, open := e.Current()
		gt.B(t, open).True()
	}

	v, err := e.Evaluate(gesture.Rock)
	gt.NoError(t, err)
	gt.B(t, v.Correct).True()
	_, open := e.Current()
	gt.B(t, open).False()

	st := s.Snapshot()
	gt.N(t, st.TotalWrong).Equal(4)
	gt.N(t, st.CompletedTrials).Equal(1)
	gt.V(t, s.Trials()[0].WrongAttempts).Equal(4)
}

func TestRoundEngine_WrongCounterResetsPerRound(t *testing.T) {
	d := medium(t)
	s := trainer.NewSession(d, 5)
	e := trainer.NewRoundEngine(s, trainer.WithRand(forcedRand(gesture.Rock, gesture.Win)))

	e.StartRound(d)
	_, _ = e.Evaluate(gesture.Rock)
	_, _ = e.Evaluate(gesture.Paper)

	e.StartRound(d)
	gt.N(t, e.WrongAttempts()).Equal(0)
	_, _ = e.Evaluate(gesture.Paper)

	trials := s.Trials()
	gt.A(t, trials).Length(2)
	gt.V(t, trials[0].WrongAttempts).Equal(1)
	gt.V(t, trials[1].WrongAttempts).Equal(0)
	gt.N(t, s.Snapshot().RoundsPresented).Equal(2)
}

func TestRoundEngine_Errors(t *testing.T) {
	d := medium(t)
	s := trainer.NewSession(d, 2)
	e := trainer.NewRoundEngine(s)

	_, err := e.Evaluate(gesture.Rock)
	gt.B(t, errors.Is(err, trainer.ErrNoOpenRound)).True()

	e.StartRound(d)
	for _, g := range []gesture.Gesture{gesture.Neutral, gesture.Unknown} {
		_, err := e.Evaluate(g)
		gt.B(t, errors.Is(err, trainer.ErrNotAnswerable)).True()
	}
	gt.N(t, s.Snapshot().TotalWrong).Equal(0)

	e.Cancel()
	_, err = e.Evaluate(gesture.Rock)
	gt.B(t, errors.Is(err, trainer.ErrNoOpenRound)).True()
}

func TestRoundEngine_ReactionNeverNegative(t *testing.T) {
	clk := &fakeClock{now: time.Unix(5000, 0)}
	d := medium(t)
	s := trainer.NewSession(d, 1)
	e := trainer.NewRoundEngine(s,
		trainer.WithRand(forcedRand(gesture.Rock, gesture.Win)),
		trainer.WithClock(clk.Now),
	)
	e.StartRound(d)
	clk.Advance(-time.Second)

	v, err := e.Evaluate(gesture.Paper)
	gt.NoError(t, err)
	gt.V(t, v.ReactionMs).Equal(0.0)
}

func TestRoundEngine_PolarityFollowsRatio(t *testing.T) {
	s := trainer.NewSession(medium(t), 1)
	e := trainer.NewRoundEngine(s, trainer.WithRand(rand.New(rand.NewPCG(7, 11))))

	always := trainer.Difficulty{Name: "always", WinRatio: 1}
	never := trainer.Difficulty{Name: "never", WinRatio: 0}
	for i := 0; i < 50; i++ {
		gt.V(t, e.StartRound(always).Polarity).Equal(gesture.Win)
		gt.V(t, e.StartRound(never).Polarity).Equal(gesture.Lose)
	}
	gt.N(t, s.Snapshot().RoundsPresented).Equal(100)
}

func TestSession_FailuresThenSuccess(t *testing.T) {
	s := trainer.NewSession(medium(t), 3)

	for i := 0; i < 5; i++ {
		s.RecordFailure()
	}
	s.RecordSuccess(trainer.RoundResult{ReactionMs: 300})

	st := s.Snapshot()
	gt.N(t, st.CompletedTrials).Equal(1)
	gt.N(t, st.TotalWrong).Equal(5)
	gt.A(t, st.ReactionSamples).Length(1)
}

func TestSession_IsComplete(t *testing.T) {
	s := trainer.NewSession(medium(t), 3)

	for i := 0; i < 3; i++ {
		gt.B(t, s.IsComplete()).False()
		s.RecordSuccess(trainer.RoundResult{ReactionMs: float64(200 + i)})
	}
	gt.B(t, s.IsComplete()).True()

	// extra results never push completed beyond required
	s.RecordSuccess(trainer.RoundResult{ReactionMs: 999})
	gt.N(t, s.Snapshot().CompletedTrials).Equal(3)
	gt.A(t, s.Snapshot().ReactionSamples).Length(3)
}

func TestSession_StatsEmpty(t *testing.T) {
	s := trainer.NewSession(medium(t), 10)
	s.RecordFailure()

	sum := s.Stats()
	gt.V(t, sum.AvgReactionMs).Equal(0.0)
	gt.V(t, sum.MinReactionMs).Equal(0.0)
	gt.V(t, sum.MaxReactionMs).Equal(0.0)
	gt.V(t, sum.StdDevMs).Equal(0.0)
	gt.V(t, sum.Accuracy).Equal(0.0)
	gt.N(t, sum.TotalWrong).Equal(1)
	gt.N(t, sum.TrialsRequired).Equal(10)
	gt.V(t, sum.Difficulty).Equal("medium")
}

func TestSession_StatsValues(t *testing.T) {
	s := trainer.NewSession(medium(t), 4)
	for _, v := range []float64{200, 300, 400, 500} {
		s.RecordSuccess(trainer.RoundResult{ReactionMs: v})
	}

	sum := s.Stats()
	gt.V(t, sum.AvgReactionMs).Equal(350.0)
	gt.V(t, sum.MinReactionMs).Equal(200.0)
	gt.V(t, sum.MaxReactionMs).Equal(500.0)
	// sqrt(50000/3)
	gt.V(t, sum.StdDevMs).Equal(129.1)
}

func TestSession_StdDevSingleSample(t *testing.T) {
	s := trainer.NewSession(medium(t), 4)
	s.RecordSuccess(trainer.RoundResult{ReactionMs: 321.5})

	sum := s.Stats()
	gt.V(t, sum.StdDevMs).Equal(0.0)
	gt.V(t, sum.AvgReactionMs).Equal(321.5)
}

func TestSession_AccuracyAgainstPresentations(t *testing.T) {
	d := medium(t)
	s := trainer.NewSession(d, 2)
	e := trainer.NewRoundEngine(s, trainer.WithRand(forcedRand(gesture.Rock, gesture.Win)))

	e.StartRound(d)
	_, _ = e.Evaluate(gesture.Paper)
	e.StartRound(d)

	sum := s.Stats()
	gt.N(t, sum.RoundsPresented).Equal(2)
	gt.N(t, sum.TrialsCompleted).Equal(1)
	gt.V(t, sum.Accuracy).Equal(0.5)
}

func TestSession_FinalizeResets(t *testing.T) {
	d := medium(t)
	s := trainer.NewSession(d, 2)
	s.RecordFailure()
	s.RecordSuccess(trainer.RoundResult{ReactionMs: 250, Response: gesture.Rock})
	s.RecordSuccess(trainer.RoundResult{ReactionMs: 350, Response: gesture.Paper})

	sum, trials := s.Finalize()
	gt.N(t, sum.TrialsCompleted).Equal(2)
	gt.N(t, sum.TotalWrong).Equal(1)
	gt.V(t, sum.AvgReactionMs).Equal(300.0)
	gt.B(t, sum.EndedAt.IsZero()).False()
	gt.A(t, trials).Length(2)
	gt.V(t, trials[1].Response).Equal(gesture.Paper)

	st := s.Snapshot()
	gt.N(t, st.CompletedTrials).Equal(0)
	gt.N(t, st.TotalWrong).Equal(0)
	gt.N(t, st.RequiredTrials).Equal(2)
	gt.V(t, st.Difficulty.Name).Equal("medium")
	gt.A(t, s.Trials()).Length(0)
	gt.B(t, s.IsComplete()).False()
}

func TestDifficulty_Presets(t *testing.T) {
	names := trainer.PresetNames()
	gt.A(t, names).Length(3)
	gt.V(t, names[0]).Equal("easy")
	gt.V(t, names[2]).Equal("hard")

	for _, n := range names {
		d, err := trainer.Preset(n)
		gt.NoError(t, err)
		gt.NoError(t, d.Validate())
	}

	_, err := trainer.Preset("nightmare")
	gt.B(t, errors.Is(err, trainer.ErrUnknownDifficulty)).True()
}

func TestDifficulty_Validate(t *testing.T) {
	tests := []struct {
		name string
		d    trainer.Difficulty
		ok   bool
	}{
		{"valid", trainer.Difficulty{Name: "x", WinRatio: 0.5, MinDelay: time.Second, MaxDelay: 2 * time.Second}, true},
		{"equal bounds", trainer.Difficulty{Name: "x", WinRatio: 1, MinDelay: time.Second, MaxDelay: time.Second}, true},
		{"ratio above one", trainer.Difficulty{Name: "x", WinRatio: 1.1}, false},
		{"negative ratio", trainer.Difficulty{Name: "x", WinRatio: -0.1}, false},
		{"inverted delays", trainer.Difficulty{Name: "x", MinDelay: 2 * time.Second, MaxDelay: time.Second}, false},
		{"no name", trainer.Difficulty{WinRatio: 0.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if tt.ok {
				gt.NoError(t, err)
			} else {
				gt.B(t, errors.Is(err, trainer.ErrInvalidDifficulty)).True()
			}
		})
	}
}

func TestDifficulty_DelayWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, n := range trainer.PresetNames() {
		d, err := trainer.Preset(n)
		gt.NoError(t, err)
		for i := 0; i < 200; i++ {
			delay := d.Delay(rng)
			gt.B(t, delay >= d.MinDelay && delay <= d.MaxDelay).True()
		}
	}

	fixed := trainer.Difficulty{Name: "fixed", MinDelay: time.Second, MaxDelay: time.Second}
	gt.V(t, fixed.Delay(rng)).Equal(time.Second)
}
