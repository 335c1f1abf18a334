package trainer

import (
	"math"
	"time"
)

// State is the mutable bookkeeping of one training session.
type State struct {
	Difficulty      Difficulty
	RequiredTrials  int
	CompletedTrials int
	ReactionSamples []float64
	TotalWrong      int
	RoundsPresented int
	StartedAt       time.Time
}

// Summary is the derived, read-only view of a session.
type Summary struct {
	AvgReactionMs   float64   `json:"avg_reaction_time"`
	MinReactionMs   float64   `json:"min_reaction"`
	MaxReactionMs   float64   `json:"max_reaction"`
	StdDevMs        float64   `json:"std_deviation"`
	TotalWrong      int       `json:"total_wrong"`
	TrialsCompleted int       `json:"trials_completed"`
	TrialsRequired  int       `json:"total_trials"`
	RoundsPresented int       `json:"total_rounds"`
	Accuracy        float64   `json:"accuracy"`
	Difficulty      string    `json:"difficulty"`
	DifficultyLabel string    `json:"difficulty_label"`
	StartedAt       time.Time `json:"start_time"`
	EndedAt         time.Time `json:"end_time,omitempty"`
}

// Session aggregates round outcomes until the required number of trials
// has been answered correctly.
type Session struct {
	state  State
	trials []RoundResult
	now    func() time.Time
}

// NewSession starts an empty session. required must be positive; values
// below one are raised to one.
func NewSession(d Difficulty, required int) *Session {
	if required < 1 {
		required = 1
	}
	s := &Session{now: time.Now}
	s.reset(d, required)
	return s
}

func (s *Session) reset(d Difficulty, required int) {
	s.state = State{
		Difficulty:      d,
		RequiredTrials:  required,
		ReactionSamples: []float64{},
		StartedAt:       s.now(),
	}
	s.trials = nil
}

func (s *Session) presentRound() {
	s.state.RoundsPresented++
}

// RecordSuccess stores a correctly answered round.
func (s *Session) RecordSuccess(r RoundResult) {
	if s.state.CompletedTrials >= s.state.RequiredTrials {
		return
	}
	s.state.ReactionSamples = append(s.state.ReactionSamples, r.ReactionMs)
	s.state.CompletedTrials++
	s.trials = append(s.trials, r)
}

// RecordFailure counts a wrong response.
func (s *Session) RecordFailure() {
	s.state.TotalWrong++
}

// IsComplete reports whether the required trials have been answered.
func (s *Session) IsComplete() bool {
	return s.state.CompletedTrials >= s.state.RequiredTrials
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	st := s.state
	st.ReactionSamples = append([]float64(nil), s.state.ReactionSamples...)
	return st
}

// Stats computes the summary of the current state. With no samples every
// reaction figure is zero.
func (s *Session) Stats() Summary {
	st := s.state
	sum := Summary{
		TotalWrong:      st.TotalWrong,
		TrialsCompleted: st.CompletedTrials,
		TrialsRequired:  st.RequiredTrials,
		RoundsPresented: st.RoundsPresented,
		Difficulty:      st.Difficulty.Name,
		DifficultyLabel: st.Difficulty.Label,
		StartedAt:       st.StartedAt,
	}
	if st.RoundsPresented > 0 {
		sum.Accuracy = roundTo(float64(st.CompletedTrials)/float64(st.RoundsPresented), 4)
	}

	samples := st.ReactionSamples
	if len(samples) == 0 {
		return sum
	}

	minV, maxV, total := samples[0], samples[0], 0.0
	for _, v := range samples {
		total += v
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	mean := total / float64(len(samples))

	sum.AvgReactionMs = roundTo(mean, 2)
	sum.MinReactionMs = roundTo(minV, 2)
	sum.MaxReactionMs = roundTo(maxV, 2)
	sum.StdDevMs = roundTo(sampleStdDev(samples, mean), 2)

	return sum
}

// Trials returns a copy of the successful rounds recorded so far.
func (s *Session) Trials() []RoundResult {
	return append([]RoundResult(nil), s.trials...)
}

// Finalize closes the session, returning its summary and per-trial log, and
// resets the aggregator to a fresh session with the same settings.
func (s *Session) Finalize() (Summary, []RoundResult) {
	sum := s.Stats()
	sum.EndedAt = s.now()
	trials := s.Trials()

	s.reset(s.state.Difficulty, s.state.RequiredTrials)
	return sum, trials
}

// sampleStdDev divides by n-1 and is zero for fewer than two samples.
func sampleStdDev(samples []float64, mean float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	var sq float64
	for _, v := range samples {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(samples)-1))
}
