package score

import (
	"time"

	"git.lost.host/meutraa/rushline/internal/game"
)

const (
	MatchWindow   = 150 * time.Millisecond // Widest window an input may resolve a note in
	PerfectWindow = 60 * time.Millisecond
	MissGrace     = 200 * time.Millisecond // How far past its time a note stays hittable
)

// Result is one judgement reported by the engine.
type Result struct {
	Judgement game.Judgement
	Note      *game.Note    // nil for a Penalty
	Offset    time.Duration // Input time minus note time, positive is late
}

// Judge classifies inputs against the notes of a live session.
type Judge interface {
	Judge(at time.Duration) Result
	Sweep(now time.Duration) []Result
	Remaining() int
}

// Scorer turns judgements into combo state and score deltas.
type Scorer interface {
	Apply(tally game.Tally, score int, j game.Judgement, d game.Difficulty) Outcome
}

func abs(x time.Duration) time.Duration {
	if x < 0 {
		return -x
	}
	return x
}
