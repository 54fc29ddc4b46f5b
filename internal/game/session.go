package game

import "time"

type Phase int

const (
	Selection Phase = iota
	Countdown
	Playing
	Finished
	Result
)

var phaseNames = [...]string{"selection", "countdown", "playing", "finished", "result"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Tally holds the combo and judgement counters of a session.
type Tally struct {
	Combo         int
	PerfectStreak int
	PerfectCount  int
	GoodCount     int
	MissCount     int
}

// SessionState is the transient state of the one live game session.
type SessionState struct {
	ID        string
	Level     Level
	Phase     Phase
	Countdown int // Remaining countdown number, only meaningful in Countdown
	Elapsed   time.Duration
	Score     int
	Tally
	Rush bool
	Last Judgement
	Rank string

	// Set on the result screen
	NewBest  bool
	Unlocked string
}

// Identity is the player a session is run for. An empty UserID is a guest.
type Identity struct {
	UserID string
}

func (i Identity) Guest() bool {
	return i.UserID == ""
}
