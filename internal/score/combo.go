package score

import "git.lost.host/meutraa/rushline/internal/game"

// StrayTapPenalty is taken off the score for a tap that hits nothing.
const StrayTapPenalty = 1

// Rate is the points a judgement is worth outside and inside rush-time.
type Rate struct {
	Base int
	Rush int
}

type RateTable map[game.Judgement]Rate

var DefaultRates = RateTable{
	game.Perfect: {Base: 100, Rush: 150},
	game.Good:    {Base: 50, Rush: 60},
}

// Outcome is what applying one judgement does to a session.
type Outcome struct {
	Tally game.Tally
	Delta int
	Rush  bool
}

// ComboScorer tracks combo and streak counters and prices hits from a table.
type ComboScorer struct {
	Rates RateTable
}

func NewComboScorer(rates RateTable) *ComboScorer {
	if nil == rates {
		rates = DefaultRates
	}
	return &ComboScorer{Rates: rates}
}

// Apply returns the new counters and score delta. Score plus Delta is never negative.
func (s *ComboScorer) Apply(t game.Tally, score int, j game.Judgement, d game.Difficulty) Outcome {
	switch j {
	case game.Perfect:
		t.Combo++
		t.PerfectStreak++
		t.PerfectCount++
	case game.Good:
		t.Combo++
		t.PerfectStreak = 0
		t.GoodCount++
	case game.Miss:
		t.Combo = 0
		t.PerfectStreak = 0
		t.MissCount++
	case game.Penalty:
		// Resets the combo like a miss but is not counted as one
		t.Combo = 0
		t.PerfectStreak = 0
		penalty := StrayTapPenalty
		if score < penalty {
			penalty = score
		}
		return Outcome{Tally: t, Delta: -penalty}
	default:
		return Outcome{Tally: t}
	}

	rush := IsRush(t.Combo, d)
	rate, ok := s.Rates[j]
	if !ok {
		return Outcome{Tally: t, Rush: rush}
	}
	delta := rate.Base
	if rush {
		delta = rate.Rush
	}
	return Outcome{Tally: t, Delta: delta, Rush: rush}
}

// IsRush reports whether a combo has reached the rush threshold of d.
func IsRush(combo int, d game.Difficulty) bool {
	return d.RushComboThreshold > 0 && combo >= d.RushComboThreshold
}
