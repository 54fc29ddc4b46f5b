package score

import (
	"testing"

	"git.lost.host/meutraa/rushline/internal/game"
	"github.com/stretchr/testify/assert"
)

func TestComboCounters(t *testing.T) {
	s := NewComboScorer(nil)
	d := game.Difficulties[game.Normal]

	var tally game.Tally
	seq := []game.Judgement{game.Perfect, game.Perfect, game.Good, game.Perfect, game.Miss, game.Good, game.Penalty, game.Perfect}
	combos := []int{1, 2, 3, 4, 0, 1, 0, 1}
	streaks := []int{1, 2, 0, 1, 0, 0, 0, 1}
	for i, j := range seq {
		tally = s.Apply(tally, 1000, j, d).Tally
		assert.Equal(t, combos[i], tally.Combo, "combo after %d (%v)", i, j)
		assert.Equal(t, streaks[i], tally.PerfectStreak, "streak after %d (%v)", i, j)
	}
	assert.Equal(t, 4, tally.PerfectCount)
	assert.Equal(t, 2, tally.GoodCount)
	assert.Equal(t, 1, tally.MissCount, "stray taps are not misses")
}

func TestRushRates(t *testing.T) {
	s := NewComboScorer(nil)
	for _, level := range game.Levels {
		d := game.Difficulties[level]
		threshold := d.RushComboThreshold

		below := game.Tally{Combo: threshold - 2}
		out := s.Apply(below, 0, game.Perfect, d)
		assert.False(t, out.Rush)
		assert.Equal(t, 100, out.Delta)

		out = s.Apply(below, 0, game.Good, d)
		assert.Equal(t, 50, out.Delta)

		at := game.Tally{Combo: threshold - 1}
		out = s.Apply(at, 0, game.Perfect, d)
		assert.True(t, out.Rush, "%v: combo reaching the threshold is rush-time", level)
		assert.Equal(t, threshold, out.Tally.Combo)
		assert.Equal(t, 150, out.Delta)

		out = s.Apply(game.Tally{Combo: threshold + 5}, 0, game.Good, d)
		assert.True(t, out.Rush)
		assert.Equal(t, 60, out.Delta)

		out = s.Apply(game.Tally{Combo: threshold + 5}, 0, game.Miss, d)
		assert.False(t, out.Rush)
		assert.Equal(t, 0, out.Delta)
	}
}

func TestPenaltyNeverGoesNegative(t *testing.T) {
	s := NewComboScorer(nil)
	d := game.Difficulties[game.Easy]

	total := 2
	tally := game.Tally{Combo: 7, PerfectStreak: 3}
	for i := 0; i < 5; i++ {
		out := s.Apply(tally, total, game.Penalty, d)
		tally = out.Tally
		total += out.Delta
		assert.GreaterOrEqual(t, total, 0)
	}
	assert.Equal(t, 0, total)
	assert.Equal(t, 0, tally.Combo)
	assert.Equal(t, 0, tally.MissCount)
}

// A stray tap at 1000ms with nothing in range costs one point and the combo.
func TestScenarioD(t *testing.T) {
	e := NewEngine(notesAt(500, 1300))
	res := e.Judge(ms(1000))
	assert.Equal(t, game.Penalty, res.Judgement)

	s := NewComboScorer(nil)
	out := s.Apply(game.Tally{Combo: 4}, 350, res.Judgement, game.Difficulties[game.Easy])
	assert.Equal(t, -1, out.Delta)
	assert.Equal(t, 0, out.Tally.Combo)

	out = s.Apply(game.Tally{}, 0, res.Judgement, game.Difficulties[game.Easy])
	assert.Equal(t, 0, out.Delta)
}

func TestCustomRateTable(t *testing.T) {
	s := NewComboScorer(RateTable{game.Perfect: {Base: 10, Rush: 20}})
	d := game.Difficulty{RushComboThreshold: 2}
	assert.Equal(t, 10, s.Apply(game.Tally{}, 0, game.Perfect, d).Delta)
	assert.Equal(t, 20, s.Apply(game.Tally{Combo: 1}, 0, game.Perfect, d).Delta)
	assert.Equal(t, 0, s.Apply(game.Tally{}, 0, game.Good, d).Delta)
}

func TestRank(t *testing.T) {
	for expected, scores := range map[string][]int{
		"S": {9500, 10000},
		"A": {8500, 9499},
		"B": {7000},
		"C": {5000, 6999},
		"D": {0, 4999},
	} {
		for _, s := range scores {
			assert.Equal(t, expected, Rank(s, 10000), "score %d", s)
		}
	}
	assert.Equal(t, "D", Rank(100, 0))
}
