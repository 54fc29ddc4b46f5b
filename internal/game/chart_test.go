package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartValidate(t *testing.T) {
	cases := []struct {
		name  string
		chart *Chart
		err   error
	}{
		{"nil", nil, ErrEmptyChart},
		{"empty", ChartFromMillis(Easy, nil), ErrEmptyChart},
		{"negative", ChartFromMillis(Easy, []int64{-1, 100}), ErrUnsortedChart},
		{"unsorted", ChartFromMillis(Easy, []int64{100, 50}), ErrUnsortedChart},
		{"equal times", ChartFromMillis(Easy, []int64{100, 100, 200}), nil},
		{"sorted", ChartFromMillis(Easy, []int64{0, 100, 200}), nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.chart.Validate()
			if nil == c.err {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, c.err)
		})
	}
}

func TestNewNotesAreFresh(t *testing.T) {
	chart := ChartFromMillis(Normal, []int64{100, 300})
	first := chart.NewNotes()
	require.Len(t, first, 2)
	assert.True(t, first[0].Resolve())
	assert.False(t, first[0].Resolve(), "a note resolves once")

	second := chart.NewNotes()
	assert.False(t, second[0].Resolved)
	assert.Equal(t, 300*time.Millisecond, second[1].Time)
	assert.Equal(t, 300*time.Millisecond, chart.Duration())
}

func TestDifficulties(t *testing.T) {
	for _, l := range Levels {
		d, err := l.Difficulty()
		require.NoError(t, err)
		assert.Equal(t, l.String(), d.Label)
		assert.True(t, d.ScoreField.Valid())

		parsed, err := LevelFromLabel(" " + d.Label + " ")
		require.NoError(t, err)
		assert.Equal(t, l, parsed)
	}

	_, err := Level(7).Difficulty()
	assert.ErrorIs(t, err, ErrUnknownDifficulty)
	_, err = LevelFromLabel("expert")
	assert.ErrorIs(t, err, ErrUnknownDifficulty)
	assert.Equal(t, "unknown", Level(7).String())
}

func TestPhaseAndJudgementNames(t *testing.T) {
	assert.Equal(t, "playing", Playing.String())
	assert.Equal(t, "unknown", Phase(42).String())
	assert.Equal(t, "penalty", Penalty.String())
	assert.True(t, Good.Hit())
	assert.False(t, Penalty.Hit())
	assert.True(t, Identity{}.Guest())
}
