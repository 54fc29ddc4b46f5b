package score

import (
	"math/rand"
	"testing"
	"time"

	"git.lost.host/meutraa/rushline/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func notesAt(times ...int64) []*game.Note {
	return game.ChartFromMillis(game.Easy, times).NewNotes()
}

var judgeTests = []struct {
	name     string
	notes    []int64
	tap      int64
	expected game.Judgement
	note     int // Index of the resolved note, -1 for none
}{
	{"exact", []int64{1000}, 1000, game.Perfect, 0},
	{"perfect early edge", []int64{1000}, 941, game.Perfect, 0},
	{"good at perfect window", []int64{1000}, 1060, game.Good, 0},
	{"good late", []int64{1000}, 1149, game.Good, 0},
	{"outside match window", []int64{1000}, 1150, game.Penalty, -1},
	{"too early", []int64{1000}, 850, game.Penalty, -1},
	{"closest wins", []int64{1000, 1100}, 1080, game.Perfect, 1},
	{"tie goes to earliest", []int64{1000, 1100}, 1050, game.Perfect, 0},
	{"good tie goes to earliest", []int64{1000, 1200}, 1100, game.Good, 0},
	{"empty", []int64{}, 0, game.Penalty, -1},
}

func TestJudge(t *testing.T) {
	for _, test := range judgeTests {
		t.Run(test.name, func(t *testing.T) {
			notes := notesAt(test.notes...)
			e := NewEngine(notes)
			res := e.Judge(ms(test.tap))
			assert.Equal(t, test.expected, res.Judgement)
			if test.note < 0 {
				assert.Nil(t, res.Note)
				for _, n := range notes {
					assert.False(t, n.Resolved)
				}
				return
			}
			require.NotNil(t, res.Note)
			assert.Same(t, notes[test.note], res.Note)
			assert.True(t, res.Note.Resolved)
			assert.Equal(t, ms(test.tap)-res.Note.Time, res.Offset)
		})
	}
}

func TestJudgeSkipsResolvedNotes(t *testing.T) {
	notes := notesAt(1000, 1050)
	e := NewEngine(notes)
	first := e.Judge(ms(1000))
	second := e.Judge(ms(1000))
	assert.Same(t, notes[0], first.Note)
	assert.Same(t, notes[1], second.Note)
	assert.Equal(t, game.Perfect, second.Judgement)
	assert.Equal(t, game.Penalty, e.Judge(ms(1000)).Judgement)
	assert.Equal(t, 0, e.Remaining())
}

func TestSweep(t *testing.T) {
	notes := notesAt(100, 300, 500)
	e := NewEngine(notes)

	assert.Empty(t, e.Sweep(ms(300)), "exactly MissGrace past is still live")
	misses := e.Sweep(ms(301))
	require.Len(t, misses, 1)
	assert.Equal(t, game.Miss, misses[0].Judgement)
	assert.Same(t, notes[0], misses[0].Note)

	misses = e.Sweep(ms(2000))
	require.Len(t, misses, 2)
	assert.Same(t, notes[1], misses[0].Note)
	assert.Same(t, notes[2], misses[1].Note)
	assert.Empty(t, e.Sweep(ms(5000)), "notes are never swept twice")
}

// Chart [100, 300, 500] with taps at [105, 302, 900]. The frame at 900 first
// sweeps the note at 500, then the tap finds nothing left to hit.
func TestScenarioA(t *testing.T) {
	notes := notesAt(100, 300, 500)
	e := NewEngine(notes)
	scorer := NewComboScorer(nil)
	d := game.Difficulties[game.Easy]

	var (
		tally  game.Tally
		total  int
		byNote []game.Judgement
		combos []int
	)
	apply := func(r Result) {
		out := scorer.Apply(tally, total, r.Judgement, d)
		tally = out.Tally
		total += out.Delta
		if nil != r.Note {
			byNote = append(byNote, r.Judgement)
			combos = append(combos, tally.Combo)
		}
	}

	for _, tap := range []int64{105, 302, 900} {
		for _, r := range e.Sweep(ms(tap)) {
			apply(r)
		}
		res := e.Judge(ms(tap))
		apply(res)
		if tap == 900 {
			assert.Equal(t, game.Penalty, res.Judgement)
		}
	}

	assert.Equal(t, []game.Judgement{game.Perfect, game.Perfect, game.Miss}, byNote)
	assert.Equal(t, []int{1, 2, 0}, combos)
	assert.Equal(t, 0, tally.Combo)
	assert.Equal(t, 1, tally.MissCount)
	assert.Equal(t, 199, total)
}

func randomChart(r *rand.Rand) []int64 {
	n := r.Intn(60) + 1
	times := make([]int64, n)
	at := int64(0)
	for i := range times {
		at += int64(r.Intn(400))
		times[i] = at
	}
	return times
}

type frame struct {
	now  time.Duration
	taps []time.Duration
}

func randomFrames(r *rand.Rand, until int64) []frame {
	var frames []frame
	for now := int64(0); now < until+1000; now += 16 {
		f := frame{now: ms(now)}
		for r.Intn(6) == 0 {
			f.taps = append(f.taps, ms(now-int64(r.Intn(16))))
		}
		frames = append(frames, f)
	}
	return frames
}

func replay(times []int64, frames []frame) []Result {
	e := NewEngine(notesAt(times...))
	var out []Result
	for _, f := range frames {
		out = append(out, e.Sweep(f.now)...)
		for _, tap := range f.taps {
			out = append(out, e.Judge(tap))
		}
	}
	return out
}

func TestJudgeIsDeterministic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		times := randomChart(r)
		frames := randomFrames(r, times[len(times)-1])
		first, second := replay(times, frames), replay(times, frames)
		require.Equal(t, len(first), len(second))
		for j := range first {
			assert.Equal(t, first[j].Judgement, second[j].Judgement)
			assert.Equal(t, first[j].Offset, second[j].Offset)
		}
	}
}

func TestEveryNoteResolvesExactlyOnce(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		times := randomChart(r)
		notes := notesAt(times...)
		e := NewEngine(notes)
		seen := map[*game.Note]int{}
		for _, f := range randomFrames(r, times[len(times)-1]) {
			for _, res := range e.Sweep(f.now) {
				seen[res.Note]++
			}
			for _, tap := range f.taps {
				if res := e.Judge(tap); nil != res.Note {
					seen[res.Note]++
				}
			}
		}
		require.Len(t, seen, len(notes))
		for _, n := range notes {
			assert.Equal(t, 1, seen[n])
			assert.True(t, n.Resolved)
		}
	}
}
