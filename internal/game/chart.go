package game

import (
	"fmt"
	"time"
)

// Chart is the fixed timing sheet for one difficulty. It is never mutated
// after loading, sessions work on the notes returned by NewNotes.
type Chart struct {
	Level Level
	Times []time.Duration
}

func (c *Chart) Validate() error {
	if nil == c || len(c.Times) == 0 {
		return ErrEmptyChart
	}
	for i, t := range c.Times {
		if t < 0 {
			return fmt.Errorf("note %d at %v: %w", i, t, ErrUnsortedChart)
		}
		if i > 0 && t < c.Times[i-1] {
			return fmt.Errorf("note %d at %v before %v: %w", i, t, c.Times[i-1], ErrUnsortedChart)
		}
	}
	return nil
}

// NewNotes returns a fresh unresolved note per chart entry.
func (c *Chart) NewNotes() []*Note {
	notes := make([]*Note, len(c.Times))
	for i, t := range c.Times {
		notes[i] = &Note{Time: t}
	}
	return notes
}

// Duration is the target time of the last note.
func (c *Chart) Duration() time.Duration {
	if len(c.Times) == 0 {
		return 0
	}
	return c.Times[len(c.Times)-1]
}

// ChartFromMillis builds a chart from raw millisecond offsets.
func ChartFromMillis(level Level, ms []int64) *Chart {
	times := make([]time.Duration, len(ms))
	for i, m := range ms {
		times[i] = time.Duration(m) * time.Millisecond
	}
	return &Chart{Level: level, Times: times}
}
