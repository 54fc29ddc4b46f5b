package game

import "time"

type Note struct {
	Time time.Duration // The time the note should be hit

	// This is state
	Resolved bool // Hit or swept past the judgment line
}

// Resolve marks the note as resolved and reports whether this call did it.
// A note only ever transitions once.
func (note *Note) Resolve() bool {
	if note.Resolved {
		return false
	}
	note.Resolved = true
	return true
}
