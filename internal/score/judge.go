package score

import (
	"time"

	"git.lost.host/meutraa/rushline/internal/game"
)

// Engine matches taps to the unresolved notes of one session.
// Notes must be in ascending time order. The engine mutates only Note.Resolved.
type Engine struct {
	notes []*game.Note
	head  int // Every note before head is resolved
}

func NewEngine(notes []*game.Note) *Engine {
	e := &Engine{notes: notes}
	e.advance()
	return e
}

func (e *Engine) advance() {
	for e.head < len(e.notes) && e.notes[e.head].Resolved {
		e.head++
	}
}

// Judge resolves the unresolved note closest to at within MatchWindow.
// Ties go to the earlier note. Without a candidate the tap is a Penalty.
func (e *Engine) Judge(at time.Duration) Result {
	var closest *game.Note
	best := MatchWindow

	for i := e.head; i < len(e.notes); i++ {
		note := e.notes[i]
		if note.Resolved {
			continue
		}
		d := note.Time - at
		if d >= MatchWindow {
			// Every later note is further away
			break
		}
		if ad := abs(d); ad < best {
			best = ad
			closest = note
		}
	}

	if nil == closest {
		return Result{Judgement: game.Penalty}
	}

	closest.Resolve()
	e.advance()

	judgement := game.Good
	if best < PerfectWindow {
		judgement = game.Perfect
	}
	return Result{Judgement: judgement, Note: closest, Offset: at - closest.Time}
}

// Sweep resolves every note that is more than MissGrace in the past as a Miss.
func (e *Engine) Sweep(now time.Duration) []Result {
	var misses []Result
	for i := e.head; i < len(e.notes); i++ {
		note := e.notes[i]
		if now-note.Time <= MissGrace {
			break
		}
		if note.Resolve() {
			misses = append(misses, Result{Judgement: game.Miss, Note: note, Offset: now - note.Time})
		}
	}
	e.advance()
	return misses
}

// Remaining counts the unresolved notes.
func (e *Engine) Remaining() int {
	n := 0
	for _, note := range e.notes[e.head:] {
		if !note.Resolved {
			n++
		}
	}
	return n
}
