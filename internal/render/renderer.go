package render

import (
	"context"
	"image/color"
	"time"

	"git.lost.host/meutraa/rushline/internal/game"
	"github.com/jonboulle/clockwork"
)

// LevelOption is one entry of the difficulty selection screen.
type LevelOption struct {
	Level    game.Level
	Unlocked bool
}

// Frame is everything drawn in one refresh.
type Frame struct {
	State    game.SessionState
	Best     game.ScoreEntry
	Speed    float64
	Upcoming []time.Duration
	Levels   []LevelOption
}

type Renderer interface {
	Init() error
	Deinit() error
	Draw(f Frame)
	Loop(ctx context.Context, c clockwork.Clock, period time.Duration, frame func() Frame)
	AddDecoration(col, row uint16, content string, frames int)
	Fill(row, column uint16, message string)
	FillColor(row, column uint16, color color.RGBA, message string)
}
