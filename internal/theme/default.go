package theme

import (
	"fmt"
	"image/color"

	"git.lost.host/meutraa/rushline/internal/game"
)

type DefaultTheme struct {
}

func paint(c color.RGBA, s string) string {
	return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", c.R, c.G, c.B, s)
}

func (t *DefaultTheme) RenderJudgement(j game.Judgement) string {
	if j == game.None {
		return ""
	}
	return paint(getJudgementColor(j), judgementNames[j])
}

func (t *DefaultTheme) RenderPhase(p game.Phase) string {
	return paint(white, phaseNames[p])
}

func (t *DefaultTheme) RenderRank(rank string) string {
	col, ok := rankColors[rank]
	if !ok {
		col = white
	}
	return paint(col, rank)
}

func (t *DefaultTheme) RenderRush(rush bool) string {
	if !rush {
		return ""
	}
	return "\033[1m" + paint(rushColor, rushSym)
}

// RenderNote draws a note, distance is in rows from the hit bar.
func (t *DefaultTheme) RenderNote(distance int) string {
	if distance <= 1 {
		return paint(rushColor, noteSym)
	}
	return paint(white, noteSym)
}

const (
	noteSym = "⬤"
	rushSym = "RUSH"
)

var (
	white     = color.RGBA{255, 255, 255, 255}
	rushColor = color.RGBA{236, 128, 0, 255}

	judgementNames = map[game.Judgement]string{
		game.Perfect: "Perfect",
		game.Good:    "Good",
		game.Miss:    "Miss",
		game.Penalty: "Stray",
	}
	judgementColors = map[game.Judgement]color.RGBA{
		game.Perfect: {173, 236, 236, 255}, // light blue
		game.Good:    {0, 236, 128, 255},   // green
		game.Miss:    {236, 30, 0, 255},    // red
		game.Penalty: {106, 106, 106, 255}, // grey
	}
	phaseNames = map[game.Phase]string{
		game.Selection: "Select a difficulty",
		game.Countdown: "Get ready",
		game.Playing:   "",
		game.Finished:  "Finished",
		game.Result:    "Result",
	}
	rankColors = map[string]color.RGBA{
		"S": {236, 195, 0, 255},   // yellow
		"A": {0, 118, 236, 255},   // blue
		"B": {0, 236, 128, 255},   // green
		"C": {106, 0, 236, 255},   // purple
		"D": {106, 106, 106, 255}, // grey
	}
)

func getJudgementColor(j game.Judgement) color.RGBA {
	col, ok := judgementColors[j]
	if !ok {
		return white
	}
	return col
}
