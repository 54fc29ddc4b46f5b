package theme

import (
	"testing"

	"git.lost.host/meutraa/rushline/internal/game"
	"github.com/stretchr/testify/assert"
)

func TestDefaultTheme(t *testing.T) {
	var th Theme = &DefaultTheme{}

	assert.Empty(t, th.RenderJudgement(game.None))
	assert.Contains(t, th.RenderJudgement(game.Perfect), "Perfect")
	assert.Contains(t, th.RenderJudgement(game.Miss), "\033[38;2;236;30;0m")
	assert.Contains(t, th.RenderRank("S"), "S")
	assert.Contains(t, th.RenderRank("?"), "\033[38;2;255;255;255m")
	assert.Empty(t, th.RenderRush(false))
	assert.Contains(t, th.RenderRush(true), "RUSH")
}
