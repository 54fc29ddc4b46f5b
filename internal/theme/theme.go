package theme

import "git.lost.host/meutraa/rushline/internal/game"

type Theme interface {
	RenderJudgement(j game.Judgement) string
	RenderPhase(p game.Phase) string
	RenderRank(rank string) string
	RenderRush(rush bool) string
	RenderNote(distance int) string
}
