package fbstore

import (
	"testing"

	"git.lost.host/meutraa/rushline/internal/game"
	"github.com/stretchr/testify/assert"
)

func TestDocumentOnlyCarriesKnownFields(t *testing.T) {
	doc := Document(map[game.ScoreField]int{
		game.FieldLevel1Hard: 1200,
		game.FieldLevel3:     7,
		"bogus":              3,
	})
	assert.Equal(t, map[string]interface{}{
		"level1Hard":  int64(1200),
		"level3Score": int64(7),
	}, doc)
}
