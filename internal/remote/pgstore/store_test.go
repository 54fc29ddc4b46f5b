package pgstore

import (
	"testing"

	"git.lost.host/meutraa/rushline/internal/game"
	"github.com/stretchr/testify/assert"
)

func TestUpsertSingleField(t *testing.T) {
	query, args := upsert("u1", map[game.ScoreField]int{game.FieldLevel1Normal: 9000})

	assert.Equal(t,
		"INSERT INTO user_scores (user_id, level1_normal) VALUES ($1, $2) "+
			"ON CONFLICT (user_id) DO UPDATE SET updated_at = now(), "+
			"level1_normal = GREATEST(user_scores.level1_normal, EXCLUDED.level1_normal)",
		query)
	assert.Equal(t, []any{"u1", 9000}, args)
}

func TestUpsertKeepsFieldOrder(t *testing.T) {
	query, args := upsert("u1", map[game.ScoreField]int{
		game.FieldLevel3:     3,
		game.FieldLevel1Easy: 1,
		game.FieldLevel2:     2,
	})

	assert.Contains(t, query, "(user_id, level1_easy, level2_score, level3_score) VALUES ($1, $2, $3, $4)")
	assert.NotContains(t, query, "level1_hard")
	assert.Equal(t, []any{"u1", 1, 2, 3}, args)
}

func TestEveryFieldHasAColumn(t *testing.T) {
	for _, f := range game.ScoreFields {
		assert.NotEmpty(t, columns[f], f)
	}
}
