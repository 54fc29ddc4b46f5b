package progress

import (
	"errors"
	"testing"

	"git.lost.host/meutraa/rushline/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var player = game.Identity{UserID: "user-1"}

func TestEasyAlwaysUnlocked(t *testing.T) {
	g := NewGate(nil)
	assert.True(t, g.IsUnlocked(game.Easy))
	assert.False(t, g.IsUnlocked(game.Normal))
	assert.False(t, g.IsUnlocked(game.Hard))
}

// Easy at 9000 opens Normal, Normal at 13000 leaves Hard locked.
func TestScenarioB(t *testing.T) {
	flags := NewMemoryFlags()
	g := NewGate(flags)

	level, ok := g.Evaluate(player, game.Easy, 9000)
	require.True(t, ok)
	assert.Equal(t, game.Normal, level)
	assert.True(t, g.IsUnlocked(game.Normal))

	_, ok = g.Evaluate(player, game.Normal, 13000)
	assert.False(t, ok)
	assert.False(t, g.IsUnlocked(game.Hard))

	set, _ := flags.Flag("unlock_normal")
	assert.True(t, set)
}

func TestThresholdBoundaries(t *testing.T) {
	g := NewGate(nil)
	_, ok := g.Evaluate(player, game.Easy, EasyUnlockThreshold-1)
	assert.False(t, ok)
	_, ok = g.Evaluate(player, game.Easy, EasyUnlockThreshold)
	assert.True(t, ok)

	level, ok := g.Evaluate(player, game.Normal, NormalUnlockThreshold)
	assert.True(t, ok)
	assert.Equal(t, game.Hard, level)

	_, ok = g.Evaluate(player, game.Hard, 99999)
	assert.False(t, ok, "hard unlocks nothing")
}

func TestUnlockIsNeverRepeatedOrCleared(t *testing.T) {
	g := NewGate(nil)
	_, ok := g.Evaluate(player, game.Easy, 9000)
	require.True(t, ok)
	_, ok = g.Evaluate(player, game.Easy, 9000)
	assert.False(t, ok)
	_, ok = g.Evaluate(player, game.Easy, 0)
	assert.False(t, ok)
	assert.True(t, g.IsUnlocked(game.Normal))
}

func TestGuestSkipsEvaluation(t *testing.T) {
	flags := NewMemoryFlags()
	g := NewGate(flags)
	_, ok := g.Evaluate(game.Identity{}, game.Easy, 12000)
	assert.False(t, ok)
	assert.False(t, g.IsUnlocked(game.Normal))
	assert.Empty(t, flags.flags)
}

type brokenFlags struct{}

func (brokenFlags) Flag(string) (bool, error) { return false, errors.New("disk gone") }
func (brokenFlags) SetFlag(string) error      { return errors.New("disk gone") }

func TestBrokenStoreReadsLocked(t *testing.T) {
	g := NewGate(brokenFlags{})
	assert.True(t, g.IsUnlocked(game.Easy))
	assert.False(t, g.IsUnlocked(game.Normal))
	_, ok := g.Evaluate(player, game.Easy, 9000)
	assert.False(t, ok)
}
