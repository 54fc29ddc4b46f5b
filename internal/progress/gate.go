package progress

import (
	"sync"

	"git.lost.host/meutraa/rushline/internal/game"
	"github.com/rs/zerolog/log"
)

const (
	EasyUnlockThreshold   = 8500
	NormalUnlockThreshold = 14000
)

// FlagStore persists unlock flags. Keys are never cleared.
type FlagStore interface {
	Flag(key string) (bool, error)
	SetFlag(key string) error
}

func FlagKey(level game.Level) string {
	return "unlock_" + level.String()
}

// unlocks maps a cleared level to the level it opens and the score needed.
var unlocks = map[game.Level]struct {
	next      game.Level
	threshold int
}{
	game.Easy:   {next: game.Normal, threshold: EasyUnlockThreshold},
	game.Normal: {next: game.Hard, threshold: NormalUnlockThreshold},
}

type Gate struct {
	flags FlagStore
}

func NewGate(flags FlagStore) *Gate {
	if nil == flags {
		flags = NewMemoryFlags()
	}
	return &Gate{flags: flags}
}

// IsUnlocked is always true for Easy. A failing store reads as locked.
func (g *Gate) IsUnlocked(level game.Level) bool {
	if level == game.Easy {
		return true
	}
	ok, err := g.flags.Flag(FlagKey(level))
	if nil != err {
		log.Error().Err(err).Str("level", level.String()).Msg("unable to read unlock flag")
		return false
	}
	return ok
}

// Evaluate unlocks the next level when score clears the threshold of level.
// Guests never unlock anything. It returns the level that became unlocked.
func (g *Gate) Evaluate(who game.Identity, level game.Level, score int) (game.Level, bool) {
	if who.Guest() {
		return 0, false
	}
	rule, ok := unlocks[level]
	if !ok || score < rule.threshold {
		return 0, false
	}
	if g.IsUnlocked(rule.next) {
		return 0, false
	}
	if err := g.flags.SetFlag(FlagKey(rule.next)); nil != err {
		log.Error().Err(err).Str("level", rule.next.String()).Msg("unable to persist unlock")
		return 0, false
	}
	log.Info().
		Str("user_id", who.UserID).
		Str("cleared", level.String()).
		Str("unlocked", rule.next.String()).
		Int("score", score).
		Msg("difficulty unlocked")
	return rule.next, true
}

// MemoryFlags is a FlagStore for guests and tests.
type MemoryFlags struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewMemoryFlags() *MemoryFlags {
	return &MemoryFlags{flags: map[string]bool{}}
}

func (m *MemoryFlags) Flag(key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[key], nil
}

func (m *MemoryFlags) SetFlag(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[key] = true
	return nil
}
