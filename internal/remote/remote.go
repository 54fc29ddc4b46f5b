// Package remote defines the document store best scores are reconciled
// against, plus an in-process implementation.
package remote

import (
	"context"
	"errors"

	"git.lost.host/meutraa/rushline/internal/game"
)

// ErrClosed is returned by stores that were shut down.
var ErrClosed = errors.New("remote store closed")

// Store is an opaque per-user document store.
type Store interface {
	// Get returns the latest entry, game.ErrNotFound when the user has none.
	Get(ctx context.Context, userID string) (game.ScoreEntry, error)
	// Subscribe streams the entry every time it changes. The channel is
	// closed when ctx is done or the subscription fails.
	Subscribe(ctx context.Context, userID string) (<-chan game.ScoreEntry, error)
	// MergeWrite writes only the given fields, leaving the others untouched.
	MergeWrite(ctx context.Context, userID string, fields map[game.ScoreField]int) error
}
