package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"git.lost.host/meutraa/rushline/internal/clock"
	"git.lost.host/meutraa/rushline/internal/game"
	"github.com/rs/zerolog/log"
)

// Runner drives a session from a frame ticker and stamps taps in session
// time.
type Runner struct {
	session *Session
	clock   clock.Clock
	frame   time.Duration

	mu     sync.Mutex
	ticker *clock.Ticker
}

func NewRunner(s *Session, c clock.Clock, frame time.Duration) *Runner {
	return &Runner{session: s, clock: c, frame: frame}
}

// Run ticks the session until ctx is done, then abandons any session still
// counting down or playing.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	t := clock.NewTicker(r.clock, r.frame)
	r.ticker = t
	r.mu.Unlock()
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.ticker = nil
			r.mu.Unlock()
			if err := r.session.Exit(); nil != err && !errors.Is(err, game.ErrInvalidTransition) {
				log.Error().Err(err).Msg("unable to exit session")
			}
			return nil
		case now := <-t.Chan():
			r.mu.Lock()
			r.session.Tick(t.Delta(now))
			r.mu.Unlock()
		}
	}
}

// Tap stamps a tap with the session time of the latest tick plus the wall
// time since that tick.
func (r *Runner) Tap() bool {
	r.mu.Lock()
	if nil == r.ticker {
		r.mu.Unlock()
		return false
	}
	at := r.session.Elapsed() + r.ticker.SinceFrame()
	r.mu.Unlock()
	return r.session.Tap(at)
}
