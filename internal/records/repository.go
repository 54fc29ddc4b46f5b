// Package records keeps the best scores of one user in sync between memory,
// the on-device cache and a remote document store.
//
// Every field only ever grows. Local submits and remote notifications are
// both folded in with keep-max, so a late, duplicate or stale value can never
// lower a stored score.
package records

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"git.lost.host/meutraa/rushline/internal/game"
	"git.lost.host/meutraa/rushline/internal/metrics"
	"git.lost.host/meutraa/rushline/internal/remote"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMinBackoff = 500 * time.Millisecond
	DefaultMaxBackoff = 30 * time.Second
	writeTimeout      = 10 * time.Second
	fetchTimeout      = 10 * time.Second
)

// LocalCache is the on-device copy of the best scores.
type LocalCache interface {
	LoadEntry(userID string) (game.ScoreEntry, error)
	SaveField(userID string, field game.ScoreField, score int) error
}

type Option func(*Repository)

func WithLocalCache(c LocalCache) Option {
	return func(r *Repository) {
		r.cache = c
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(r *Repository) {
		r.clock = c
	}
}

// WithBackoff bounds the delay between subscription attempts.
func WithBackoff(min, max time.Duration) Option {
	return func(r *Repository) {
		r.minBackoff = min
		r.maxBackoff = max
	}
}

type Repository struct {
	remote remote.Store
	userID string
	cache  LocalCache
	clock  clockwork.Clock

	minBackoff time.Duration
	maxBackoff time.Duration

	mu      sync.Mutex
	entry   game.ScoreEntry
	pending map[game.ScoreField]int

	signal  chan struct{}
	changes chan game.ScoreEntry

	cancel    context.CancelFunc
	stop      chan struct{}
	stopOnce  sync.Once
	writerEnd chan struct{}
}

func New(store remote.Store, userID string, opts ...Option) *Repository {
	r := &Repository{
		remote:     store,
		userID:     userID,
		clock:      clockwork.NewRealClock(),
		minBackoff: DefaultMinBackoff,
		maxBackoff: DefaultMaxBackoff,
		pending:    map[game.ScoreField]int{},
		signal:     make(chan struct{}, 1),
		changes:    make(chan game.ScoreEntry, 1),
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start seeds the in-memory entry from the local cache and returns. The remote
// copy is fetched in the background, followed by a subscription and the
// writer, all running until Close.
func (r *Repository) Start(ctx context.Context) {
	if nil != r.cache {
		cached, err := r.cache.LoadEntry(r.userID)
		if nil != err {
			log.Error().Err(err).Str("user_id", r.userID).Msg("unable to read cached scores")
		} else {
			r.absorb(cached, false)
		}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.writerEnd = make(chan struct{})
	go r.watch(watchCtx)
	go r.write()
}

// Submit records candidate as the best score for field if it beats the
// current one. It reports whether the best score changed. Persisting happens
// in the background and never fails the caller.
func (r *Repository) Submit(field game.ScoreField, candidate int) bool {
	if !field.Valid() {
		log.Warn().Str("field", string(field)).Msg("ignoring score for unknown field")
		return false
	}

	r.mu.Lock()
	if candidate <= r.entry.Get(field) {
		r.mu.Unlock()
		metrics.ScoreSubmits.WithLabelValues(string(field), strconv.FormatBool(false)).Inc()
		return false
	}
	r.entry = r.entry.With(field, candidate)
	if candidate > r.pending[field] {
		r.pending[field] = candidate
	}
	r.notify(r.entry)
	r.mu.Unlock()

	metrics.ScoreSubmits.WithLabelValues(string(field), strconv.FormatBool(true)).Inc()
	log.Info().Str("user_id", r.userID).Str("field", string(field)).Int("score", candidate).Msg("new best score")

	r.saveLocal(field, candidate)
	r.kick()
	return true
}

func (r *Repository) Current() game.ScoreEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entry
}

func (r *Repository) Best(field game.ScoreField) int {
	return r.Current().Get(field)
}

// Changes delivers the entry after every change. Only the newest entry is
// buffered.
func (r *Repository) Changes() <-chan game.ScoreEntry {
	return r.changes
}

// Close stops the subscription and the writer, then flushes pending fields
// once using ctx.
func (r *Repository) Close(ctx context.Context) error {
	if nil != r.cancel {
		r.cancel()
	}
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	if nil != r.writerEnd {
		<-r.writerEnd
	}
	return r.flush(ctx)
}

// absorb folds e into the entry with keep-max.
func (r *Repository) absorb(e game.ScoreEntry, fromRemote bool) {
	r.mu.Lock()
	merged, changed := r.entry.MergeMax(e)
	r.entry = merged
	if changed {
		r.notify(merged)
	}
	r.mu.Unlock()

	if changed && fromRemote {
		for f, v := range e.Fields() {
			if v == merged.Get(f) {
				r.saveLocal(f, v)
			}
		}
	}
	if fromRemote {
		r.heal(e)
	}
}

// heal queues every field the remote copy holds lower than memory, which
// happens after another writer overwrote it with stale data.
func (r *Repository) heal(remoteEntry game.ScoreEntry) {
	r.mu.Lock()
	queued := false
	for f, v := range r.entry.Fields() {
		if v > remoteEntry.Get(f) && v > r.pending[f] {
			r.pending[f] = v
			queued = true
		}
	}
	r.mu.Unlock()

	if queued {
		log.Debug().Str("user_id", r.userID).Msg("remote scores behind, queueing repair")
		r.kick()
	}
}

func (r *Repository) saveLocal(field game.ScoreField, score int) {
	if nil == r.cache {
		return
	}
	if err := r.cache.SaveField(r.userID, field, score); nil != err {
		log.Error().Err(err).Str("field", string(field)).Msg("unable to cache score")
	}
}

// notify replaces the buffered entry with e. Callers hold mu so the newest
// entry is always the one left in the buffer.
func (r *Repository) notify(e game.ScoreEntry) {
	select {
	case r.changes <- e:
		return
	default:
	}
	select {
	case <-r.changes:
	default:
	}
	select {
	case r.changes <- e:
	default:
	}
}

func (r *Repository) kick() {
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

func (r *Repository) write() {
	defer close(r.writerEnd)
	for {
		select {
		case <-r.stop:
			return
		case <-r.signal:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			_ = r.flush(ctx)
			cancel()
		}
	}
}

// flush sends every pending field in one merge write. Failed fields go back
// into pending and are retried on the next write.
func (r *Repository) flush(ctx context.Context) error {
	r.mu.Lock()
	if len(r.pending) == 0 {
		r.mu.Unlock()
		return nil
	}
	fields := r.pending
	r.pending = map[game.ScoreField]int{}
	r.mu.Unlock()

	err := r.remote.MergeWrite(ctx, r.userID, fields)
	if nil == err {
		log.Debug().Str("user_id", r.userID).Int("fields", len(fields)).Msg("scores written")
		return nil
	}

	metrics.RemoteWriteFailures.Inc()
	log.Error().Err(err).Str("user_id", r.userID).Msg("unable to write scores, keeping them for the next write")
	r.mu.Lock()
	for f, v := range fields {
		if v > r.pending[f] {
			r.pending[f] = v
		}
	}
	r.mu.Unlock()
	return err
}

// fetch seeds the entry from the remote copy. A slow or failing remote only
// leaves the local copy in charge.
func (r *Repository) fetch(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	current, err := r.remote.Get(ctx, r.userID)
	switch {
	case nil == err:
		r.absorb(current, true)
	case errors.Is(err, game.ErrNotFound):
		r.heal(game.ScoreEntry{})
	default:
		log.Warn().Err(err).Str("user_id", r.userID).Msg("unable to fetch remote scores, using local copy")
	}
}

func (r *Repository) watch(ctx context.Context) {
	r.fetch(ctx)
	if nil != ctx.Err() {
		return
	}

	backoff := r.minBackoff
	for {
		ch, err := r.remote.Subscribe(ctx, r.userID)
		if nil != err {
			log.Warn().Err(err).Str("user_id", r.userID).Msg("unable to subscribe to remote scores")
		} else {
			backoff = r.minBackoff
			r.consume(ctx, ch)
		}
		if nil != ctx.Err() {
			return
		}

		log.Debug().Dur("backoff", backoff).Msg("resubscribing to remote scores")
		select {
		case <-ctx.Done():
			return
		case <-r.clock.After(backoff):
		}
		backoff *= 2
		if backoff > r.maxBackoff {
			backoff = r.maxBackoff
		}
	}
}

func (r *Repository) consume(ctx context.Context, ch <-chan game.ScoreEntry) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			r.absorb(e, true)
		}
	}
}
