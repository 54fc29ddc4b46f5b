// Package session runs the one live game session: difficulty selection,
// countdown, play and the result screen.
package session

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"git.lost.host/meutraa/rushline/internal/audio"
	"git.lost.host/meutraa/rushline/internal/clock"
	"git.lost.host/meutraa/rushline/internal/game"
	"git.lost.host/meutraa/rushline/internal/input"
	"git.lost.host/meutraa/rushline/internal/metrics"
	"git.lost.host/meutraa/rushline/internal/score"
	"git.lost.host/meutraa/rushline/internal/store"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	CountdownFrom   = 3
	CountdownLeadIn = 500 * time.Millisecond
	CountdownStep   = time.Second
	// EndGrace is how long play continues past the difficulty duration.
	EndGrace = 2 * time.Second
)

// ErrCannotStart wraps every configuration problem found by Select.
var ErrCannotStart = errors.New("cannot start session")

// ChartSource loads the chart of a difficulty.
type ChartSource interface {
	Chart(level game.Level) (*game.Chart, error)
}

type Gate interface {
	IsUnlocked(level game.Level) bool
	Evaluate(who game.Identity, level game.Level, score int) (game.Level, bool)
}

// Records receives the final score of every non-guest session.
type Records interface {
	Submit(field game.ScoreField, score int) bool
}

type History interface {
	SaveResult(r store.Result)
}

type Config struct {
	Identity game.Identity
	Charts   ChartSource
	Gate     Gate
	Records  Records // optional
	History  History // optional
	Music    audio.Player
	Scorer   score.Scorer
	Clock    clockwork.Clock // wall time for result timestamps
	NewID    func() string
}

type Session struct {
	cfg Config

	mu         sync.Mutex
	state      game.SessionState
	difficulty game.Difficulty
	chart      *game.Chart
	notes      []*game.Note
	judge      score.Judge
	clock      clock.GameClock
	countdown  time.Duration
	subs       map[<-chan game.SessionState]chan game.SessionState

	// The stream of the Playing phase, nil otherwise. Taps never take mu.
	stream atomic.Pointer[input.Stream]
}

func New(cfg Config) *Session {
	if nil == cfg.Music {
		cfg.Music = audio.NopPlayer{}
	}
	if nil == cfg.Scorer {
		cfg.Scorer = score.NewComboScorer(nil)
	}
	if nil == cfg.Clock {
		cfg.Clock = clockwork.NewRealClock()
	}
	if nil == cfg.NewID {
		cfg.NewID = uuid.NewString
	}
	return &Session{
		cfg:   cfg,
		state: game.SessionState{Phase: game.Selection},
		subs:  map[<-chan game.SessionState]chan game.SessionState{},
	}
}

// Select loads and checks the chart of level and starts the countdown. On
// error the session stays where it was.
func (s *Session) Select(level game.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != game.Selection && s.state.Phase != game.Result {
		return fmt.Errorf("select in %s: %w", s.state.Phase, game.ErrInvalidTransition)
	}
	d, err := level.Difficulty()
	if nil != err {
		return fmt.Errorf("%w: %w", ErrCannotStart, err)
	}
	if nil != s.cfg.Gate && !s.cfg.Gate.IsUnlocked(level) {
		return fmt.Errorf("%w: %s: %w", ErrCannotStart, level, game.ErrLocked)
	}
	if nil == s.cfg.Charts {
		return fmt.Errorf("%w: no chart source", ErrCannotStart)
	}
	chart, err := s.cfg.Charts.Chart(level)
	if nil != err {
		return fmt.Errorf("%w: load %s chart: %w", ErrCannotStart, level, err)
	}
	if err := chart.Validate(); nil != err {
		return fmt.Errorf("%w: %s chart: %w", ErrCannotStart, level, err)
	}

	s.difficulty = d
	s.chart = chart
	s.state = game.SessionState{Level: level}
	s.enterCountdown()
	log.Info().Str("level", level.String()).Int("notes", len(chart.Times)).Msg("difficulty selected")
	return nil
}

func (s *Session) enterCountdown() {
	s.state.Phase = game.Countdown
	s.state.Countdown = CountdownFrom
	s.countdown = 0
	s.publish()
}

// Tick advances the session by one frame of dt.
func (s *Session) Tick(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.Phase {
	case game.Countdown:
		s.tickCountdown(dt)
	case game.Playing:
		s.tickPlaying(dt)
	}
}

func (s *Session) tickCountdown(dt time.Duration) {
	if dt > 0 {
		s.countdown += dt
	}
	n := CountdownFrom
	if s.countdown >= CountdownLeadIn {
		n -= int((s.countdown - CountdownLeadIn) / CountdownStep)
	}
	if n <= 0 {
		s.begin()
		return
	}
	if n != s.state.Countdown {
		s.state.Countdown = n
		s.publish()
	}
}

// begin starts play with fresh notes, counters and input.
func (s *Session) begin() {
	s.notes = s.chart.NewNotes()
	s.judge = score.NewEngine(s.notes)
	s.state = game.SessionState{
		ID:    s.cfg.NewID(),
		Level: s.state.Level,
		Phase: game.Playing,
	}
	s.stream.Store(input.NewStream())
	s.clock.Start()
	s.cfg.Music.Play(s.difficulty.MusicAsset)

	metrics.SessionsStarted.WithLabelValues(s.state.Level.String()).Inc()
	log.Info().Str("session_id", s.state.ID).Str("level", s.state.Level.String()).Msg("session started")
	s.publish()
}

func (s *Session) tickPlaying(dt time.Duration) {
	now := s.clock.Advance(dt)
	s.state.Elapsed = now

	for _, r := range s.judge.Sweep(now) {
		s.apply(r)
	}
	if st := s.stream.Load(); nil != st {
		for _, e := range st.Drain() {
			s.apply(s.judge.Judge(e.At))
		}
	}

	if now > s.difficulty.Duration+EndGrace {
		s.finish()
		return
	}
	s.publish()
}

func (s *Session) apply(r score.Result) {
	out := s.cfg.Scorer.Apply(s.state.Tally, s.state.Score, r.Judgement, s.difficulty)
	s.state.Tally = out.Tally
	s.state.Score += out.Delta
	s.state.Rush = out.Rush
	s.state.Last = r.Judgement
	metrics.Judgements.WithLabelValues(s.state.Level.String(), r.Judgement.String()).Inc()
}

// finish moves through Finished to Result within the same tick. Notes the
// chart places after the end of play count as misses.
func (s *Session) finish() {
	for _, r := range s.judge.Sweep(math.MaxInt64) {
		s.apply(r)
	}
	s.state.Phase = game.Finished
	s.halt()

	st := s.state
	st.Rank = score.Rank(st.Score, s.difficulty.MaxScore)
	if !s.cfg.Identity.Guest() {
		if nil != s.cfg.Gate {
			if unlocked, ok := s.cfg.Gate.Evaluate(s.cfg.Identity, st.Level, st.Score); ok {
				st.Unlocked = unlocked.String()
				metrics.Unlocks.WithLabelValues(st.Unlocked).Inc()
			}
		}
		if nil != s.cfg.Records {
			st.NewBest = s.cfg.Records.Submit(s.difficulty.ScoreField, st.Score)
		}
		if nil != s.cfg.History {
			s.cfg.History.SaveResult(store.Result{
				ID:         st.ID,
				UserID:     s.cfg.Identity.UserID,
				Level:      st.Level,
				Score:      st.Score,
				Rank:       st.Rank,
				Tally:      st.Tally,
				FinishedAt: s.cfg.Clock.Now(),
			})
		}
	}
	st.Phase = game.Result
	s.state = st

	metrics.SessionsFinished.WithLabelValues(st.Level.String(), st.Rank).Inc()
	log.Info().
		Str("session_id", st.ID).
		Str("level", st.Level.String()).
		Int("score", st.Score).
		Str("rank", st.Rank).
		Int("perfect", st.PerfectCount).
		Int("good", st.GoodCount).
		Int("miss", st.MissCount).
		Bool("new_best", st.NewBest).
		Msg("session finished")
	s.publish()
}

// halt stops everything that only lives while playing.
func (s *Session) halt() {
	s.clock.Stop()
	s.cfg.Music.Stop()
	if st := s.stream.Swap(nil); nil != st {
		st.Close()
	}
}

// Exit abandons a countdown or a running session.
func (s *Session) Exit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.Phase {
	case game.Countdown:
	case game.Playing:
		metrics.SessionsAbandoned.Inc()
		log.Info().Str("session_id", s.state.ID).Dur("elapsed", s.state.Elapsed).Msg("session abandoned")
	default:
		return fmt.Errorf("exit in %s: %w", s.state.Phase, game.ErrInvalidTransition)
	}
	s.halt()
	s.judge = nil
	s.notes = nil
	s.state = game.SessionState{Level: s.state.Level, Phase: game.Selection}
	s.publish()
	return nil
}

// Retry plays the same chart again.
func (s *Session) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != game.Result {
		return fmt.Errorf("retry in %s: %w", s.state.Phase, game.ErrInvalidTransition)
	}
	s.state = game.SessionState{Level: s.state.Level}
	s.enterCountdown()
	return nil
}

// Back returns from the result screen to difficulty selection.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != game.Result {
		return fmt.Errorf("back in %s: %w", s.state.Phase, game.ErrInvalidTransition)
	}
	s.state = game.SessionState{Level: s.state.Level, Phase: game.Selection}
	s.publish()
	return nil
}

// Tap queues a tap at session time at. Taps outside Playing are dropped.
func (s *Session) Tap(at time.Duration) bool {
	st := s.stream.Load()
	if nil == st {
		return false
	}
	return st.Push(input.Event{At: at})
}

func (s *Session) Snapshot() game.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Elapsed is the session time at the latest tick.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Elapsed
}

// Upcoming returns how far ahead of the session time every unresolved note
// within horizon is. Notes still inside their miss grace are negative.
func (s *Session) Upcoming(horizon time.Duration) []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != game.Playing {
		return nil
	}
	ahead := []time.Duration{}
	for _, n := range s.notes {
		if n.Resolved {
			continue
		}
		d := n.Time - s.state.Elapsed
		if d > horizon {
			break
		}
		ahead = append(ahead, d)
	}
	return ahead
}

// Difficulty is the difficulty of the selected level.
func (s *Session) Difficulty() game.Difficulty {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.difficulty
}

// Subscribe returns a channel holding the newest snapshot. Slow readers only
// miss intermediate states, they never hold up a tick.
func (s *Session) Subscribe() <-chan game.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan game.SessionState, 1)
	ch <- s.state
	s.subs[ch] = ch
	return ch
}

func (s *Session) Unsubscribe(ch <-chan game.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(sub)
	}
}

func (s *Session) publish() {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.state
	}
}
