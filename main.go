package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.lost.host/meutraa/rushline/internal/audio"
	"git.lost.host/meutraa/rushline/internal/config"
	"git.lost.host/meutraa/rushline/internal/game"
	"git.lost.host/meutraa/rushline/internal/input"
	"git.lost.host/meutraa/rushline/internal/metrics"
	"git.lost.host/meutraa/rushline/internal/parser"
	"git.lost.host/meutraa/rushline/internal/progress"
	"git.lost.host/meutraa/rushline/internal/records"
	"git.lost.host/meutraa/rushline/internal/remote"
	"git.lost.host/meutraa/rushline/internal/remote/fbstore"
	"git.lost.host/meutraa/rushline/internal/remote/natskv"
	"git.lost.host/meutraa/rushline/internal/remote/pgstore"
	"git.lost.host/meutraa/rushline/internal/render"
	"git.lost.host/meutraa/rushline/internal/session"
	"git.lost.host/meutraa/rushline/internal/store"
	"git.lost.host/meutraa/rushline/internal/theme"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	flushTimeout   = 5 * time.Second
	connectTimeout = 10 * time.Second
	noteHorizon    = 3 * time.Second
)

func main() {
	if err := run(); nil != err {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openRemote connects the configured score backend. The returned func
// releases it.
func openRemote(ctx context.Context, cfg *config.Config) (remote.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendFirestore:
		s, err := fbstore.New(ctx, fbstore.Config{
			ProjectID:       cfg.FirebaseProject,
			CredentialsPath: cfg.FirebaseCredentials,
			Collection:      cfg.FirestoreCollection,
		})
		if nil != err {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.BackendNATS:
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		s, err := natskv.Connect(ctx, cfg.NatsURL, cfg.NatsBucket)
		if nil != err {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.BackendPostgres:
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		s, err := pgstore.New(ctx, cfg.PostgresDSN)
		if nil != err {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	s := remote.NewMemory()
	return s, s.Close, nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); nil != err && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
	return srv
}

func run() error {
	if err := godotenv.Load(); nil != err && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to load .env: %w", err)
	}
	cfg, err := config.Parse(os.Args[1:])
	if nil != err {
		return err
	}

	// The terminal belongs to the game, logs go to a file
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if nil != err {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	defer logFile.Close()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logFile, NoColor: true, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	lib, err := parser.Load(cfg.ChartDirectory)
	if nil != err {
		return err
	}

	local, err := store.Open(cfg.Database)
	if nil != err {
		return err
	}
	defer local.Close()

	identity := game.Identity{UserID: cfg.User}
	var flags progress.FlagStore = progress.NewMemoryFlags()
	if !cfg.Guest() {
		flags = local
	}
	gate := progress.NewGate(flags)

	var (
		repo *records.Repository
		sink session.Records
	)
	if !cfg.Guest() {
		rs, closeRemote, err := openRemote(ctx, cfg)
		if nil != err {
			// Scores stay in the local cache and reach the backend on a later run
			log.Error().Err(err).Str("backend", cfg.Backend).Msg("unable to open score store, keeping scores local")
			mem := remote.NewMemory()
			rs, closeRemote = mem, mem.Close
		}
		defer closeRemote()

		repo = records.New(rs, cfg.User, records.WithLocalCache(local))
		repo.Start(ctx)
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			defer cancel()
			if err := repo.Close(flushCtx); nil != err {
				log.Error().Err(err).Msg("scores not written before exit, they stay cached locally")
			}
		}()
		sink = repo
	}

	if cfg.MetricsAddress != "" {
		srv := serveMetrics(cfg.MetricsAddress)
		defer srv.Close()
	}

	var music audio.Player = audio.NopPlayer{}
	if !cfg.Mute {
		music = audio.NewBeepPlayer(cfg.AudioDirectory)
	}

	sess := session.New(session.Config{
		Identity: identity,
		Charts:   lib,
		Gate:     gate,
		Records:  sink,
		History:  local,
		Music:    music,
	})

	if cfg.Level != "" {
		level, err := game.LevelFromLabel(cfg.Level)
		if nil != err {
			return err
		}
		if err := sess.Select(level); nil != err {
			return err
		}
	}

	wall := clockwork.NewRealClock()
	runner := session.NewRunner(sess, wall, cfg.FramePeriod)

	var r render.Renderer = render.NewDefaultRenderer(os.Stdout, &theme.DefaultTheme{})
	if err := r.Init(); nil != err {
		return err
	}
	defer r.Deinit()

	levels := lib.Levels()
	onKey := func(k input.Key) {
		var err error
		switch k.Action {
		case input.ActionTap:
			runner.Tap()
		case input.ActionSelect:
			if k.Index < len(levels) {
				err = sess.Select(levels[k.Index])
			}
		case input.ActionExit:
			if sess.Snapshot().Phase == game.Result {
				err = sess.Back()
			} else {
				err = sess.Exit()
			}
		case input.ActionRetry:
			err = sess.Retry()
		case input.ActionBack:
			err = sess.Back()
		case input.ActionQuit:
			cancel()
		}
		if nil != err {
			log.Debug().Err(err).Msg("key ignored")
		}
	}

	go func() {
		if err := input.NewKeyboard(128).Run(ctx, onKey); nil != err {
			log.Error().Err(err).Msg("keyboard stopped")
			cancel()
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := runner.Run(ctx); nil != err {
			log.Error().Err(err).Msg("runner stopped")
		}
	}()

	r.Loop(ctx, wall, cfg.FramePeriod, func() render.Frame {
		f := render.Frame{State: sess.Snapshot()}
		if nil != repo {
			f.Best = repo.Current()
		}
		switch f.State.Phase {
		case game.Selection:
			for _, l := range levels {
				f.Levels = append(f.Levels, render.LevelOption{Level: l, Unlocked: gate.IsUnlocked(l)})
			}
		case game.Playing:
			f.Speed = sess.Difficulty().Speed
			f.Upcoming = sess.Upcoming(noteHorizon)
		}
		return f
	})
	<-done
	return nil
}
