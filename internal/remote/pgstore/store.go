// Package pgstore keeps best scores in PostgreSQL and fans changes out with
// LISTEN/NOTIFY.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"git.lost.host/meutraa/rushline/internal/game"
	"git.lost.host/meutraa/rushline/internal/remote"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	NotifyChannel = "score_entries"
	listenRetry   = time.Second
)

const schema = `
CREATE TABLE IF NOT EXISTS user_scores (
	user_id       TEXT PRIMARY KEY,
	level1_easy   INTEGER NOT NULL DEFAULT 0,
	level1_normal INTEGER NOT NULL DEFAULT 0,
	level1_hard   INTEGER NOT NULL DEFAULT 0,
	level2_score  INTEGER NOT NULL DEFAULT 0,
	level3_score  INTEGER NOT NULL DEFAULT 0,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

var columns = map[game.ScoreField]string{
	game.FieldLevel1Easy:   "level1_easy",
	game.FieldLevel1Normal: "level1_normal",
	game.FieldLevel1Hard:   "level1_hard",
	game.FieldLevel2:       "level2_score",
	game.FieldLevel3:       "level3_score",
}

var _ remote.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if nil != err {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); nil != err {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); nil != err {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	log.Info().Msg("postgres score store ready")
	return &Store{pool: pool}, nil
}

func (s *Store) Get(ctx context.Context, userID string) (game.ScoreEntry, error) {
	var e game.ScoreEntry
	err := s.pool.QueryRow(ctx, `
		SELECT level1_easy, level1_normal, level1_hard, level2_score, level3_score
		FROM user_scores WHERE user_id = $1`, userID,
	).Scan(&e.Level1Easy, &e.Level1Normal, &e.Level1Hard, &e.Level2Score, &e.Level3Score)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.ScoreEntry{}, game.ErrNotFound
	}
	if nil != err {
		return game.ScoreEntry{}, fmt.Errorf("get scores of %s: %w", userID, err)
	}
	return e, nil
}

// upsert builds a statement that only touches the given fields and never
// lowers a stored value.
func upsert(userID string, fields map[game.ScoreField]int) (string, []any) {
	cols := []string{"user_id"}
	params := []string{"$1"}
	sets := []string{"updated_at = now()"}
	args := []any{userID}
	for _, f := range game.ScoreFields {
		v, ok := fields[f]
		if !ok {
			continue
		}
		col := columns[f]
		args = append(args, v)
		cols = append(cols, col)
		params = append(params, fmt.Sprintf("$%d", len(args)))
		sets = append(sets, fmt.Sprintf("%s = GREATEST(user_scores.%s, EXCLUDED.%s)", col, col, col))
	}
	query := fmt.Sprintf(
		"INSERT INTO user_scores (%s) VALUES (%s) ON CONFLICT (user_id) DO UPDATE SET %s",
		strings.Join(cols, ", "), strings.Join(params, ", "), strings.Join(sets, ", "),
	)
	return query, args
}

func (s *Store) MergeWrite(ctx context.Context, userID string, fields map[game.ScoreField]int) error {
	valid := make(map[game.ScoreField]int, len(fields))
	for f, v := range fields {
		if f.Valid() {
			valid[f] = v
		}
	}
	if len(valid) == 0 {
		return nil
	}

	query, args := upsert(userID, valid)
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); nil != err {
			return err
		}
		_, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", NotifyChannel, userID)
		return err
	})
	if nil != err {
		return fmt.Errorf("merge scores of %s: %w", userID, err)
	}
	return nil
}

// Subscribe holds one pooled connection in LISTEN mode for the lifetime of
// ctx, reconnecting when the connection drops.
func (s *Store) Subscribe(ctx context.Context, userID string) (<-chan game.ScoreEntry, error) {
	conn, err := s.listen(ctx)
	if nil != err {
		return nil, err
	}

	out := make(chan game.ScoreEntry, 1)
	go func() {
		defer close(out)
		for {
			err := s.forward(ctx, conn, userID, out)
			conn.Release()
			if nil != ctx.Err() {
				return
			}
			log.Warn().Err(err).Str("user_id", userID).Msg("score listener lost, reconnecting")

			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(listenRetry):
				}
				if conn, err = s.listen(ctx); nil == err {
					break
				}
				log.Error().Err(err).Msg("unable to listen for score changes")
			}
		}
	}()
	return out, nil
}

func (s *Store) listen(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := s.pool.Acquire(ctx)
	if nil != err {
		return nil, fmt.Errorf("acquire listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotifyChannel}.Sanitize()); nil != err {
		conn.Release()
		return nil, fmt.Errorf("listen on %s: %w", NotifyChannel, err)
	}
	return conn, nil
}

func (s *Store) forward(ctx context.Context, conn *pgxpool.Conn, userID string, out chan<- game.ScoreEntry) error {
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if nil != err {
			return err
		}
		if n.Payload != userID {
			continue
		}
		entry, err := s.Get(ctx, userID)
		if nil != err {
			log.Error().Err(err).Str("user_id", userID).Msg("unable to read changed scores")
			continue
		}
		select {
		case out <- entry:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Store) Close() {
	s.pool.Close()
}
