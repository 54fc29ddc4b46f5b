package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"git.lost.host/meutraa/rushline/internal/game"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// SQLite is the on-device store: unlock flags, the best-score cache and the
// history of finished sessions.
type SQLite struct {
	db *sql.DB
}

const initStatement = `
create table if not exists unlock_flags
  (
	  key text not null primary key,
	  value integer not null
  );
create table if not exists score_cache
  (
	  user_id text not null,
	  field text not null,
	  score integer not null,
	  primary key (user_id, field)
  );
create table if not exists results
  (
	  id text not null primary key,
	  user_id text not null,
	  level text not null,
	  score integer not null,
	  rank text not null,
	  perfect integer not null,
	  good integer not null,
	  miss integer not null,
	  finished_at integer not null
  );
`

func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if nil != err {
		return nil, fmt.Errorf("open local store %s: %w", path, err)
	}
	// One writer keeps sqlite from returning SQLITE_BUSY between goroutines
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(initStatement); nil != err {
		db.Close()
		return nil, fmt.Errorf("init local store: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if nil != s.db {
		return s.db.Close()
	}
	return nil
}

func (s *SQLite) Flag(key string) (bool, error) {
	var value bool
	err := s.db.QueryRow("select value from unlock_flags where key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if nil != err {
		return false, fmt.Errorf("read flag %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLite) SetFlag(key string) error {
	_, err := s.db.Exec("insert into unlock_flags(key, value) values(?, 1) on conflict(key) do update set value = 1", key)
	if nil != err {
		return fmt.Errorf("set flag %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) LoadEntry(userID string) (game.ScoreEntry, error) {
	var entry game.ScoreEntry
	rows, err := s.db.Query("select field, score from score_cache where user_id = ?", userID)
	if nil != err {
		return entry, fmt.Errorf("load cached scores: %w", err)
	}
	defer rows.Close()

	fields := map[game.ScoreField]int{}
	for rows.Next() {
		var field string
		var score int
		if err := rows.Scan(&field, &score); nil != err {
			return entry, fmt.Errorf("scan cached score: %w", err)
		}
		if f := game.ScoreField(field); f.Valid() {
			fields[f] = score
		}
	}
	if err := rows.Err(); nil != err {
		return entry, err
	}
	return game.EntryFromFields(fields), nil
}

// SaveField stores score unless a higher one is already cached.
func (s *SQLite) SaveField(userID string, field game.ScoreField, score int) error {
	_, err := s.db.Exec(`
	insert into score_cache(user_id, field, score) values(?, ?, ?)
	on conflict(user_id, field) do update set score = max(score, excluded.score)`,
		userID, string(field), score)
	if nil != err {
		return fmt.Errorf("cache score %s: %w", field, err)
	}
	return nil
}

// Result is one finished session.
type Result struct {
	ID         string
	UserID     string
	Level      game.Level
	Score      int
	Rank       string
	Tally      game.Tally
	FinishedAt time.Time
}

func (s *SQLite) SaveResult(r Result) {
	_, err := s.db.Exec(
		"insert into results(id, user_id, level, score, rank, perfect, good, miss, finished_at) values(?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.UserID, r.Level.String(), r.Score, r.Rank,
		r.Tally.PerfectCount, r.Tally.GoodCount, r.Tally.MissCount,
		r.FinishedAt.UnixMilli(),
	)
	if nil != err {
		log.Error().Err(err).Str("session_id", r.ID).Msg("unable to save result")
	}
}

// Results returns the history for a user and level, newest first.
func (s *SQLite) Results(userID string, level game.Level, limit int) []Result {
	results := []Result{}
	rows, err := s.db.Query(
		"select id, score, rank, perfect, good, miss, finished_at from results where user_id = ? and level = ? order by finished_at desc limit ?",
		userID, level.String(), limit,
	)
	if nil != err {
		log.Error().Err(err).Msg("unable to load results")
		return results
	}
	defer rows.Close()
	for rows.Next() {
		r := Result{UserID: userID, Level: level}
		var finished int64
		if err := rows.Scan(&r.ID, &r.Score, &r.Rank, &r.Tally.PerfectCount, &r.Tally.GoodCount, &r.Tally.MissCount, &finished); nil != err {
			log.Error().Err(err).Msg("unable to scan result")
			continue
		}
		r.FinishedAt = time.UnixMilli(finished)
		results = append(results, r)
	}
	return results
}
