// Package natskv keeps best scores in a NATS JetStream key-value bucket.
// Writes are compare-and-swap merges that keep the max per field, and
// change notifications come from a key watcher.
package natskv

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"git.lost.host/meutraa/rushline/internal/game"
	"git.lost.host/meutraa/rushline/internal/remote"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBucket     = "RUSHLINE_SCORES"
	maxCASAttempts    = 5
	natsReconnectWait = 2 * time.Second
)

var _ remote.Store = (*Store)(nil)

type Store struct {
	nc *nats.Conn
	kv jetstream.KeyValue
}

// Connect opens a NATS connection and ensures the score bucket exists.
func Connect(ctx context.Context, natsURL, bucket string) (*Store, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if nil != err {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(nc)
	if nil != err {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Best scores per user",
		History:     1,
	})
	if nil != err {
		nc.Close()
		return nil, fmt.Errorf("ensure bucket %s: %w", bucket, err)
	}

	log.Info().Str("url", natsURL).Str("bucket", bucket).Msg("NATS score store ready")
	return &Store{nc: nc, kv: kv}, nil
}

// Key maps a user id onto the restricted key alphabet of a bucket.
func Key(userID string) string {
	return "user." + base64.RawURLEncoding.EncodeToString([]byte(userID))
}

func decode(data []byte) (game.ScoreEntry, error) {
	var entry game.ScoreEntry
	if len(data) == 0 {
		return entry, nil
	}
	err := json.Unmarshal(data, &entry)
	return entry, err
}

func (s *Store) Get(ctx context.Context, userID string) (game.ScoreEntry, error) {
	e, err := s.kv.Get(ctx, Key(userID))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return game.ScoreEntry{}, game.ErrNotFound
	}
	if nil != err {
		return game.ScoreEntry{}, fmt.Errorf("get scores of %s: %w", userID, err)
	}
	return decode(e.Value())
}

func (s *Store) Subscribe(ctx context.Context, userID string) (<-chan game.ScoreEntry, error) {
	w, err := s.kv.Watch(ctx, Key(userID))
	if nil != err {
		return nil, fmt.Errorf("watch scores of %s: %w", userID, err)
	}

	out := make(chan game.ScoreEntry, 1)
	go func() {
		defer close(out)
		defer w.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Updates():
				if !ok {
					return
				}
				// nil marks the end of the initial values
				if nil == e || e.Operation() != jetstream.KeyValuePut {
					continue
				}
				entry, err := decode(e.Value())
				if nil != err {
					log.Error().Err(err).Str("user_id", userID).Msg("unable to decode score update")
					continue
				}
				select {
				case out <- entry:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// MergeWrite folds fields into the stored document, keeping the larger value
// of every field, and retries when another writer got in between.
func (s *Store) MergeWrite(ctx context.Context, userID string, fields map[game.ScoreField]int) error {
	if len(fields) == 0 {
		return nil
	}
	key := Key(userID)
	incoming := game.EntryFromFields(fields)

	var err error
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		err = s.tryMerge(ctx, key, incoming)
		if nil == err || !conflict(err) {
			break
		}
		log.Debug().Str("user_id", userID).Int("attempt", attempt+1).Msg("score merge conflict, retrying")
	}
	if nil != err {
		return fmt.Errorf("merge scores of %s: %w", userID, err)
	}
	return nil
}

func (s *Store) tryMerge(ctx context.Context, key string, incoming game.ScoreEntry) error {
	current, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		data, err := json.Marshal(incoming)
		if nil != err {
			return err
		}
		_, err = s.kv.Create(ctx, key, data)
		return err
	}
	if nil != err {
		return err
	}

	stored, err := decode(current.Value())
	if nil != err {
		return err
	}
	merged, changed := stored.MergeMax(incoming)
	if !changed {
		return nil
	}
	data, err := json.Marshal(merged)
	if nil != err {
		return err
	}
	_, err = s.kv.Update(ctx, key, data, current.Revision())
	return err
}

func conflict(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

func (s *Store) Close() error {
	if nil != s.nc {
		s.nc.Close()
	}
	return nil
}
