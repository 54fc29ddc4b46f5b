// Package fbstore keeps best scores in a Firebase Firestore collection,
// one document per user.
package fbstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"git.lost.host/meutraa/rushline/internal/game"
	"git.lost.host/meutraa/rushline/internal/remote"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DefaultCollection = "scores"

var _ remote.Store = (*Store)(nil)

type Config struct {
	ProjectID       string
	CredentialsPath string
	Collection      string
}

type Store struct {
	client     *firestore.Client
	collection string
}

// New initialises a Firebase app from a service account file.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if nil != err {
		return nil, fmt.Errorf("init firebase app from '%s': %w", cfg.CredentialsPath, err)
	}
	client, err := app.Firestore(ctx)
	if nil != err {
		return nil, fmt.Errorf("get firestore client: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	log.Info().Str("project_id", cfg.ProjectID).Str("collection", collection).Msg("firestore score store ready")
	return &Store{client: client, collection: collection}, nil
}

func (s *Store) doc(userID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(userID)
}

func (s *Store) Get(ctx context.Context, userID string) (game.ScoreEntry, error) {
	var entry game.ScoreEntry
	snap, err := s.doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return entry, game.ErrNotFound
	}
	if nil != err {
		return entry, fmt.Errorf("get scores of %s: %w", userID, err)
	}
	if err := snap.DataTo(&entry); nil != err {
		return entry, fmt.Errorf("decode scores of %s: %w", userID, err)
	}
	return entry, nil
}

func (s *Store) Subscribe(ctx context.Context, userID string) (<-chan game.ScoreEntry, error) {
	it := s.doc(userID).Snapshots(ctx)
	out := make(chan game.ScoreEntry, 1)

	go func() {
		defer close(out)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if nil != err {
				if status.Code(err) != codes.Canceled && ctx.Err() == nil {
					log.Error().Err(err).Str("user_id", userID).Msg("firestore snapshot stream failed")
				}
				return
			}
			if !snap.Exists() {
				continue
			}
			var entry game.ScoreEntry
			if err := snap.DataTo(&entry); nil != err {
				log.Error().Err(err).Str("user_id", userID).Msg("unable to decode score snapshot")
				continue
			}
			select {
			case out <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// MergeWrite sends only the changed fields so writers touching other fields
// are not clobbered.
func (s *Store) MergeWrite(ctx context.Context, userID string, fields map[game.ScoreField]int) error {
	if len(fields) == 0 {
		return nil
	}
	if _, err := s.doc(userID).Set(ctx, Document(fields), firestore.MergeAll); nil != err {
		return fmt.Errorf("merge scores of %s: %w", userID, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Document converts a partial field set into a Firestore merge document.
func Document(fields map[game.ScoreField]int) map[string]interface{} {
	doc := make(map[string]interface{}, len(fields))
	for f, v := range fields {
		if f.Valid() {
			doc[string(f)] = int64(v)
		}
	}
	return doc
}
