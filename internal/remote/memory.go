package remote

import (
	"context"
	"sync"

	"git.lost.host/meutraa/rushline/internal/game"
)

// Memory is an in-process Store. Like a document database it applies merge
// writes field by field and notifies every subscriber of the new document.
type Memory struct {
	mu     sync.Mutex
	docs   map[string]game.ScoreEntry
	subs   map[string]map[chan game.ScoreEntry]struct{}
	closed bool
}

func NewMemory() *Memory {
	return &Memory{
		docs: map[string]game.ScoreEntry{},
		subs: map[string]map[chan game.ScoreEntry]struct{}{},
	}
}

func (m *Memory) Get(ctx context.Context, userID string) (game.ScoreEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return game.ScoreEntry{}, ErrClosed
	}
	entry, ok := m.docs[userID]
	if !ok {
		return game.ScoreEntry{}, game.ErrNotFound
	}
	return entry, nil
}

func (m *Memory) Subscribe(ctx context.Context, userID string) (<-chan game.ScoreEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	ch := make(chan game.ScoreEntry, 8)
	if nil == m.subs[userID] {
		m.subs[userID] = map[chan game.ScoreEntry]struct{}{}
	}
	m.subs[userID][ch] = struct{}{}
	if entry, ok := m.docs[userID]; ok {
		ch <- entry
	}

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[userID][ch]; ok {
			delete(m.subs[userID], ch)
			close(ch)
		}
	}()
	return ch, nil
}

func (m *Memory) MergeWrite(ctx context.Context, userID string, fields map[game.ScoreField]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	entry := m.docs[userID]
	for f, v := range fields {
		entry = entry.With(f, v)
	}
	m.docs[userID] = entry
	m.publish(userID, entry)
	return nil
}

// Put overwrites a whole document, as another device writing stale data would.
func (m *Memory) Put(userID string, entry game.ScoreEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[userID] = entry
	m.publish(userID, entry)
}

func (m *Memory) publish(userID string, entry game.ScoreEntry) {
	for ch := range m.subs[userID] {
		select {
		case ch <- entry:
		default:
			// Slow subscriber, drop the oldest so the newest is delivered
			select {
			case <-ch:
			default:
			}
			ch <- entry
		}
	}
}

// Close ends every subscription and fails further calls.
func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for userID, subs := range m.subs {
		for ch := range subs {
			close(ch)
		}
		delete(m.subs, userID)
	}
}
