package store

import (
	"context"
	"maps"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/serroba/wordlink/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

// NewMemoryStore creates a new in-memory store with an empty word pool.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

func (m *MemoryStore) Allocate(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.Allocate(ctx)
}

func (m *MemoryStore) MarkUsed(ctx context.Context, word string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.MarkUsed(ctx, word)
}

func (m *MemoryStore) Release(ctx context.Context, word string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.Release(ctx, word)
}

func (m *MemoryStore) ResetWords(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.ResetWords(ctx)
}

func (m *MemoryStore) Insert(ctx context.Context, record shortener.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.Insert(ctx, record)
}

func (m *MemoryStore) FindByKeyword(ctx context.Context, keyword string) ([]shortener.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.FindByKeyword(ctx, keyword)
}

func (m *MemoryStore) FindByURL(ctx context.Context, originalURL string) ([]shortener.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.FindByURL(ctx, originalURL)
}

func (m *MemoryStore) DeleteByKeyword(ctx context.Context, keyword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.DeleteByKeyword(ctx, keyword)
}

func (m *MemoryStore) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.DeleteAll(ctx)
}

func (m *MemoryStore) ListAll(ctx context.Context) ([]shortener.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.ListAll(ctx)
}

// Atomic runs fn against the live state and undoes its changes when fn fails
// or panics. Transactions are serialized with every other operation on the store.
func (m *MemoryStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx shortener.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.undo = &undoLog{words: make(map[string]bool)}
	committed := false

	defer func() {
		if !committed {
			m.state.rollback()
		}

		m.state.undo = nil
	}()

	if err := fn(ctx, m.state); err != nil {
		return err
	}

	committed = true

	return nil
}

func (m *MemoryStore) SeedWords(_ context.Context, words []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := make(map[string]bool, len(m.state.records))
	for _, r := range m.state.records {
		live[r.Keyword] = true
	}

	added := 0

	for _, w := range words {
		if _, ok := m.state.words[w]; ok {
			continue
		}

		// A word already used as a custom keyword enters the pool as used.
		m.state.words[w] = live[w]
		added++
	}

	return added, nil
}

func (m *MemoryStore) Stats(_ context.Context) (shortener.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := shortener.Stats{Words: len(m.state.words), Records: len(m.state.records)}

	for _, used := range m.state.words {
		if used {
			stats.UsedWords++
		}
	}

	return stats, nil
}

// InsertUnchecked stores a record without the keyword uniqueness check.
// It exists to reproduce inconsistent legacy data.
func (m *MemoryStore) InsertUnchecked(record shortener.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.records = append(m.state.records, record)
}

// WordUsed reports the used flag of a pool word and whether the word exists.
func (m *MemoryStore) WordUsed(word string) (used, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	used, ok = m.state.words[word]

	return used, ok
}

// Shutdown is a no-op for MemoryStore.
func (m *MemoryStore) Shutdown() error {
	return nil
}

// memoryState holds the data behind a MemoryStore and implements shortener.Tx
// without locking.
type memoryState struct {
	records []shortener.Record
	words   map[string]bool // word -> used
	undo    *undoLog        // set while a transaction runs
}

// undoLog keeps the prior value of every word a transaction touched and the
// records as they were before its first record change.
type undoLog struct {
	words   map[string]bool
	records []shortener.Record
	saved   bool
}

func newMemoryState() *memoryState {
	return &memoryState{words: make(map[string]bool)}
}

func (s *memoryState) setWord(word string, used bool) {
	if s.undo != nil {
		if _, seen := s.undo.words[word]; !seen {
			s.undo.words[word] = s.words[word]
		}
	}

	s.words[word] = used
}

func (s *memoryState) saveRecords() {
	if s.undo != nil && !s.undo.saved {
		s.undo.records = slices.Clone(s.records)
		s.undo.saved = true
	}
}

func (s *memoryState) rollback() {
	maps.Copy(s.words, s.undo.words)

	if s.undo.saved {
		s.records = s.undo.records
	}
}

func (s *memoryState) Allocate(_ context.Context) (string, error) {
	unused := make([]string, 0)

	for w, used := range s.words {
		if !used {
			unused = append(unused, w)
		}
	}

	if len(unused) == 0 {
		return "", shortener.ErrExhausted
	}

	word := unused[rand.IntN(len(unused))] //nolint:gosec // keyword choice, not a secret
	s.setWord(word, true)

	return word, nil
}

func (s *memoryState) MarkUsed(_ context.Context, word string) error {
	if _, ok := s.words[word]; ok {
		s.setWord(word, true)
	}

	return nil
}

func (s *memoryState) Release(_ context.Context, word string) error {
	if _, ok := s.words[word]; !ok {
		// Custom keywords never came from the pool.
		return nil
	}

	s.setWord(word, false)

	return nil
}

func (s *memoryState) ResetWords(_ context.Context) error {
	for w, used := range s.words {
		if used {
			s.setWord(w, false)
		}
	}

	return nil
}

func (s *memoryState) Insert(_ context.Context, record shortener.Record) error {
	for _, r := range s.records {
		if r.Keyword == record.Keyword {
			return shortener.ErrDuplicateKeyword
		}
	}

	s.saveRecords()
	s.records = append(s.records, record)

	return nil
}

func (s *memoryState) FindByKeyword(_ context.Context, keyword string) ([]shortener.Record, error) {
	return s.filter(func(r shortener.Record) bool { return r.Keyword == keyword }), nil
}

func (s *memoryState) FindByURL(_ context.Context, originalURL string) ([]shortener.Record, error) {
	return s.filter(func(r shortener.Record) bool { return r.Original == originalURL }), nil
}

func (s *memoryState) DeleteByKeyword(_ context.Context, keyword string) error {
	s.saveRecords()
	s.records = slices.DeleteFunc(s.records, func(r shortener.Record) bool {
		return r.Keyword == keyword
	})

	return nil
}

func (s *memoryState) DeleteAll(_ context.Context) error {
	s.saveRecords()
	s.records = nil

	return nil
}

func (s *memoryState) ListAll(_ context.Context) ([]shortener.Record, error) {
	return slices.Clone(s.records), nil
}

func (s *memoryState) filter(match func(shortener.Record) bool) []shortener.Record {
	var out []shortener.Record

	for _, r := range s.records {
		if match(r) {
			out = append(out, r)
		}
	}

	return out
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
