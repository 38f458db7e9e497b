package shortener

import "context"

// WordPool is the set of dictionary words available as auto-assigned keywords.
type WordPool interface {
	// Allocate picks an unused word uniformly at random and marks it used.
	// It returns ErrExhausted when no unused word exists.
	Allocate(ctx context.Context) (string, error)
	// MarkUsed flags the word as used. Words outside the pool are ignored.
	MarkUsed(ctx context.Context, word string) error
	// Release flags the word as unused. Words outside the pool are ignored.
	Release(ctx context.Context, word string) error
	// ResetWords marks every word in the pool as unused.
	ResetWords(ctx context.Context) error
}

// MappingStore holds the original URL to keyword mappings.
type MappingStore interface {
	// Insert stores a record, returning ErrDuplicateKeyword if the keyword is live.
	Insert(ctx context.Context, record Record) error
	FindByKeyword(ctx context.Context, keyword string) ([]Record, error)
	FindByURL(ctx context.Context, originalURL string) ([]Record, error)
	// DeleteByKeyword removes the record with this keyword, if any.
	DeleteByKeyword(ctx context.Context, keyword string) error
	DeleteAll(ctx context.Context) error
	ListAll(ctx context.Context) ([]Record, error)
}

// Tx is the view of the store available inside an atomic unit of work.
type Tx interface {
	WordPool
	MappingStore
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	Words     int
	UsedWords int
	Records   int
}

// Repository is the persistent backing of the word pool and the mappings.
type Repository interface {
	Tx
	// Atomic runs fn in a single transaction. Every change made through tx is
	// committed when fn returns nil and discarded otherwise.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// SeedWords adds words to the pool as unused and returns how many were new.
	SeedWords(ctx context.Context, words []string) (int, error)
	Stats(ctx context.Context) (Stats, error)
}
