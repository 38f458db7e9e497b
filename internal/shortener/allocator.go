package shortener

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Outcome tells whether a create produced a new record or matched an existing one.
type Outcome int

const (
	// OutcomeCreated means a new record was inserted.
	OutcomeCreated Outcome = iota + 1
	// OutcomeExisting means an identical record was already live.
	OutcomeExisting
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeExisting:
		return "existing"
	default:
		return "unknown"
	}
}

// CreateResult describes the keyword chosen for a create request.
type CreateResult struct {
	Record  Record
	Outcome Outcome
	Custom  bool
}

// Message is the human readable summary of the result.
func (r CreateResult) Message() string {
	switch {
	case r.Custom && r.Outcome == OutcomeExisting:
		return "Custom record same as last request!"
	case r.Custom:
		return "Custom record created!"
	case r.Outcome == OutcomeExisting:
		return "Existing record found!"
	default:
		return "Record created!"
	}
}

// Allocator decides the keyword for new records.
type Allocator struct {
	forbidden WordSet
}

// NewAllocator creates an allocator rejecting the given forbidden words as custom keywords.
func NewAllocator(forbidden WordSet) *Allocator {
	return &Allocator{forbidden: forbidden}
}

// Validate checks a custom keyword against the charset and the forbidden words.
func (a *Allocator) Validate(keyword string) error {
	if strings.TrimSpace(keyword) == "" {
		return fmt.Errorf("%w: blank keyword", ErrIllegalKeyword)
	}

	if a.forbidden.Contains(keyword) {
		return fmt.Errorf("%w: %q is forbidden", ErrIllegalKeyword, keyword)
	}

	if !isAlphanumeric(keyword) {
		return fmt.Errorf("%w: %q must only contain A-Z, a-z and 0-9", ErrIllegalKeyword, keyword)
	}

	return nil
}

// Assign picks the keyword for originalURL inside tx. An empty customKeyword
// draws a word from the pool; anything else is validated and used as is.
func (a *Allocator) Assign(ctx context.Context, tx Tx, originalURL, customKeyword string) (CreateResult, error) {
	if customKeyword != "" {
		return a.assignCustom(ctx, tx, originalURL, customKeyword)
	}

	return a.assignFromPool(ctx, tx, originalURL)
}

func (a *Allocator) assignCustom(ctx context.Context, tx Tx, originalURL, keyword string) (CreateResult, error) {
	if err := a.Validate(keyword); err != nil {
		return CreateResult{}, err
	}

	occupying, err := tx.FindByKeyword(ctx, keyword)
	if err != nil {
		return CreateResult{}, fmt.Errorf("lookup keyword: %w", err)
	}

	if len(occupying) > 0 {
		if occupying[0].Original == originalURL {
			return CreateResult{Record: occupying[0], Outcome: OutcomeExisting, Custom: true}, nil
		}

		return CreateResult{}, ErrConflict
	}

	if err := tx.MarkUsed(ctx, keyword); err != nil {
		return CreateResult{}, fmt.Errorf("mark word used: %w", err)
	}

	record := Record{Original: originalURL, Keyword: keyword}
	if err := tx.Insert(ctx, record); err != nil {
		// Lost a race with a concurrent create of the same keyword.
		if errors.Is(err, ErrDuplicateKeyword) {
			return CreateResult{}, ErrConflict
		}

		return CreateResult{}, fmt.Errorf("insert record: %w", err)
	}

	return CreateResult{Record: record, Outcome: OutcomeCreated, Custom: true}, nil
}

func (a *Allocator) assignFromPool(ctx context.Context, tx Tx, originalURL string) (CreateResult, error) {
	existing, err := tx.FindByURL(ctx, originalURL)
	if err != nil {
		return CreateResult{}, fmt.Errorf("lookup url: %w", err)
	}

	if len(existing) > 0 {
		return CreateResult{Record: existing[0], Outcome: OutcomeExisting}, nil
	}

	word, err := tx.Allocate(ctx)
	if err != nil {
		if errors.Is(err, ErrExhausted) {
			return CreateResult{}, ErrExhausted
		}

		return CreateResult{}, fmt.Errorf("allocate word: %w", err)
	}

	record := Record{Original: originalURL, Keyword: word}
	if err := tx.Insert(ctx, record); err != nil {
		return CreateResult{}, fmt.Errorf("insert record: %w", err)
	}

	return CreateResult{Record: record, Outcome: OutcomeCreated}, nil
}

func isAlphanumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}

	return true
}
