package shortener

import (
	"context"
	"fmt"
	"strings"
)

// Service manages the lifecycle of records: create, delete, search, list and purge.
// Every mutation runs as a single Repository.Atomic unit.
type Service struct {
	repo      Repository
	allocator *Allocator
}

// NewService creates a record lifecycle service.
func NewService(repo Repository, allocator *Allocator) *Service {
	return &Service{repo: repo, allocator: allocator}
}

// Create maps rawURL to a keyword. URLs without a protocol get https://.
func (s *Service) Create(ctx context.Context, rawURL, customKeyword string) (CreateResult, error) {
	if strings.TrimSpace(rawURL) == "" {
		return CreateResult{}, ErrInvalidURL
	}

	originalURL := EnsureScheme(rawURL)

	var result CreateResult

	err := s.repo.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		var err error

		result, err = s.allocator.Assign(ctx, tx, originalURL, customKeyword)

		return err
	})
	if err != nil {
		return CreateResult{}, err
	}

	return result, nil
}

// Delete removes the record identified by input, which may be a bare keyword,
// a short URL path or an original URL with or without protocol. The first
// lookup that does not come back empty decides the outcome. Nothing is deleted
// when that lookup is ambiguous.
func (s *Service) Delete(ctx context.Context, input string) (Record, error) {
	input = strings.TrimPrefix(input, "/")

	var deleted Record

	err := s.repo.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		res, err := s.resolveForDelete(ctx, tx, input)
		if err != nil {
			return err
		}

		if res.Status != Found {
			return res.Err()
		}

		if err := tx.DeleteByKeyword(ctx, res.Value); err != nil {
			return fmt.Errorf("delete record: %w", err)
		}

		if err := tx.Release(ctx, res.Value); err != nil {
			return fmt.Errorf("release word: %w", err)
		}

		deleted = res.Record

		return nil
	})
	if err != nil {
		return Record{}, err
	}

	return deleted, nil
}

func (s *Service) resolveForDelete(ctx context.Context, tx Tx, input string) (Resolution, error) {
	type attempt struct {
		value string
		query Field
	}

	attempts := make([]attempt, 0, 3)
	if !HasScheme(input) {
		attempts = append(attempts, attempt{value: defaultScheme + input, query: FieldOriginal})
	}

	attempts = append(attempts,
		attempt{value: input, query: FieldOriginal},
		attempt{value: input, query: FieldShort},
	)

	for _, a := range attempts {
		res, err := Resolve(ctx, tx, a.value, a.query, FieldShort)
		if err != nil {
			return Resolution{}, err
		}

		if res.Status != NotFound {
			return res, nil
		}
	}

	return Resolution{Status: NotFound}, nil
}

// Search resolves value on the query field and returns the response field.
func (s *Service) Search(ctx context.Context, value string, query, response Field) (Resolution, error) {
	return Resolve(ctx, s.repo, value, query, response)
}

// Lookup returns the original URL behind a keyword.
func (s *Service) Lookup(ctx context.Context, keyword string) (string, error) {
	res, err := s.Search(ctx, keyword, FieldShort, FieldOriginal)
	if err != nil {
		return "", err
	}

	if err := res.Err(); err != nil {
		return "", err
	}

	return res.Value, nil
}

// List returns every live record in no particular order.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	return records, nil
}

// Purge deletes every record and returns every pool word to unused.
func (s *Service) Purge(ctx context.Context) error {
	return s.repo.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.DeleteAll(ctx); err != nil {
			return fmt.Errorf("delete records: %w", err)
		}

		if err := tx.ResetWords(ctx); err != nil {
			return fmt.Errorf("reset words: %w", err)
		}

		return nil
	})
}

// Stats reports pool and record counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}
