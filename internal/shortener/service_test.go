package shortener_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/serroba/wordlink/internal/shortener"
	"github.com/serroba/wordlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "https://example.com"

func newTestService(t *testing.T, words ...string) (*shortener.Service, *store.MemoryStore) {
	t.Helper()

	memStore := store.NewMemoryStore()
	_, err := memStore.SeedWords(context.Background(), words)
	require.NoError(t, err)

	allocator := shortener.NewAllocator(shortener.NewWordSet("admin", "api"))

	return shortener.NewService(memStore, allocator), memStore
}

func TestService_CreateCustom(t *testing.T) {
	t.Run("creates a custom record that resolves back", func(t *testing.T) {
		svc, _ := newTestService(t)

		res, err := svc.Create(context.Background(), testURL, "mylink")

		require.NoError(t, err)
		assert.Equal(t, "mylink", res.Record.Keyword)
		assert.Equal(t, shortener.OutcomeCreated, res.Outcome)
		assert.True(t, res.Custom)

		found, err := svc.Search(context.Background(), "mylink", shortener.FieldShort, shortener.FieldOriginal)
		require.NoError(t, err)
		assert.Equal(t, shortener.Found, found.Status)
		assert.Equal(t, testURL, found.Value)
	})

	t.Run("returns ErrIllegalKeyword for non-alphanumeric keywords", func(t *testing.T) {
		svc, memStore := newTestService(t)

		_, err := svc.Create(context.Background(), testURL, "my-link")

		assert.ErrorIs(t, err, shortener.ErrIllegalKeyword)

		all, _ := memStore.ListAll(context.Background())
		assert.Empty(t, all)
	})

	t.Run("returns ErrIllegalKeyword for forbidden words", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Create(context.Background(), testURL, "admin")

		assert.ErrorIs(t, err, shortener.ErrIllegalKeyword)
	})

	t.Run("treats a whitespace-only keyword as illegal", func(t *testing.T) {
		svc, _ := newTestService(t, "apple")

		_, err := svc.Create(context.Background(), testURL, "  ")

		assert.ErrorIs(t, err, shortener.ErrIllegalKeyword)
	})

	t.Run("is idempotent for identical requests", func(t *testing.T) {
		svc, memStore := newTestService(t)

		first, err1 := svc.Create(context.Background(), testURL, "mylink")
		second, err2 := svc.Create(context.Background(), testURL, "mylink")

		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, first.Record, second.Record)
		assert.Equal(t, shortener.OutcomeExisting, second.Outcome)

		all, _ := memStore.ListAll(context.Background())
		assert.Len(t, all, 1)
	})

	t.Run("returns ErrConflict when the keyword maps elsewhere", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, _ = svc.Create(context.Background(), testURL, "mylink")

		_, err := svc.Create(context.Background(), "https://other.com", "mylink")

		assert.ErrorIs(t, err, shortener.ErrConflict)
	})

	t.Run("allows several custom keywords for one url", func(t *testing.T) {
		svc, memStore := newTestService(t)

		_, err1 := svc.Create(context.Background(), testURL, "first")
		_, err2 := svc.Create(context.Background(), testURL, "second")

		require.NoError(t, err1)
		require.NoError(t, err2)

		all, _ := memStore.ListAll(context.Background())
		assert.Len(t, all, 2)
	})

	t.Run("marks a colliding pool word as used", func(t *testing.T) {
		svc, memStore := newTestService(t, "apple")

		_, err := svc.Create(context.Background(), testURL, "apple")
		require.NoError(t, err)

		used, _ := memStore.WordUsed("apple")
		assert.True(t, used)

		_, err = svc.Create(context.Background(), "https://other.com", "")
		assert.ErrorIs(t, err, shortener.ErrExhausted)
	})

	t.Run("keeps a custom keyword out of the pool when it is seeded later", func(t *testing.T) {
		svc, memStore := newTestService(t)

		_, err := svc.Create(context.Background(), testURL, "pear")
		require.NoError(t, err)

		added, err := memStore.SeedWords(context.Background(), []string{"pear"})
		require.NoError(t, err)
		assert.Equal(t, 1, added)

		used, ok := memStore.WordUsed("pear")
		assert.True(t, ok)
		assert.True(t, used)

		_, err = svc.Create(context.Background(), "https://other.com", "")
		assert.ErrorIs(t, err, shortener.ErrExhausted)

		_, err = svc.Delete(context.Background(), "pear")
		require.NoError(t, err)

		res, err := svc.Create(context.Background(), "https://other.com", "")
		require.NoError(t, err)
		assert.Equal(t, "pear", res.Record.Keyword)
	})

	t.Run("serializes racing creates of the same keyword", func(t *testing.T) {
		svc, memStore := newTestService(t)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			conflicts int
		)

		for i := range 10 {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				url := testURL + "/" + string(rune('a'+i))
				if _, err := svc.Create(context.Background(), url, "race"); errors.Is(err, shortener.ErrConflict) {
					mu.Lock()
					conflicts++
					mu.Unlock()
				}
			}(i)
		}

		wg.Wait()

		all, _ := memStore.ListAll(context.Background())
		assert.Len(t, all, 1)
		assert.Equal(t, 9, conflicts)
	})
}

func TestService_CreateAuto(t *testing.T) {
	t.Run("draws a keyword from the pool", func(t *testing.T) {
		svc, memStore := newTestService(t, "apple", "banana")

		res, err := svc.Create(context.Background(), testURL, "")

		require.NoError(t, err)
		assert.Contains(t, []string{"apple", "banana"}, res.Record.Keyword)
		assert.Equal(t, shortener.OutcomeCreated, res.Outcome)
		assert.False(t, res.Custom)

		used, _ := memStore.WordUsed(res.Record.Keyword)
		assert.True(t, used)
	})

	t.Run("prefixes https when the protocol is missing", func(t *testing.T) {
		svc, _ := newTestService(t, "apple")

		res, err := svc.Create(context.Background(), "example.com", "")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com", res.Record.Original)
	})

	t.Run("returns the existing keyword for a known url", func(t *testing.T) {
		svc, memStore := newTestService(t, "apple", "banana")

		first, err1 := svc.Create(context.Background(), testURL, "")
		second, err2 := svc.Create(context.Background(), testURL, "")

		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, first.Record.Keyword, second.Record.Keyword)
		assert.Equal(t, shortener.OutcomeExisting, second.Outcome)

		all, _ := memStore.ListAll(context.Background())
		assert.Len(t, all, 1)
	})

	t.Run("returns ErrExhausted and creates nothing when the pool is empty", func(t *testing.T) {
		svc, memStore := newTestService(t)

		_, err := svc.Create(context.Background(), testURL, "")

		assert.ErrorIs(t, err, shortener.ErrExhausted)

		all, _ := memStore.ListAll(context.Background())
		assert.Empty(t, all)
	})

	t.Run("rejects a blank url", func(t *testing.T) {
		svc, _ := newTestService(t, "apple")

		_, err := svc.Create(context.Background(), " ", "")

		assert.ErrorIs(t, err, shortener.ErrInvalidURL)
	})

	t.Run("never allocates the same word to concurrent creates", func(t *testing.T) {
		words := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
		svc, memStore := newTestService(t, words...)

		var wg sync.WaitGroup

		for i := range words {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				_, err := svc.Create(context.Background(), testURL+"/"+words[i], "")
				assert.NoError(t, err)
			}(i)
		}

		wg.Wait()

		all, _ := memStore.ListAll(context.Background())
		keywords := map[string]bool{}

		for _, r := range all {
			keywords[r.Keyword] = true
		}

		assert.Len(t, keywords, len(words))
	})
}

func TestService_Delete(t *testing.T) {
	inputs := []string{
		"apple",
		"/apple",
		"https://example.com",
		"example.com",
	}

	for _, input := range inputs {
		t.Run("deletes the record for input "+input, func(t *testing.T) {
			svc, memStore := newTestService(t, "apple")
			_, err := svc.Create(context.Background(), "https://example.com", "")
			require.NoError(t, err)

			deleted, err := svc.Delete(context.Background(), input)

			require.NoError(t, err)
			assert.Equal(t, shortener.Record{Original: "https://example.com", Keyword: "apple"}, deleted)

			all, _ := memStore.ListAll(context.Background())
			assert.Empty(t, all)
		})
	}

	t.Run("releases the pool word for reuse", func(t *testing.T) {
		svc, memStore := newTestService(t, "apple")
		_, _ = svc.Create(context.Background(), testURL, "")

		_, err := svc.Delete(context.Background(), "apple")
		require.NoError(t, err)

		used, _ := memStore.WordUsed("apple")
		assert.False(t, used)

		res, err := svc.Create(context.Background(), "https://other.com", "")
		require.NoError(t, err)
		assert.Equal(t, "apple", res.Record.Keyword)
	})

	t.Run("deletes custom keywords outside the pool", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, _ = svc.Create(context.Background(), testURL, "mylink")

		deleted, err := svc.Delete(context.Background(), "mylink")

		require.NoError(t, err)
		assert.Equal(t, "mylink", deleted.Keyword)
	})

	t.Run("returns ErrNotFound when nothing matches", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Delete(context.Background(), "missing")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("prefers the original url over a keyword", func(t *testing.T) {
		svc, memStore := newTestService(t)
		_, _ = svc.Create(context.Background(), "https://mylink", "other")
		_, _ = svc.Create(context.Background(), testURL, "mylink")

		deleted, err := svc.Delete(context.Background(), "mylink")

		require.NoError(t, err)
		assert.Equal(t, "other", deleted.Keyword)

		all, _ := memStore.ListAll(context.Background())
		assert.Equal(t, []shortener.Record{{Original: testURL, Keyword: "mylink"}}, all)
	})

	t.Run("deletes nothing when the url is ambiguous", func(t *testing.T) {
		svc, memStore := newTestService(t)
		_, _ = svc.Create(context.Background(), testURL, "first")
		_, _ = svc.Create(context.Background(), testURL, "second")

		_, err := svc.Delete(context.Background(), testURL)

		assert.ErrorIs(t, err, shortener.ErrAmbiguous)

		all, _ := memStore.ListAll(context.Background())
		assert.Len(t, all, 2)
	})
}

func TestService_Search(t *testing.T) {
	t.Run("resolves original to short", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, _ = svc.Create(context.Background(), testURL, "mylink")

		res, err := svc.Search(context.Background(), testURL, shortener.FieldOriginal, shortener.FieldShort)

		require.NoError(t, err)
		assert.Equal(t, shortener.Found, res.Status)
		assert.Equal(t, "mylink", res.Value)
	})

	t.Run("reports not found", func(t *testing.T) {
		svc, _ := newTestService(t)

		res, err := svc.Search(context.Background(), "missing", shortener.FieldShort, shortener.FieldOriginal)

		require.NoError(t, err)
		assert.Equal(t, shortener.NotFound, res.Status)
		assert.Empty(t, res.Value)
		assert.ErrorIs(t, res.Err(), shortener.ErrNotFound)
	})

	t.Run("reports ambiguity without a value", func(t *testing.T) {
		svc, memStore := newTestService(t)
		memStore.InsertUnchecked(shortener.Record{Original: testURL, Keyword: "dup"})
		memStore.InsertUnchecked(shortener.Record{Original: "https://other.com", Keyword: "dup"})

		res, err := svc.Search(context.Background(), "dup", shortener.FieldShort, shortener.FieldOriginal)

		require.NoError(t, err)
		assert.Equal(t, shortener.Ambiguous, res.Status)
		assert.Empty(t, res.Value)
		assert.Equal(t, "Multiple found", res.Message())
	})

	t.Run("rejects an unknown field", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Search(context.Background(), "x", shortener.Field(0), shortener.FieldOriginal)

		assert.Error(t, err)
	})
}

func TestService_Lookup(t *testing.T) {
	t.Run("returns the original url", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, _ = svc.Create(context.Background(), testURL, "mylink")

		url, err := svc.Lookup(context.Background(), "mylink")

		require.NoError(t, err)
		assert.Equal(t, testURL, url)
	})

	t.Run("returns ErrNotFound for unknown keywords", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Lookup(context.Background(), "missing")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})
}

func TestService_ListAndPurge(t *testing.T) {
	t.Run("lists every record", func(t *testing.T) {
		svc, _ := newTestService(t, "apple")
		_, _ = svc.Create(context.Background(), testURL, "")
		_, _ = svc.Create(context.Background(), "https://other.com", "mylink")

		records, err := svc.List(context.Background())

		require.NoError(t, err)
		assert.ElementsMatch(t, []shortener.Record{
			{Original: testURL, Keyword: "apple"},
			{Original: "https://other.com", Keyword: "mylink"},
		}, records)
	})

	t.Run("purge removes records and resets the pool", func(t *testing.T) {
		svc, _ := newTestService(t, "apple", "banana")
		_, _ = svc.Create(context.Background(), testURL, "")
		_, _ = svc.Create(context.Background(), "https://other.com", "")

		require.NoError(t, svc.Purge(context.Background()))

		records, err := svc.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)

		stats, err := svc.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Words)
		assert.Zero(t, stats.UsedWords)
		assert.Zero(t, stats.Records)
	})
}
