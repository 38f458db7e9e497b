// Package wordlist reads and prepares the word files behind the keyword pool:
// the dictionary of auto-assignable words and the forbidden custom keywords.
package wordlist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/serroba/wordlink/internal/shortener"
)

// Read returns the words of r, one per line. Blank lines and lines starting
// with # are skipped and surrounding whitespace is trimmed.
func Read(r io.Reader) ([]string, error) {
	var words []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		words = append(words, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return words, nil
}

// Load reads the words of the file at path.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	words, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read word list %s: %w", path, err)
	}

	return words, nil
}

// LoadForbidden loads the forbidden words at path together with reserved.
// An empty path yields only the reserved words.
func LoadForbidden(path string, reserved ...string) (shortener.WordSet, error) {
	if path == "" {
		return shortener.NewWordSet(reserved...), nil
	}

	words, err := Load(path)
	if err != nil {
		return shortener.WordSet{}, err
	}

	return shortener.NewWordSet(append(words, reserved...)...), nil
}

// Prepare turns raw dictionary words into pool words: forbidden and
// non-alphanumeric words are dropped, duplicates removed and the result sorted.
func Prepare(words []string, allocator *shortener.Allocator) []string {
	out := make([]string, 0, len(words))

	for _, w := range words {
		if allocator.Validate(w) != nil {
			continue
		}

		out = append(out, w)
	}

	slices.Sort(out)

	return slices.Compact(out)
}

// Write writes words one per line.
func Write(w io.Writer, words []string) error {
	bw := bufio.NewWriter(w)

	for _, word := range words {
		if _, err := bw.WriteString(word + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Seeder stores words in the keyword pool.
type Seeder interface {
	SeedWords(ctx context.Context, words []string) (int, error)
}

// Seed loads the dictionary at path, prepares it and adds it to the pool.
// It returns the number of prepared words and how many of them were new.
func Seed(ctx context.Context, seeder Seeder, allocator *shortener.Allocator, path string) (prepared, inserted int, err error) {
	raw, err := Load(path)
	if err != nil {
		return 0, 0, err
	}

	words := Prepare(raw, allocator)

	inserted, err = seeder.SeedWords(ctx, words)
	if err != nil {
		return len(words), 0, fmt.Errorf("seed words: %w", err)
	}

	return len(words), inserted, nil
}
