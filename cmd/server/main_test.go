package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/do"
	"github.com/serroba/wordlink/internal/container"
	"github.com/serroba/wordlink/internal/shortener"
	"github.com/serroba/wordlink/internal/wordlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeedInjector(t *testing.T, opts *container.Options) *do.Injector {
	t.Helper()

	injector := do.New()
	container.Register(injector, opts)

	t.Cleanup(func() {
		_ = injector.Shutdown()
	})

	return injector
}

func TestSeed(t *testing.T) {
	t.Run("fails without a dictionary file", func(t *testing.T) {
		opts := &container.Options{LogFormat: "json"}

		err := seed(newSeedInjector(t, opts), opts, nil)

		assert.Error(t, err)
	})

	t.Run("fails for a missing dictionary file", func(t *testing.T) {
		opts := &container.Options{LogFormat: "json", DictionaryFile: filepath.Join(t.TempDir(), "missing.txt")}

		err := seed(newSeedInjector(t, opts), opts, nil)

		assert.Error(t, err)
	})

	t.Run("seeds the pool and writes the prepared list", func(t *testing.T) {
		dir := t.TempDir()
		dict := filepath.Join(dir, "dict.txt")
		out := filepath.Join(dir, "prepared.txt")
		require.NoError(t, os.WriteFile(dict, []byte("pear\napple\nhealth\napple\n"), 0o600))

		opts := &container.Options{LogFormat: "json", DictionaryFile: dict}
		injector := newSeedInjector(t, opts)

		require.NoError(t, seed(injector, opts, []string{out}))

		f, err := os.Open(out)
		require.NoError(t, err)
		defer f.Close()

		words, err := wordlist.Read(f)
		require.NoError(t, err)
		assert.Equal(t, []string{"apple", "pear"}, words)

		stats, err := do.MustInvoke[shortener.Repository](injector).Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Words)
	})
}
