package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/wordlink/internal/container"
	"github.com/serroba/wordlink/internal/messaging"
	"github.com/serroba/wordlink/internal/shortener"
	"github.com/serroba/wordlink/internal/store"
	"github.com/serroba/wordlink/internal/wordlist"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		container.Register(injector, options)

		logger := do.MustInvoke[*zap.Logger](injector)

		var server *http.Server

		hooks.OnStart(func() {
			router := do.MustInvoke[*chi.Mux](injector)

			// Invoke API to trigger route registration
			_ = do.MustInvoke[huma.API](injector)

			if options.InProcessAudit() {
				auditRouter := do.MustInvoke[*messaging.Router](injector)
				if err := auditRouter.Start(context.Background()); err != nil {
					logger.Fatal("failed to start audit router", zap.Error(err))
				}
			}

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", options.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting",
				zap.Int("port", options.Port),
				zap.String("baseUrl", options.PublicBaseURL()),
			)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
		})
	})

	cli.Root().AddCommand(seedCommand(), migrateCommand())

	cli.Run()
}

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [output-file]",
		Short: "Prepare the dictionary file and add its words to the keyword pool",
		Long: "Loads the dictionary file, drops forbidden and non-alphanumeric words, " +
			"then adds the remaining words to the pool as unused, or as used when already live as a keyword. Existing words keep their state. " +
			"When an output file is given the prepared word list is also written there.",
		Args: cobra.MaximumNArgs(1),
		Run: humacli.WithOptions(func(_ *cobra.Command, args []string, options *container.Options) {
			options.SeedOnStart = false

			injector := do.New()
			container.Register(injector, options)

			logger := do.MustInvoke[*zap.Logger](injector)

			err := seed(injector, options, args)

			if shutdownErr := injector.Shutdown(); shutdownErr != nil {
				logger.Error("service shutdown error", zap.Error(shutdownErr))
			}

			if err != nil {
				logger.Fatal("seed failed", zap.Error(err))
			}
		}),
	}
}

func seed(injector *do.Injector, options *container.Options, args []string) error {
	if options.DictionaryFile == "" {
		return errors.New("no dictionary file configured")
	}

	logger := do.MustInvoke[*zap.Logger](injector)
	allocator := do.MustInvoke[*shortener.Allocator](injector)

	if options.DatabaseURL == "" {
		logger.Warn("seeding the in-memory store, words are lost on exit")
	}

	if len(args) == 1 {
		if err := writePrepared(options.DictionaryFile, args[0], allocator); err != nil {
			return err
		}

		logger.Info("prepared dictionary written", zap.String("file", args[0]))
	}

	repo, err := do.Invoke[shortener.Repository](injector)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	prepared, inserted, err := wordlist.Seed(ctx, repo, allocator, options.DictionaryFile)
	if err != nil {
		return err
	}

	logger.Info("dictionary seeded", zap.Int("words", prepared), zap.Int("inserted", inserted))

	return nil
}

func writePrepared(dictionary, output string, allocator *shortener.Allocator) error {
	words, err := wordlist.Load(dictionary)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer f.Close()

	return wordlist.Write(f, wordlist.Prepare(words, allocator))
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Run: humacli.WithOptions(func(_ *cobra.Command, _ []string, options *container.Options) {
			injector := do.New()
			do.ProvideValue(injector, options)
			container.LoggerPackage(injector)

			logger := do.MustInvoke[*zap.Logger](injector)

			if options.DatabaseURL == "" {
				logger.Fatal("no database configured")
			}

			if err := store.RunMigrations(options.DatabaseURL); err != nil {
				logger.Fatal("migration failed", zap.Error(err))
			}

			logger.Info("database migrations applied")
		}),
	}
}
