package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/wordlink/internal/audit"
	auditstore "github.com/serroba/wordlink/internal/audit/store"
	"github.com/serroba/wordlink/internal/handlers"
	"github.com/serroba/wordlink/internal/health"
	"github.com/serroba/wordlink/internal/messaging"
	"github.com/serroba/wordlink/internal/metrics"
	"github.com/serroba/wordlink/internal/middleware"
	"github.com/serroba/wordlink/internal/shortener"
	"github.com/serroba/wordlink/internal/store"
	"github.com/serroba/wordlink/internal/wordlist"
	"go.uber.org/zap"
)

const (
	requestIDLength    = 21
	auditConsumerGroup = "wordlink-audit"
	startupTimeout     = 30 * time.Second
)

// reservedKeywords shadow routes served next to the keyword redirect.
var reservedKeywords = []string{"api", "docs", "health", "metrics", "openapi", "schemas"}

type Options struct {
	Port           int    `default:"8000"    doc:"Port to listen on"                                                   short:"p"`
	BaseURL        string `doc:"Public base URL of short links, defaults to http://localhost:<port>"`
	DatabaseURL    string `doc:"PostgreSQL connection string, the in-memory store is used when empty"  short:"d"`
	RedisAddr      string `doc:"Redis address for the keyword cache and audit streams, disabled when empty" short:"r"`
	CacheTTL       int    `default:"3600"    doc:"Keyword cache TTL in seconds"`
	LogFormat      string `default:"console" doc:"Log format: console or json"`
	ForbiddenFile  string `doc:"File with keywords that may never be used"`
	DictionaryFile string `doc:"Dictionary file seeded into the keyword pool"`
	AdminToken     string `doc:"Bearer token for admin operations, admin operations are refused when empty"`
	AutoMigrate    bool   `default:"true"    doc:"Apply database migrations on start"`
	SeedOnStart    bool   `default:"true"    doc:"Seed the dictionary file into the pool on start"`
}

// PublicBaseURL returns the configured base URL or the local default.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// InProcessAudit reports whether audit events are consumed inside the server.
func (o *Options) InProcessAudit() bool {
	return o.RedisAddr == ""
}

func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*pgxpool.Pool, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.AutoMigrate {
			if err := store.RunMigrations(opts.DatabaseURL); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}

			logger.Info("database migrations applied")
		}

		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("ping postgres: %w", err)
		}

		return pool, nil
	})
}

// redisConn owns the Redis client so it is closed after every service using it.
type redisConn struct {
	client *redis.Client
}

func (c *redisConn) Shutdown() error {
	return c.client.Close()
}

func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*redisConn, error) {
		opts := do.MustInvoke[*Options](i)

		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("ping redis: %w", err)
		}

		return &redisConn{client: client}, nil
	})

	do.Provide(i, func(i *do.Injector) (*redis.Client, error) {
		return do.MustInvoke[*redisConn](i).client, nil
	})
}

func ServicePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Allocator, error) {
		opts := do.MustInvoke[*Options](i)

		forbidden, err := wordlist.LoadForbidden(opts.ForbiddenFile, reservedKeywords...)
		if err != nil {
			return nil, err
		}

		return shortener.NewAllocator(forbidden), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		return shortener.NewService(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[*shortener.Allocator](i),
		), nil
	})
}

// RepositoryPackage provides the record store: PostgreSQL when a database URL
// is set and memory otherwise, behind the Redis cache when Redis is set.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var repo shortener.Repository
		if opts.DatabaseURL != "" {
			repo = store.NewPostgresStore(do.MustInvoke[*pgxpool.Pool](i))
		} else {
			logger.Warn("no database configured, records are kept in memory")

			repo = store.NewMemoryStore()
		}

		if opts.SeedOnStart && opts.DictionaryFile != "" {
			if err := seed(repo, do.MustInvoke[*shortener.Allocator](i), opts.DictionaryFile, logger); err != nil {
				return nil, err
			}
		}

		if opts.RedisAddr == "" {
			return repo, nil
		}

		ttl := time.Duration(opts.CacheTTL) * time.Second

		return store.NewRedisCacheRepository(repo, do.MustInvoke[*redis.Client](i), ttl), nil
	})
}

func seed(repo shortener.Repository, allocator *shortener.Allocator, path string, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	prepared, inserted, err := wordlist.Seed(ctx, repo, allocator, path)
	if err != nil {
		return err
	}

	logger.Info("dictionary seeded",
		zap.String("file", path),
		zap.Int("words", prepared),
		zap.Int("inserted", inserted),
	)

	return nil
}

// PublisherGroupPackage provides the audit publisher: Redis streams when Redis
// is configured, an in-process channel otherwise.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		return messaging.NewInMemoryPubSub(messaging.NewZapLoggerAdapter(logger)), nil
	})

	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.InProcessAudit() {
			return messaging.NewPublisherGroup(do.MustInvoke[*gochannel.GoChannel](i)), nil
		}

		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := messaging.NewRedisStreamPublisher(
			do.MustInvoke[*redis.Client](i),
			messaging.NewZapLoggerAdapter(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (audit.Publishers, error) {
		return audit.NewPublishers(do.MustInvoke[*messaging.PublisherGroup](i).Publisher()), nil
	})
}

// AuditPackage provides the router consuming audit events into the audit log.
// Without Redis it reads the in-process channel, otherwise the Redis streams.
func AuditPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.Router, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var subscriber message.Subscriber
		if opts.InProcessAudit() {
			subscriber = do.MustInvoke[*gochannel.GoChannel](i)
		} else {
			sub, err := messaging.NewRedisStreamSubscriber(
				do.MustInvoke[*redis.Client](i),
				auditConsumerGroup,
				messaging.NewZapLoggerAdapter(logger),
			)
			if err != nil {
				return nil, fmt.Errorf("create subscriber: %w", err)
			}

			subscriber = sub
		}

		router, err := messaging.NewRouter(subscriber, logger)
		if err != nil {
			return nil, fmt.Errorf("create router: %w", err)
		}

		audit.RegisterHandlers(router, auditstore.NewLog(logger))

		return router, nil
	})
}

func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

func healthCheckers(i *do.Injector, opts *Options) map[string]health.Checker {
	checkers := map[string]health.Checker{}

	if opts.DatabaseURL != "" {
		checkers["postgres"] = health.NewPostgresChecker(do.MustInvoke[*pgxpool.Pool](i))
	}

	if opts.RedisAddr != "" {
		checkers["redis"] = health.NewRedisChecker(do.MustInvoke[*redis.Client](i))
	}

	return checkers
}

// HTTPPackage provides the router and the API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		if opts.AdminToken == "" {
			logger.Warn("no admin token configured, admin operations are disabled")
		}

		config := huma.DefaultConfig("Wordlink", "1.0.0")
		config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
			"bearer": {Type: "http", Scheme: "bearer"},
		}

		api := humachi.New(router, config)

		generateID, err := nanoid.Standard(requestIDLength)
		if err != nil {
			return nil, fmt.Errorf("create id generator: %w", err)
		}

		api.UseMiddleware(
			middleware.RequestMeta(api, generateID, logger),
			middleware.Metrics(m.Operations),
			middleware.AdminAuth(api, opts.AdminToken, logger),
		)

		recordHandler := handlers.NewRecordHandler(
			do.MustInvoke[*shortener.Service](i),
			opts.PublicBaseURL(),
			do.MustInvoke[audit.Publishers](i),
			logger,
		)

		health.RegisterRoutes(api, health.NewHandler(healthCheckers(i, opts)))
		handlers.RegisterRoutes(api, recordHandler)

		router.Handle("/metrics", m.Handler())

		return api, nil
	})
}

// Register wires every package used by the server.
func Register(i *do.Injector, opts *Options) {
	do.ProvideValue(i, opts)
	LoggerPackage(i)
	PostgresPackage(i)
	RedisPackage(i)
	RepositoryPackage(i)
	ServicePackage(i)
	PublisherGroupPackage(i)
	AuditPackage(i)
	MetricsPackage(i)
	HTTPPackage(i)
}
