package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/wordlink/internal/shortener"
)

// evictionGuard is how long a fill is refused after its keyword was evicted.
// It covers lookups that read the store before the eviction committed.
const evictionGuard = 5 * time.Second

// fillScript caches a record unless its keyword or the whole cache was evicted
// within the guard window.
var fillScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 or redis.call('EXISTS', KEYS[3]) == 1 then
	return 0
end
if tonumber(ARGV[2]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
redis.call('SADD', KEYS[4], ARGV[3])
return 1
`)

// RedisCacheRepository wraps a Repository with Redis caching for keyword lookups.
// Only keyword lookups outside transactions are served from the cache.
type RedisCacheRepository struct {
	shortener.Repository

	client      *redis.Client
	prefix      string
	guardPrefix string
	purgedKey   string
	indexKey    string
	ttl         time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		Repository:  store,
		client:      client,
		prefix:      "wordlink:keyword:",
		guardPrefix: "wordlink:evicted:",
		purgedKey:   "wordlink:purged",
		indexKey:    "wordlink:keywords",
		ttl:         ttl,
	}
}

// FindByKeyword checks the cache before the underlying store.
func (r *RedisCacheRepository) FindByKeyword(ctx context.Context, keyword string) ([]shortener.Record, error) {
	if original, err := r.client.Get(ctx, r.prefix+keyword).Result(); err == nil {
		return []shortener.Record{{Original: original, Keyword: keyword}}, nil
	}

	records, err := r.Repository.FindByKeyword(ctx, keyword)
	if err != nil {
		return nil, err
	}

	// Ambiguous and missing results are never cached.
	if len(records) == 1 {
		r.cacheRecord(ctx, records[0])
	}

	return records, nil
}

func (r *RedisCacheRepository) DeleteByKeyword(ctx context.Context, keyword string) error {
	if err := r.Repository.DeleteByKeyword(ctx, keyword); err != nil {
		return err
	}

	r.evict(ctx, keyword)

	return nil
}

func (r *RedisCacheRepository) DeleteAll(ctx context.Context) error {
	if err := r.Repository.DeleteAll(ctx); err != nil {
		return err
	}

	r.flush(ctx)

	return nil
}

// Atomic delegates to the underlying store and evicts the keywords deleted by
// fn once the transaction has committed.
func (r *RedisCacheRepository) Atomic(ctx context.Context, fn func(ctx context.Context, tx shortener.Tx) error) error {
	tracked := &trackingTx{}

	err := r.Repository.Atomic(ctx, func(ctx context.Context, tx shortener.Tx) error {
		tracked.Tx = tx

		return fn(ctx, tracked)
	})
	if err != nil {
		return err
	}

	if tracked.purged {
		r.flush(ctx)
	} else if len(tracked.deleted) > 0 {
		r.evict(ctx, tracked.deleted...)
	}

	return nil
}

func (r *RedisCacheRepository) cacheRecord(ctx context.Context, record shortener.Record) {
	keys := []string{r.prefix + record.Keyword, r.guardPrefix + record.Keyword, r.purgedKey, r.indexKey}

	_ = fillScript.Run(ctx, r.client, keys, record.Original, r.ttl.Milliseconds(), record.Keyword).Err()
}

func (r *RedisCacheRepository) evict(ctx context.Context, keywords ...string) {
	pipe := r.client.Pipeline()

	for _, kw := range keywords {
		pipe.Set(ctx, r.guardPrefix+kw, 1, evictionGuard)
		pipe.Del(ctx, r.prefix+kw)
		pipe.SRem(ctx, r.indexKey, kw)
	}

	_, _ = pipe.Exec(ctx)
}

func (r *RedisCacheRepository) flush(ctx context.Context) {
	r.client.Set(ctx, r.purgedKey, 1, evictionGuard)

	keywords, err := r.client.SMembers(ctx, r.indexKey).Result()
	if err != nil {
		return
	}

	pipe := r.client.Pipeline()

	for _, kw := range keywords {
		pipe.Del(ctx, r.prefix+kw)
	}

	pipe.Del(ctx, r.indexKey)

	_, _ = pipe.Exec(ctx)
}

// Shutdown shuts down the wrapped store when it supports it.
func (r *RedisCacheRepository) Shutdown() error {
	if s, ok := r.Repository.(interface{ Shutdown() error }); ok {
		return s.Shutdown()
	}

	return nil
}

// trackingTx records the deletions made inside a transaction.
type trackingTx struct {
	shortener.Tx

	deleted []string
	purged  bool
}

func (t *trackingTx) DeleteByKeyword(ctx context.Context, keyword string) error {
	if err := t.Tx.DeleteByKeyword(ctx, keyword); err != nil {
		return err
	}

	t.deleted = append(t.deleted, keyword)

	return nil
}

func (t *trackingTx) DeleteAll(ctx context.Context) error {
	if err := t.Tx.DeleteAll(ctx); err != nil {
		return err
	}

	t.purged = true

	return nil
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
