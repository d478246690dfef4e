package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/haeun-oh/rushgate/pkg/metrics"
)

// admitScript is the atomic admission step. A client-side read-then-write
// admits a race where two callers both observe size < capacity and both
// insert; running the check and the insert in one server-side script closes it.
var admitScript = redis.NewScript(`
local count = redis.call('ZCARD', KEYS[1])
if count < tonumber(ARGV[1]) then
    redis.call('ZADD', KEYS[1], ARGV[2], ARGV[3])
    return redis.call('ZCARD', KEYS[1])
else
    return 0
end`)

// RedisStore implements Store on top of a redis client.
type RedisStore struct {
	client *redis.Client
}

// Option applies a configuration option to the RedisStore.
type Option func(*redis.Options)

// WithPassword sets the redis AUTH password.
func WithPassword(password string) Option {
	return func(o *redis.Options) {
		o.Password = password
	}
}

// WithDB selects the redis logical database.
func WithDB(db int) Option {
	return func(o *redis.Options) {
		o.DB = db
	}
}

// NewRedisStore connects to redis at addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, opts ...Option) (*RedisStore, error) {
	options := &redis.Options{Addr: addr}
	for _, opt := range opts {
		opt(options)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrUnavailable, addr, err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client. Used by tests that run
// against an in-process redis.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := s.client.Get(ctx, key).Result()
	observe(start)
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		return "", wrap("get", err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	start := time.Now()
	err := s.client.Set(ctx, key, value, ttl).Err()
	observe(start)
	if err != nil {
		return wrap("set", err)
	}
	return nil
}

func (s *RedisStore) SetMulti(ctx context.Context, pairs map[string]string) error {
	start := time.Now()
	// MULTI/EXEC so a concurrent reader observes none or all of the pairs.
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range pairs {
			pipe.Set(ctx, k, v, 0)
		}
		return nil
	})
	observe(start)
	if err != nil {
		return wrap("setmulti", err)
	}
	return nil
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	start := time.Now()
	err := s.client.Del(ctx, keys...).Err()
	observe(start)
	if err != nil {
		return wrap("del", err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	n, err := s.client.Exists(ctx, key).Result()
	observe(start)
	if err != nil {
		return false, wrap("exists", err)
	}
	return n > 0, nil
}

func (s *RedisStore) SAdd(ctx context.Context, key, member string) error {
	start := time.Now()
	err := s.client.SAdd(ctx, key, member).Err()
	observe(start)
	if err != nil {
		return wrap("sadd", err)
	}
	return nil
}

func (s *RedisStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	start := time.Now()
	ok, err := s.client.SIsMember(ctx, key, member).Result()
	observe(start)
	if err != nil {
		return false, wrap("sismember", err)
	}
	return ok, nil
}

func (s *RedisStore) ZCard(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	n, err := s.client.ZCard(ctx, key).Result()
	observe(start)
	if err != nil {
		return 0, wrap("zcard", err)
	}
	return n, nil
}

func (s *RedisStore) ZRangeWithScores(ctx context.Context, key string) ([]Member, error) {
	start := time.Now()
	zs, err := s.client.ZRangeWithScores(ctx, key, 0, -1).Result()
	observe(start)
	if err != nil {
		return nil, wrap("zrange", err)
	}
	members := make([]Member, len(zs))
	for i, z := range zs {
		members[i] = Member{ID: fmt.Sprint(z.Member), Score: z.Score}
	}
	return members, nil
}

func (s *RedisStore) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	start := time.Now()
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	observe(start)
	if err := iter.Err(); err != nil {
		return nil, wrap("scan", err)
	}
	return keys, nil
}

func (s *RedisStore) AdmitFirstN(ctx context.Context, key string, capacity, score int64, member string) (int64, error) {
	start := time.Now()
	res, err := admitScript.Run(ctx, s.client, []string{key}, capacity, score, member).Int64()
	observe(start)
	if err != nil {
		return 0, wrap("admit", err)
	}
	return res, nil
}

func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return wrap("close", err)
	}
	return nil
}

func wrap(op string, err error) error {
	metrics.RecordStoreError()
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func observe(start time.Time) {
	metrics.RecordStoreLatency(float64(time.Since(start).Microseconds()) / 1e3)
}
