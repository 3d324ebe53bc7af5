package meshstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	backend "github.com/redis/go-redis/v9"

	"arborgen/internal/domain"
)

const defaultRedisPrefix = "arborgen:mesh:"

// Redis stores meshes as gob blobs. Keys are tracked in a sorted set scored
// by expiry so Keys can drop entries whose blobs have timed out.
type Redis struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Redis)

// WithTTL expires cached meshes after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// WithPrefix namespaces every key.
func WithPrefix(prefix string) Option {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// NewRedis connects lazily to addr.
func NewRedis(addr, password string, db int, opts ...Option) *Redis {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisFromClient(client, opts...)
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *backend.Client, opts ...Option) *Redis {
	r := &Redis{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

func (r *Redis) indexKey() string {
	return r.prefix + "index"
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, key string) (Entry, error) {
	payload, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return Entry{}, domain.ErrMeshNotFound
		}
		return Entry{}, fmt.Errorf("get mesh from redis: %w", err)
	}
	return decodeEntry(payload)
}

func (r *Redis) Save(ctx context.Context, key string, entry Entry) error {
	payload, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	score := float64(time.Now().Add(r.ttl).Unix())
	if r.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(key), payload, r.ttl)
	pipe.ZAdd(ctx, r.indexKey(), backend.Z{Score: score, Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save mesh to redis: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.key(key))
	pipe.ZRem(ctx, r.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete mesh from redis: %w", err)
	}
	return nil
}

func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	if err := r.client.ZRemRangeByScore(ctx, r.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("prune mesh index: %w", err)
	}
	keys, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list mesh index: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
