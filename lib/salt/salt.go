// Package salt resolves the secret used to key export integrity hashes.
//
// The salt is resolved once at startup and handed to the grid registry.
// Multi-instance deployments share it through Redis so a hash rendered by
// one instance verifies on another.
package salt

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis key holding the shared salt.
const DefaultKey = "hxgrid:export:salt"

// Size is the number of random bytes in a generated salt.
const Size = 32

var (
	ErrEmptySalt        = errors.New("salt: store returned an empty salt")
	ErrStoreUnavailable = errors.New("salt: store unavailable")
)

// Store returns the shared salt, creating it on first use. Concurrent first
// calls may race; every caller must end up with the same stored value.
type Store interface {
	Salt(ctx context.Context) ([]byte, error)
}

// Generate returns a new random hex-encoded salt.
func Generate() ([]byte, error) {
	b := make([]byte, Size)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("salt: generate: %w", err)
	}
	return []byte(hex.EncodeToString(b)), nil
}

// Resolve returns configured when set, otherwise the store's salt. A nil
// store falls back to a fresh process-local salt.
func Resolve(ctx context.Context, configured string, store Store) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	if store == nil {
		store = &Memory{}
	}
	s, err := store.Salt(ctx)
	if err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, ErrEmptySalt
	}
	return s, nil
}

// Memory keeps the salt in process memory.
type Memory struct {
	once sync.Once
	salt []byte
	err  error
}

// Salt implements Store.
func (m *Memory) Salt(context.Context) ([]byte, error) {
	m.once.Do(func() {
		m.salt, m.err = Generate()
	})
	return m.salt, m.err
}

// Redis shares the salt through a Redis key. The first writer wins: the
// salt is created with SETNX and read back, so later instances adopt it.
type Redis struct {
	db  redis.UniversalClient
	key string
}

// NewRedis creates a Redis store. An empty key uses DefaultKey.
func NewRedis(db redis.UniversalClient, key string) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{db: db, key: key}
}

// Salt implements Store.
func (r *Redis) Salt(ctx context.Context) ([]byte, error) {
	candidate, err := Generate()
	if err != nil {
		return nil, err
	}
	if err := r.db.SetNX(ctx, r.key, candidate, 0).Err(); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	stored, err := r.db.Get(ctx, r.key).Bytes()
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return stored, nil
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("salt: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return client, nil
}
