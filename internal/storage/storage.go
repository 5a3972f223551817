package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"dexPricer/internal/model"
	"dexPricer/internal/pricing"
	"dexPricer/internal/storage/postgres"
	"dexPricer/internal/storage/redis"
	"dexPricer/internal/storage/snapshot"
)

// Backend names.
const (
	BackendSnapshot = "snapshot"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Backend is an entity store that can also resolve pairs by token and persist prices.
type Backend interface {
	pricing.EntityStore
	pricing.PairLookup
	pricing.PriceWriter
	PutPair(ctx context.Context, pair model.Pair) error
	PutToken(ctx context.Context, token model.Token) error
	Close() error
}

// Import copies every entity of a snapshot document into the backend.
func Import(ctx context.Context, dst Backend, doc snapshot.Document) error {
	for _, token := range doc.Tokens {
		if err := dst.PutToken(ctx, token); err != nil {
			return fmt.Errorf("put token %s: %w", token.ID, err)
		}
	}
	for _, pair := range doc.Pairs {
		if err := dst.PutPair(ctx, pair); err != nil {
			return fmt.Errorf("put pair %s: %w", pair.ID, err)
		}
	}
	if doc.Bundle != nil {
		if err := dst.SaveBundle(ctx, *doc.Bundle); err != nil {
			return fmt.Errorf("save bundle: %w", err)
		}
	}
	return nil
}

// Options selects and configures a backend.
type Options struct {
	Backend       string
	SnapshotPath  string
	PGDSN         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open connects the configured backend.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendSnapshot, "":
		if opts.SnapshotPath == "" {
			return nil, fmt.Errorf("snapshot path is required")
		}
		store, err := snapshot.Load(opts.SnapshotPath)
		if errors.Is(err, os.ErrNotExist) {
			store, err = snapshot.NewStore(), nil
		}
		if err != nil {
			return nil, err
		}
		return &snapshotBackend{Store: store, path: opts.SnapshotPath}, nil
	case BackendPostgres:
		store, err := postgres.NewStore(ctx, opts.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &postgresBackend{Store: store}, nil
	case BackendRedis:
		store, err := redis.NewStore(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", opts.Backend)
	}
}

// snapshotBackend writes the snapshot back to disk on Close when it was modified.
type snapshotBackend struct {
	*snapshot.Store
	path  string
	dirty bool
}

func (b *snapshotBackend) PutPair(_ context.Context, pair model.Pair) error {
	b.dirty = true
	return b.Store.PutPair(pair)
}

func (b *snapshotBackend) PutToken(_ context.Context, token model.Token) error {
	b.dirty = true
	return b.Store.PutToken(token)
}

func (b *snapshotBackend) SaveBundle(ctx context.Context, bundle model.Bundle) error {
	b.dirty = true
	return b.Store.SaveBundle(ctx, bundle)
}

func (b *snapshotBackend) SaveTokenPrice(ctx context.Context, tokenID string, price decimal.Decimal) error {
	b.dirty = true
	return b.Store.SaveTokenPrice(ctx, tokenID, price)
}

func (b *snapshotBackend) Close() error {
	if !b.dirty {
		return nil
	}
	return b.Store.Save(b.path)
}

type postgresBackend struct {
	*postgres.Store
}

func (b *postgresBackend) Close() error {
	b.Store.Close()
	return nil
}
