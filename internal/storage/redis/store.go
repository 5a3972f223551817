// Package redis stores entity snapshots as JSON documents in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"dexPricer/internal/model"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "pricer"

// Store reads and writes entities under <prefix>:<kind>:<id> keys.
type Store struct {
	client *goredis.Client
	prefix string
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, addr, password string, db int, prefix string) (*Store, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewStoreWithClient(client, prefix), nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) LoadPair(ctx context.Context, id string) (model.Pair, bool, error) {
	var pair model.Pair
	ok, err := s.get(ctx, s.pairKey(id), &pair)
	return pair, ok, err
}

func (s *Store) LoadToken(ctx context.Context, id string) (model.Token, bool, error) {
	var token model.Token
	ok, err := s.get(ctx, s.tokenKey(id), &token)
	return token, ok, err
}

func (s *Store) LoadBundle(ctx context.Context) (model.Bundle, bool, error) {
	var bundle model.Bundle
	ok, err := s.get(ctx, s.bundleKey(model.BundleID), &bundle)
	return bundle, ok, err
}

// PairAddress resolves a pair id from the token index written by PutPair.
func (s *Store) PairAddress(ctx context.Context, tokenA, tokenB string) (string, bool, error) {
	id, err := s.client.Get(ctx, s.indexKey(tokenA, tokenB)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get pair index: %w", err)
	}
	return id, true, nil
}

// PutPair writes a pair and its token index entry.
func (s *Store) PutPair(ctx context.Context, pair model.Pair) error {
	pair.ID = strings.ToLower(pair.ID)
	pair.Token0ID = strings.ToLower(pair.Token0ID)
	pair.Token1ID = strings.ToLower(pair.Token1ID)
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("marshal pair: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.pairKey(pair.ID), data, 0)
	pipe.Set(ctx, s.indexKey(pair.Token0ID, pair.Token1ID), pair.ID, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put pair: %w", err)
	}
	return nil
}

// PutToken writes a token document.
func (s *Store) PutToken(ctx context.Context, token model.Token) error {
	token.ID = strings.ToLower(token.ID)
	return s.set(ctx, s.tokenKey(token.ID), token)
}

func (s *Store) SaveBundle(ctx context.Context, bundle model.Bundle) error {
	if bundle.ID == "" {
		bundle.ID = model.BundleID
	}
	return s.set(ctx, s.bundleKey(bundle.ID), bundle)
}

// SaveTokenPrice updates the derived price on an existing token document,
// creating a bare token when none exists.
func (s *Store) SaveTokenPrice(ctx context.Context, tokenID string, price decimal.Decimal) error {
	token, ok, err := s.LoadToken(ctx, tokenID)
	if err != nil {
		return err
	}
	if !ok {
		token = model.Token{ID: strings.ToLower(tokenID)}
	}
	token.DerivedReferencePrice = decimal.NewNullDecimal(price)
	return s.PutToken(ctx, token)
}

func (s *Store) get(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) pairKey(id string) string {
	return fmt.Sprintf("%s:pair:%s", s.prefix, strings.ToLower(id))
}

func (s *Store) tokenKey(id string) string {
	return fmt.Sprintf("%s:token:%s", s.prefix, strings.ToLower(id))
}

func (s *Store) bundleKey(id string) string {
	return fmt.Sprintf("%s:bundle:%s", s.prefix, id)
}

func (s *Store) indexKey(tokenA, tokenB string) string {
	a, b := strings.ToLower(tokenA), strings.ToLower(tokenB)
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%s:pair-index:%s:%s", s.prefix, a, b)
}
