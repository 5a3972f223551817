// Package snapshot provides an in-memory entity store backed by a JSON file.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"dexPricer/internal/model"
)

// Document is the on-disk snapshot layout.
type Document struct {
	Bundle *model.Bundle `json:"bundle,omitempty"`
	Tokens []model.Token `json:"tokens"`
	Pairs  []model.Pair  `json:"pairs"`
}

// Store keeps entity snapshots in memory and indexes pairs by token pair.
type Store struct {
	mu      sync.RWMutex
	bundle  *model.Bundle
	tokens  map[string]model.Token
	pairs   map[string]model.Pair
	byToken map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		tokens:  make(map[string]model.Token),
		pairs:   make(map[string]model.Pair),
		byToken: make(map[string]string),
	}
}

// Load reads a snapshot document from path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	s := NewStore()
	if doc.Bundle != nil {
		s.PutBundle(*doc.Bundle)
	}
	for _, token := range doc.Tokens {
		if err := s.PutToken(token); err != nil {
			return nil, err
		}
	}
	for _, pair := range doc.Pairs {
		if err := s.PutPair(pair); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Save writes the store contents to path atomically.
func (s *Store) Save(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(s.Document(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Document returns a copy of the store contents ordered by id.
func (s *Store) Document() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := Document{
		Tokens: make([]model.Token, 0, len(s.tokens)),
		Pairs:  make([]model.Pair, 0, len(s.pairs)),
	}
	if s.bundle != nil {
		bundle := *s.bundle
		doc.Bundle = &bundle
	}
	for _, token := range s.tokens {
		doc.Tokens = append(doc.Tokens, token)
	}
	for _, pair := range s.pairs {
		doc.Pairs = append(doc.Pairs, pair)
	}
	sort.Slice(doc.Tokens, func(i, j int) bool { return doc.Tokens[i].ID < doc.Tokens[j].ID })
	sort.Slice(doc.Pairs, func(i, j int) bool { return doc.Pairs[i].ID < doc.Pairs[j].ID })
	return doc
}

// PutToken inserts or replaces a token.
func (s *Store) PutToken(token model.Token) error {
	id, err := model.NormalizeAddress(token.ID)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}
	token.ID = id

	s.mu.Lock()
	s.tokens[id] = token
	s.mu.Unlock()
	return nil
}

// PutPair inserts or replaces a pair and indexes it by its tokens.
func (s *Store) PutPair(pair model.Pair) error {
	id, err := model.NormalizeAddress(pair.ID)
	if err != nil {
		return fmt.Errorf("pair: %w", err)
	}
	token0, err := model.NormalizeAddress(pair.Token0ID)
	if err != nil {
		return fmt.Errorf("pair %s token0: %w", id, err)
	}
	token1, err := model.NormalizeAddress(pair.Token1ID)
	if err != nil {
		return fmt.Errorf("pair %s token1: %w", id, err)
	}
	pair.ID, pair.Token0ID, pair.Token1ID = id, token0, token1

	s.mu.Lock()
	s.pairs[id] = pair
	s.byToken[tokenPairKey(token0, token1)] = id
	s.mu.Unlock()
	return nil
}

// PutBundle replaces the reference bundle.
func (s *Store) PutBundle(bundle model.Bundle) {
	if bundle.ID == "" {
		bundle.ID = model.BundleID
	}
	s.mu.Lock()
	s.bundle = &bundle
	s.mu.Unlock()
}

func (s *Store) LoadPair(_ context.Context, id string) (model.Pair, bool, error) {
	s.mu.RLock()
	pair, ok := s.pairs[strings.ToLower(id)]
	s.mu.RUnlock()
	return pair, ok, nil
}

func (s *Store) LoadToken(_ context.Context, id string) (model.Token, bool, error) {
	s.mu.RLock()
	token, ok := s.tokens[strings.ToLower(id)]
	s.mu.RUnlock()
	return token, ok, nil
}

func (s *Store) LoadBundle(_ context.Context) (model.Bundle, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bundle == nil {
		return model.Bundle{}, false, nil
	}
	return *s.bundle, true, nil
}

// PairAddress resolves a pair from the token index, in either token order.
func (s *Store) PairAddress(_ context.Context, tokenA, tokenB string) (string, bool, error) {
	s.mu.RLock()
	id, ok := s.byToken[tokenPairKey(strings.ToLower(tokenA), strings.ToLower(tokenB))]
	s.mu.RUnlock()
	return id, ok, nil
}

func (s *Store) SaveBundle(_ context.Context, bundle model.Bundle) error {
	s.PutBundle(bundle)
	return nil
}

// SaveTokenPrice sets the derived price of a known token. Unknown tokens are created.
func (s *Store) SaveTokenPrice(_ context.Context, tokenID string, price decimal.Decimal) error {
	id, err := model.NormalizeAddress(tokenID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	token, ok := s.tokens[id]
	if !ok {
		token = model.Token{ID: id}
	}
	token.DerivedReferencePrice = decimal.NewNullDecimal(price)
	s.tokens[id] = token
	s.mu.Unlock()
	return nil
}

func tokenPairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}
