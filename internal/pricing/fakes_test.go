package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"dexPricer/internal/model"
)

type fakeStore struct {
	pairs  map[string]model.Pair
	tokens map[string]model.Token
	bundle *model.Bundle
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pairs:  make(map[string]model.Pair),
		tokens: make(map[string]model.Token),
	}
}

func (s *fakeStore) LoadPair(_ context.Context, id string) (model.Pair, bool, error) {
	if s.err != nil {
		return model.Pair{}, false, s.err
	}
	pair, ok := s.pairs[strings.ToLower(id)]
	return pair, ok, nil
}

func (s *fakeStore) LoadToken(_ context.Context, id string) (model.Token, bool, error) {
	if s.err != nil {
		return model.Token{}, false, s.err
	}
	token, ok := s.tokens[strings.ToLower(id)]
	return token, ok, nil
}

func (s *fakeStore) LoadBundle(_ context.Context) (model.Bundle, bool, error) {
	if s.err != nil {
		return model.Bundle{}, false, s.err
	}
	if s.bundle == nil {
		return model.Bundle{}, false, nil
	}
	return *s.bundle, true, nil
}

func (s *fakeStore) addPair(pair model.Pair) {
	s.pairs[pair.ID] = pair
}

func (s *fakeStore) addToken(id string, derived string) {
	token := model.Token{ID: id}
	if derived != "" {
		token.DerivedReferencePrice = decimal.NewNullDecimal(decimal.RequireFromString(derived))
	}
	s.tokens[id] = token
}

type fakeLookup struct {
	pairs map[string]string
	err   error
	calls int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{pairs: make(map[string]string)}
}

func (l *fakeLookup) PairAddress(_ context.Context, tokenA, tokenB string) (string, bool, error) {
	l.calls++
	if l.err != nil {
		return "", false, l.err
	}
	addr, ok := l.pairs[lookupKey(tokenA, tokenB)]
	return addr, ok, nil
}

func (l *fakeLookup) add(tokenA, tokenB, pair string) {
	l.pairs[lookupKey(tokenA, tokenB)] = pair
}

func lookupKey(a, b string) string {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

func addr(n int) string {
	return fmt.Sprintf("0x%040x", n)
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

var (
	wethAddr      = addr(1)
	usdcAddr      = addr(2)
	daiAddr       = addr(3)
	tokenAddr     = addr(10)
	otherAddr     = addr(11)
	refPoolAddr   = addr(50)
	refPool2Addr  = addr(51)
	untrackedPair = addr(0xabc)
)

func testConfig() Config {
	return Config{
		ReferenceToken: wethAddr,
		Whitelist:      []string{wethAddr, usdcAddr, daiAddr},
		UntrackedPairs: []string{untrackedPair},
		ReferencePools: []ReferencePool{
			{Address: refPoolAddr, StableSide: StableSide0},
		},
		MinimumUSDThresholdNewPairs:        dec("400000"),
		MinimumLiquidityThresholdReference: dec("4000"),
	}
}

func mustValidate(cfg Config) Config {
	validated, err := cfg.Validate()
	if err != nil {
		panic(err)
	}
	return validated
}
