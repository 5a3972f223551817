// Package pricing derives reference-currency and USD prices for AMM tokens and
// values trades for tracked volume and liquidity statistics.
//
// Every query resolves missing data and rejected inputs to zero. A zero result
// means "zero or unknown" and must not be read as a certain zero valuation.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"dexPricer/internal/model"
)

// DefaultMinimumLiquidityProviders is the LP count below which a pair is gated.
const DefaultMinimumLiquidityProviders = 5

// Reference pool sides.
const (
	StableSide0 = 0
	StableSide1 = 1
)

// ReferencePool is a stablecoin/reference-currency pool read by the Oracle.
type ReferencePool struct {
	Address string
	// StableSide is the position (0 or 1) holding the stablecoin.
	StableSide int
	// FromBlock and ToBlock bound the activation range, inclusive. Zero means unbounded.
	FromBlock uint64
	ToBlock   uint64
}

// ActiveAt reports whether the pool is active at the given block.
// Block zero means "latest" and only excludes pools with a closed range.
func (p ReferencePool) ActiveAt(block uint64) bool {
	if block == 0 {
		return p.ToBlock == 0
	}
	if p.FromBlock > 0 && block < p.FromBlock {
		return false
	}
	if p.ToBlock > 0 && block > p.ToBlock {
		return false
	}
	return true
}

// Config holds the per-deployment pricing constants.
type Config struct {
	ReferenceToken string
	// Whitelist is ordered: the first qualifying entry wins price derivation.
	Whitelist      []string
	UntrackedPairs []string
	ReferencePools []ReferencePool

	MinimumUSDThresholdNewPairs        decimal.Decimal
	MinimumLiquidityThresholdReference decimal.Decimal
	MinimumLiquidityProviders          int64
}

// Validate checks the config and returns a copy with every address normalized.
func (c Config) Validate() (Config, error) {
	if c.ReferenceToken == "" {
		return Config{}, errors.New("reference token is required")
	}
	ref, err := model.NormalizeAddress(c.ReferenceToken)
	if err != nil {
		return Config{}, fmt.Errorf("reference token: %w", err)
	}

	whitelist, err := model.NormalizeAddresses(c.Whitelist)
	if err != nil {
		return Config{}, fmt.Errorf("whitelist: %w", err)
	}
	if len(whitelist) == 0 {
		return Config{}, errors.New("whitelist must not be empty")
	}
	if hasDuplicate(whitelist) {
		return Config{}, errors.New("whitelist contains duplicates")
	}

	untracked, err := model.NormalizeAddresses(c.UntrackedPairs)
	if err != nil {
		return Config{}, fmt.Errorf("untracked pairs: %w", err)
	}

	if len(c.ReferencePools) == 0 {
		return Config{}, errors.New("at least one reference pool is required")
	}
	pools := make([]ReferencePool, 0, len(c.ReferencePools))
	for i, pool := range c.ReferencePools {
		addr, err := model.NormalizeAddress(pool.Address)
		if err != nil {
			return Config{}, fmt.Errorf("reference pool %d: %w", i, err)
		}
		if pool.StableSide != StableSide0 && pool.StableSide != StableSide1 {
			return Config{}, fmt.Errorf("reference pool %s: stable side must be 0 or 1, got %d", addr, pool.StableSide)
		}
		if pool.ToBlock > 0 && pool.ToBlock < pool.FromBlock {
			return Config{}, fmt.Errorf("reference pool %s: to block %d before from block %d", addr, pool.ToBlock, pool.FromBlock)
		}
		pool.Address = addr
		pools = append(pools, pool)
	}

	if c.MinimumUSDThresholdNewPairs.IsNegative() {
		return Config{}, errors.New("minimum usd threshold for new pairs must not be negative")
	}
	if c.MinimumLiquidityThresholdReference.IsNegative() {
		return Config{}, errors.New("minimum liquidity threshold must not be negative")
	}

	minLPs := c.MinimumLiquidityProviders
	if minLPs < 0 {
		return Config{}, errors.New("minimum liquidity providers must not be negative")
	}
	if minLPs == 0 {
		minLPs = DefaultMinimumLiquidityProviders
	}

	return Config{
		ReferenceToken:                     ref,
		Whitelist:                          whitelist,
		UntrackedPairs:                     untracked,
		ReferencePools:                     pools,
		MinimumUSDThresholdNewPairs:        c.MinimumUSDThresholdNewPairs,
		MinimumLiquidityThresholdReference: c.MinimumLiquidityThresholdReference,
		MinimumLiquidityProviders:          minLPs,
	}, nil
}

func hasDuplicate(items []string) bool {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			return true
		}
		seen[item] = struct{}{}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[item] = struct{}{}
	}
	return out
}
