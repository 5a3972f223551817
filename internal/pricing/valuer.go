package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"dexPricer/internal/model"
)

var two = decimal.NewFromInt(2)

// Valuer computes tracked USD volume and liquidity for trades.
type Valuer struct {
	whitelist   map[string]struct{}
	untracked   map[string]struct{}
	minNewPairs decimal.Decimal
	minLPs      int64
}

// NewValuer builds a Valuer over a validated config.
func NewValuer(cfg Config) *Valuer {
	minLPs := cfg.MinimumLiquidityProviders
	if minLPs == 0 {
		minLPs = DefaultMinimumLiquidityProviders
	}
	return &Valuer{
		whitelist:   toSet(cfg.Whitelist),
		untracked:   toSet(cfg.UntrackedPairs),
		minNewPairs: cfg.MinimumUSDThresholdNewPairs,
		minLPs:      minLPs,
	}
}

// IsWhitelisted reports whether the token is a trusted pricing anchor.
func (v *Valuer) IsWhitelisted(tokenID string) bool {
	_, ok := v.whitelist[canonical(tokenID)]
	return ok
}

// IsUntracked reports whether the pair is excluded from tracked statistics.
func (v *Valuer) IsUntracked(pairID string) bool {
	_, ok := v.untracked[canonical(pairID)]
	return ok
}

// PriceUSD returns derivedReferencePrice * referencePriceUSD for the token.
func (v *Valuer) PriceUSD(token model.Token, bundle model.Bundle) decimal.Decimal {
	return token.ReferencePrice().Mul(bundle.ReferencePriceUSD)
}

// TrackedVolumeUSD returns the USD volume of a trade counted toward aggregates.
// Untracked pairs and new pairs with too little whitelisted liquidity count zero.
func (v *Valuer) TrackedVolumeUSD(
	bundle model.Bundle,
	amount0 decimal.Decimal,
	token0 model.Token,
	amount1 decimal.Decimal,
	token1 model.Token,
	pair model.Pair,
) decimal.Decimal {
	if v.IsUntracked(pair.ID) {
		return decimal.Zero
	}

	price0 := v.PriceUSD(token0, bundle)
	price1 := v.PriceUSD(token1, bundle)
	listed0 := v.IsWhitelisted(token0.ID)
	listed1 := v.IsWhitelisted(token1.ID)

	if pair.LiquidityProviderCount < v.minLPs {
		reserve0USD := pair.Reserve0.Mul(price0)
		reserve1USD := pair.Reserve1.Mul(price1)
		switch {
		case listed0 && listed1:
			if reserve0USD.Add(reserve1USD).LessThan(v.minNewPairs) {
				return decimal.Zero
			}
		case listed0:
			if reserve0USD.Mul(two).LessThan(v.minNewPairs) {
				return decimal.Zero
			}
		case listed1:
			if reserve1USD.Mul(two).LessThan(v.minNewPairs) {
				return decimal.Zero
			}
		}
	}

	switch {
	case listed0 && listed1:
		sum := amount0.Mul(price0).Add(amount1.Mul(price1))
		return sum.DivRound(two, DivisionPrecision)
	case listed0:
		return amount0.Mul(price0)
	case listed1:
		return amount1.Mul(price1)
	default:
		return decimal.Zero
	}
}

// TrackedLiquidityUSD returns the USD liquidity contribution of token amounts.
// A single whitelisted side is doubled to stand in for the whole pool.
func (v *Valuer) TrackedLiquidityUSD(
	bundle model.Bundle,
	amount0 decimal.Decimal,
	token0 model.Token,
	amount1 decimal.Decimal,
	token1 model.Token,
) decimal.Decimal {
	price0 := v.PriceUSD(token0, bundle)
	price1 := v.PriceUSD(token1, bundle)
	listed0 := v.IsWhitelisted(token0.ID)
	listed1 := v.IsWhitelisted(token1.ID)

	switch {
	case listed0 && listed1:
		return amount0.Mul(price0).Add(amount1.Mul(price1))
	case listed0:
		return amount0.Mul(price0).Mul(two)
	case listed1:
		return amount1.Mul(price1).Mul(two)
	default:
		return decimal.Zero
	}
}

func canonical(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
