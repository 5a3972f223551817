package model

import "github.com/shopspring/decimal"

// Pair is an AMM pool entity snapshot. Token order matters.
type Pair struct {
	ID       string `json:"id"`
	Token0ID string `json:"token0"`
	Token1ID string `json:"token1"`

	Reserve0         decimal.Decimal `json:"reserve0"`
	Reserve1         decimal.Decimal `json:"reserve1"`
	ReserveReference decimal.Decimal `json:"reserve_reference"`

	// Token0Price is token0 per token1; Token1Price is token1 per token0.
	Token0Price decimal.Decimal `json:"token0_price"`
	Token1Price decimal.Decimal `json:"token1_price"`

	LiquidityProviderCount int64 `json:"liquidity_provider_count"`
}

// Side reports which position tokenID occupies in the pair.
func (p Pair) Side(tokenID string) (int, bool) {
	switch {
	case SameAddress(p.Token0ID, tokenID):
		return 0, true
	case SameAddress(p.Token1ID, tokenID):
		return 1, true
	default:
		return 0, false
	}
}

// Reserve returns the reserve held on the given side.
func (p Pair) Reserve(side int) decimal.Decimal {
	if side == 1 {
		return p.Reserve1
	}
	return p.Reserve0
}

// Price returns the spot price field for the given side.
func (p Pair) Price(side int) decimal.Decimal {
	if side == 1 {
		return p.Token1Price
	}
	return p.Token0Price
}
