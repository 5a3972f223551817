package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dexPricer/internal/model"
)

// Deriver finds the reference-currency price of a token through a single hop
// to a whitelisted token.
type Deriver struct {
	referenceToken string
	whitelist      []string
	minLiquidity   decimal.Decimal
	store          EntityStore
	lookup         PairLookup
	logger         *zap.Logger
}

// NewDeriver builds a Deriver over a validated config.
func NewDeriver(cfg Config, store EntityStore, lookup PairLookup, logger *zap.Logger) *Deriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deriver{
		referenceToken: cfg.ReferenceToken,
		whitelist:      cfg.Whitelist,
		minLiquidity:   cfg.MinimumLiquidityThresholdReference,
		store:          store,
		lookup:         lookup,
		logger:         logger,
	}
}

// ReferencePerToken returns the price of tokenID in reference-currency units.
// Whitelist entries are tried in configured order and the first pair whose
// reference reserve exceeds the liquidity threshold and whose anchor token has a
// positive price wins. An anchor priced zero is treated like an unpriced one.
// Zero means no price could be derived.
func (d *Deriver) ReferencePerToken(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	token, err := model.NormalizeAddress(tokenID)
	if err != nil {
		return decimal.Zero, err
	}
	if token == d.referenceToken {
		return decimal.NewFromInt(1), nil
	}

	for _, candidate := range d.whitelist {
		if candidate == token {
			continue
		}
		price, ok, err := d.priceVia(ctx, token, candidate)
		if err != nil {
			return decimal.Zero, err
		}
		if ok {
			return price, nil
		}
	}

	d.logger.Debug("no derivable price", zap.String("token", token))
	return decimal.Zero, nil
}

func (d *Deriver) priceVia(ctx context.Context, token, candidate string) (decimal.Decimal, bool, error) {
	pairAddr, ok, err := d.lookup.PairAddress(ctx, token, candidate)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("lookup pair %s/%s: %w", token, candidate, err)
	}
	if !ok {
		return decimal.Zero, false, nil
	}

	pair, ok, err := d.store.LoadPair(ctx, pairAddr)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("load pair %s: %w", pairAddr, err)
	}
	if !ok {
		d.logger.Debug("candidate pair missing", zap.String("pair", pairAddr))
		return decimal.Zero, false, nil
	}

	side, ok := pair.Side(token)
	if !ok {
		d.logger.Debug("token not in candidate pair", zap.String("pair", pair.ID), zap.String("token", token))
		return decimal.Zero, false, nil
	}
	if !pair.ReserveReference.GreaterThan(d.minLiquidity) {
		d.logger.Debug("candidate pair below liquidity threshold",
			zap.String("pair", pair.ID),
			zap.String("reserve_reference", pair.ReserveReference.String()),
		)
		return decimal.Zero, false, nil
	}

	otherID, spot := pair.Token1ID, pair.Token1Price
	if side == 1 {
		otherID, spot = pair.Token0ID, pair.Token0Price
	}

	other, ok, err := d.store.LoadToken(ctx, otherID)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("load token %s: %w", otherID, err)
	}
	if !ok || !other.ReferencePrice().IsPositive() {
		d.logger.Debug("anchor token unpriced", zap.String("token", otherID))
		return decimal.Zero, false, nil
	}

	return spot.Mul(other.ReferencePrice()), true, nil
}
