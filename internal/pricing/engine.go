package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dexPricer/internal/model"
)

// TrackedAmounts holds the USD figures computed for one trade.
type TrackedAmounts struct {
	Pair         string          `json:"pair"`
	VolumeUSD    decimal.Decimal `json:"tracked_volume_usd"`
	LiquidityUSD decimal.Decimal `json:"tracked_liquidity_usd"`
	Tracked      bool            `json:"tracked"`
}

// Engine wires the Oracle, Deriver and Valuer to an entity store and pair lookup.
type Engine struct {
	cfg     Config
	store   EntityStore
	oracle  *Oracle
	deriver *Deriver
	valuer  *Valuer
	logger  *zap.Logger
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg Config, store EntityStore, lookup PairLookup, logger *zap.Logger) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("entity store is nil")
	}
	if lookup == nil {
		return nil, fmt.Errorf("pair lookup is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	validated, err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("pricing config: %w", err)
	}

	return &Engine{
		cfg:     validated,
		store:   store,
		oracle:  NewOracle(validated, store, logger),
		deriver: NewDeriver(validated, store, lookup, logger),
		valuer:  NewValuer(validated),
		logger:  logger,
	}, nil
}

// Config returns the validated configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Valuer exposes the trade valuer.
func (e *Engine) Valuer() *Valuer {
	return e.valuer
}

// ReferencePriceUSD delegates to the Oracle.
func (e *Engine) ReferencePriceUSD(ctx context.Context, block uint64) (decimal.Decimal, error) {
	return e.oracle.ReferencePriceUSD(ctx, block)
}

// ReferencePerToken delegates to the Deriver.
func (e *Engine) ReferencePerToken(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	return e.deriver.ReferencePerToken(ctx, tokenID)
}

// TokenPriceUSD returns the USD price of a token using its stored derived price
// and the stored bundle. Missing token or bundle yields zero.
func (e *Engine) TokenPriceUSD(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	id, err := model.NormalizeAddress(tokenID)
	if err != nil {
		return decimal.Zero, err
	}
	bundle, ok, err := e.store.LoadBundle(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load bundle: %w", err)
	}
	if !ok {
		return decimal.Zero, nil
	}
	token, ok, err := e.store.LoadToken(ctx, id)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load token %s: %w", id, err)
	}
	if !ok {
		return decimal.Zero, nil
	}
	return e.valuer.PriceUSD(token, bundle), nil
}

// TrackSwap values a trade on pairID. Missing pair, token or bundle data gives
// zero amounts with Tracked=false and no error.
func (e *Engine) TrackSwap(ctx context.Context, pairID string, amount0, amount1 decimal.Decimal) (TrackedAmounts, error) {
	id, err := model.NormalizeAddress(pairID)
	if err != nil {
		return TrackedAmounts{}, err
	}
	out := TrackedAmounts{Pair: id, VolumeUSD: decimal.Zero, LiquidityUSD: decimal.Zero}

	pair, ok, err := e.store.LoadPair(ctx, id)
	if err != nil {
		return out, fmt.Errorf("load pair %s: %w", id, err)
	}
	if !ok {
		e.logger.Debug("pair missing", zap.String("pair", id))
		return out, nil
	}

	token0, ok0, err := e.store.LoadToken(ctx, pair.Token0ID)
	if err != nil {
		return out, fmt.Errorf("load token0 %s: %w", pair.Token0ID, err)
	}
	token1, ok1, err := e.store.LoadToken(ctx, pair.Token1ID)
	if err != nil {
		return out, fmt.Errorf("load token1 %s: %w", pair.Token1ID, err)
	}
	if !ok0 || !ok1 {
		e.logger.Debug("pair tokens missing", zap.String("pair", id))
		return out, nil
	}

	bundle, ok, err := e.store.LoadBundle(ctx)
	if err != nil {
		return out, fmt.Errorf("load bundle: %w", err)
	}
	if !ok {
		e.logger.Debug("bundle missing")
		return out, nil
	}

	out.VolumeUSD = e.valuer.TrackedVolumeUSD(bundle, amount0, token0, amount1, token1, pair)
	out.LiquidityUSD = e.valuer.TrackedLiquidityUSD(bundle, amount0, token0, amount1, token1)
	out.Tracked = !out.VolumeUSD.IsZero()
	return out, nil
}
