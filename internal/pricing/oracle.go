package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DivisionPrecision is the number of fractional digits kept by divisions.
const DivisionPrecision = 18

// Oracle returns the USD price of one unit of the reference currency.
type Oracle struct {
	pools  []ReferencePool
	store  EntityStore
	logger *zap.Logger
}

// NewOracle builds an Oracle over a validated config.
func NewOracle(cfg Config, store EntityStore, logger *zap.Logger) *Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{
		pools:  cfg.ReferencePools,
		store:  store,
		logger: logger,
	}
}

// ReferencePriceUSD returns the reference-currency USD price at the given block
// (zero for latest). A single active pool yields its stablecoin-side price; several
// active pools are averaged with weights proportional to their stablecoin reserves.
// Pools missing from the store are left out, and zero is returned when none load.
func (o *Oracle) ReferencePriceUSD(ctx context.Context, block uint64) (decimal.Decimal, error) {
	active := o.activePools(block)
	if len(active) == 0 {
		return decimal.Zero, nil
	}

	if len(active) == 1 {
		pool := active[0]
		pair, ok, err := o.store.LoadPair(ctx, pool.Address)
		if err != nil {
			return decimal.Zero, fmt.Errorf("load reference pool %s: %w", pool.Address, err)
		}
		if !ok {
			o.logger.Debug("reference pool missing", zap.String("pool", pool.Address))
			return decimal.Zero, nil
		}
		return pair.Price(pool.StableSide), nil
	}

	totalReserve := decimal.Zero
	weighted := decimal.Zero
	loaded := 0
	for _, pool := range active {
		pair, ok, err := o.store.LoadPair(ctx, pool.Address)
		if err != nil {
			return decimal.Zero, fmt.Errorf("load reference pool %s: %w", pool.Address, err)
		}
		if !ok {
			o.logger.Debug("reference pool missing", zap.String("pool", pool.Address))
			continue
		}
		reserve := pair.Reserve(pool.StableSide)
		totalReserve = totalReserve.Add(reserve)
		weighted = weighted.Add(reserve.Mul(pair.Price(pool.StableSide)))
		loaded++
	}

	if loaded == 0 || !totalReserve.IsPositive() {
		return decimal.Zero, nil
	}

	return weighted.DivRound(totalReserve, DivisionPrecision), nil
}

func (o *Oracle) activePools(block uint64) []ReferencePool {
	out := make([]ReferencePool, 0, len(o.pools))
	for _, pool := range o.pools {
		if pool.ActiveAt(block) {
			out = append(out, pool)
		}
	}
	return out
}
