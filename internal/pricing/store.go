package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"dexPricer/internal/model"
)

// EntityStore reads entity snapshots by canonical id.
// A missing entity is reported as ok=false with a nil error.
type EntityStore interface {
	LoadPair(ctx context.Context, id string) (model.Pair, bool, error)
	LoadToken(ctx context.Context, id string) (model.Token, bool, error)
	LoadBundle(ctx context.Context) (model.Bundle, bool, error)
}

// PairLookup resolves the pair address for two tokens, like a factory getPair.
// A nonexistent pair or a reverted call is reported as ok=false with a nil error.
type PairLookup interface {
	PairAddress(ctx context.Context, tokenA, tokenB string) (string, bool, error)
}

// PriceWriter persists computed prices.
type PriceWriter interface {
	SaveBundle(ctx context.Context, bundle model.Bundle) error
	SaveTokenPrice(ctx context.Context, tokenID string, price decimal.Decimal) error
}
