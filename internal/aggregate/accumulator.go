package aggregate

import (
	"github.com/shopspring/decimal"

	"dexPricer/internal/model"
	"dexPricer/internal/pricing"
)

// Accumulator holds aggregate values for a pair window.
type Accumulator struct {
	ChainID          uint64
	PairAddress      string
	WindowStart      uint64
	WindowEnd        uint64
	SwapCount        uint64
	UntrackedSwaps   uint64
	Volume0          decimal.Decimal
	Volume1          decimal.Decimal
	TrackedVolumeUSD decimal.Decimal
	FirstBlock       uint64
	LastBlock        uint64
	LastTS           uint64
}

func NewAccumulator(record model.SwapRecord, pair string, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		ChainID:          record.ChainID,
		PairAddress:      pair,
		WindowStart:      windowStart,
		WindowEnd:        windowEnd,
		Volume0:          decimal.Zero,
		Volume1:          decimal.Zero,
		TrackedVolumeUSD: decimal.Zero,
		FirstBlock:       record.BlockNumber,
		LastBlock:        record.BlockNumber,
		LastTS:           record.Timestamp,
	}
}

// AddSwap folds one valued swap into the window.
func (a *Accumulator) AddSwap(record model.SwapRecord, amount0, amount1 decimal.Decimal, tracked pricing.TrackedAmounts) {
	if record.Timestamp >= a.LastTS {
		a.LastTS = record.Timestamp
		a.LastBlock = record.BlockNumber
	}
	if a.FirstBlock == 0 || record.BlockNumber < a.FirstBlock {
		a.FirstBlock = record.BlockNumber
	}

	a.Volume0 = a.Volume0.Add(amount0)
	a.Volume1 = a.Volume1.Add(amount1)
	a.SwapCount++

	if !tracked.Tracked {
		a.UntrackedSwaps++
		return
	}
	a.TrackedVolumeUSD = a.TrackedVolumeUSD.Add(tracked.VolumeUSD)
}

// Metrics converts the accumulator into a persisted window row.
func (a *Accumulator) Metrics(windowSeconds uint64) model.PairWindowMetrics {
	return model.PairWindowMetrics{
		ChainID:          a.ChainID,
		PairAddress:      a.PairAddress,
		WindowSizeSecs:   int64(windowSeconds),
		WindowStart:      unixTime(a.WindowStart),
		WindowEnd:        unixTime(a.WindowEnd),
		SwapCount:        a.SwapCount,
		UntrackedSwaps:   a.UntrackedSwaps,
		Volume0:          a.Volume0,
		Volume1:          a.Volume1,
		TrackedVolumeUSD: a.TrackedVolumeUSD,
		FirstBlock:       a.FirstBlock,
		LastBlock:        a.LastBlock,
	}
}
