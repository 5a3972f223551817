package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PairWindowMetrics stores aggregated tracked metrics for a pair window.
type PairWindowMetrics struct {
	ChainID          uint64          `json:"chain_id"`
	PairAddress      string          `json:"pair_address"`
	WindowSizeSecs   int64           `json:"window_size_seconds"`
	WindowStart      time.Time       `json:"window_start"`
	WindowEnd        time.Time       `json:"window_end"`
	SwapCount        uint64          `json:"swap_count"`
	UntrackedSwaps   uint64          `json:"untracked_swaps"`
	Volume0          decimal.Decimal `json:"volume0"`
	Volume1          decimal.Decimal `json:"volume1"`
	TrackedVolumeUSD decimal.Decimal `json:"tracked_volume_usd"`
	FirstBlock       uint64          `json:"first_block"`
	LastBlock        uint64          `json:"last_block"`
}
