package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SwapRecord is a decoded V2 swap with token amounts already scaled by decimals.
type SwapRecord struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   uint64 `json:"timestamp"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Pair        string `json:"pair"`
	Amount0In   string `json:"amount0_in"`
	Amount1In   string `json:"amount1_in"`
	Amount0Out  string `json:"amount0_out"`
	Amount1Out  string `json:"amount1_out"`
}

// Amounts returns the total amount moved on each side (in + out).
func (r SwapRecord) Amounts() (decimal.Decimal, decimal.Decimal, error) {
	in0, err := parseAmount(r.Amount0In)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("amount0_in: %w", err)
	}
	out0, err := parseAmount(r.Amount0Out)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("amount0_out: %w", err)
	}
	in1, err := parseAmount(r.Amount1In)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("amount1_in: %w", err)
	}
	out1, err := parseAmount(r.Amount1Out)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("amount1_out: %w", err)
	}
	return in0.Add(out0), in1.Add(out1), nil
}

func parseAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %s", value)
	}
	return amount, nil
}
