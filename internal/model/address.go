package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the canonical form of the zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// NormalizeAddress validates a hex address and returns its canonical lowercase form.
func NormalizeAddress(input string) (string, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return "", fmt.Errorf("invalid address: %q", input)
	}
	return strings.ToLower(common.HexToAddress(input).Hex()), nil
}

// NormalizeAddresses normalizes every entry, skipping blanks.
func NormalizeAddresses(inputs []string) ([]string, error) {
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if strings.TrimSpace(input) == "" {
			continue
		}
		addr, err := NormalizeAddress(input)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// SameAddress compares two ids without regard to case.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
