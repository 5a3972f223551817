package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// FactoryLookup resolves pair addresses through a V2 factory's getPair.
type FactoryLookup struct {
	caller  ethereum.ContractCaller
	factory common.Address
	abi     abi.ABI
	block   *big.Int
	logger  *zap.Logger
}

// NewFactoryLookup builds a lookup against factoryAddr. A zero block queries latest state.
func NewFactoryLookup(caller ethereum.ContractCaller, factoryAddr string, block uint64, logger *zap.Logger) (*FactoryLookup, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}
	if !common.IsHexAddress(factoryAddr) {
		return nil, fmt.Errorf("invalid factory address: %q", factoryAddr)
	}
	parsed, err := V2FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var blockPtr *big.Int
	if block > 0 {
		blockPtr = new(big.Int).SetUint64(block)
	}

	return &FactoryLookup{
		caller:  caller,
		factory: common.HexToAddress(factoryAddr),
		abi:     parsed,
		block:   blockPtr,
		logger:  logger,
	}, nil
}

// PairAddress returns the lowercase pair address for two tokens. A reverted call
// or a zero address reports ok=false; transport failures are returned as errors.
func (f *FactoryLookup) PairAddress(ctx context.Context, tokenA, tokenB string) (string, bool, error) {
	if !common.IsHexAddress(tokenA) || !common.IsHexAddress(tokenB) {
		return "", false, fmt.Errorf("invalid token address: %s/%s", tokenA, tokenB)
	}

	data, err := f.abi.Pack("getPair", common.HexToAddress(tokenA), common.HexToAddress(tokenB))
	if err != nil {
		return "", false, fmt.Errorf("pack getPair: %w", err)
	}

	msg := ethereum.CallMsg{To: &f.factory, Data: data}
	resp, err := f.caller.CallContract(ctx, msg, f.block)
	if err != nil {
		if isRevert(err) {
			f.logger.Debug("getPair reverted", zap.String("token_a", tokenA), zap.String("token_b", tokenB), zap.Error(err))
			return "", false, nil
		}
		return "", false, fmt.Errorf("call getPair: %w", err)
	}
	if len(resp) == 0 {
		return "", false, nil
	}

	values, err := f.abi.Unpack("getPair", resp)
	if err != nil {
		return "", false, fmt.Errorf("unpack getPair: %w", err)
	}
	if len(values) != 1 {
		return "", false, fmt.Errorf("getPair return size %d", len(values))
	}
	pair, ok := values[0].(common.Address)
	if !ok {
		return "", false, fmt.Errorf("getPair unexpected type %T", values[0])
	}
	if pair == (common.Address{}) {
		return "", false, nil
	}
	return strings.ToLower(pair.Hex()), true, nil
}

func isRevert(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}
