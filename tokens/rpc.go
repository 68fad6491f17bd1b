package tokens

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// string getters with their bytes32 variants, used by early tokens (MKR, SAI)
const erc20ABIString = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

const erc20Bytes32ABIString = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"bytes32"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"bytes32"}],"type":"function"}
]`

var (
	erc20ABI        = mustParseABI(erc20ABIString)
	erc20Bytes32ABI = mustParseABI(erc20Bytes32ABIString)
)

func mustParseABI(in string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(in))
	if err != nil {
		panic(fmt.Errorf("parsing erc20 abi: %w", err))
	}
	return parsed
}

// RPC reads ERC20 getters through eth_call at the block of the event.
type RPC struct {
	caller ethereum.ContractCaller
	closer func()
}

func NewRPC(caller ethereum.ContractCaller) *RPC {
	return &RPC{caller: caller}
}

func DialRPC(ctx context.Context, endpoint string) (*RPC, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
	}
	return &RPC{caller: client, closer: client.Close}, nil
}

func (r *RPC) Close() {
	if r.closer != nil {
		r.closer()
	}
}

func (r *RPC) Fetch(ctx context.Context, address string, blockNum uint64) (*Info, error) {
	to := common.HexToAddress(address)
	block := new(big.Int).SetUint64(blockNum)

	decimals, err := r.callUint8(ctx, to, block, "decimals")
	if err != nil {
		zlog.Debug("decimals call failed", zap.String("address", address), zap.Error(err))
		return nil, fmt.Errorf("fetching decimals of %s: %w", address, ErrDecimalsUnavailable)
	}

	info := &Info{
		Address:     normalize(address),
		Symbol:      r.callText(ctx, to, block, "symbol", UnknownSymbol),
		Name:        r.callText(ctx, to, block, "name", UnknownName),
		Decimals:    int64(decimals),
		TotalSupply: new(big.Int),
	}

	if supply, err := r.callBigInt(ctx, to, block, "totalSupply"); err == nil {
		info.TotalSupply = supply
	}

	return info, nil
}

func (r *RPC) call(ctx context.Context, contract abi.ABI, to common.Address, block *big.Int, method string) ([]interface{}, error) {
	data, err := contract.Pack(method)
	if err != nil {
		return nil, err
	}

	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, block)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s output", method)
	}

	return contract.Unpack(method, out)
}

func (r *RPC) callUint8(ctx context.Context, to common.Address, block *big.Int, method string) (uint8, error) {
	values, err := r.call(ctx, erc20ABI, to, block, method)
	if err != nil {
		return 0, err
	}
	v, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected %s output %T", method, values[0])
	}
	return v, nil
}

func (r *RPC) callBigInt(ctx context.Context, to common.Address, block *big.Int, method string) (*big.Int, error) {
	values, err := r.call(ctx, erc20ABI, to, block, method)
	if err != nil {
		return nil, err
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s output %T", method, values[0])
	}
	return v, nil
}

// callText tries the string getter then its bytes32 variant.
func (r *RPC) callText(ctx context.Context, to common.Address, block *big.Int, method string, fallback string) string {
	if values, err := r.call(ctx, erc20ABI, to, block, method); err == nil {
		if v, ok := values[0].(string); ok && v != "" {
			return v
		}
	}

	if values, err := r.call(ctx, erc20Bytes32ABI, to, block, method); err == nil {
		if v, ok := values[0].([32]byte); ok {
			if text := strings.TrimRight(string(v[:]), "\x00"); text != "" {
				return text
			}
		}
	}

	return fallback
}
