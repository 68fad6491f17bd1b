package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/streamingfast/eth-go"
)

// Address is a 20 bytes hex address, `0x` prefixed.
type Address eth.Address

func (a *Address) UnmarshalJSON(data []byte) error {
	var in string
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("address must be a string: %w", err)
	}
	if !common.IsHexAddress(in) {
		return fmt.Errorf("invalid address %q", in)
	}
	*a = Address(common.HexToAddress(in).Bytes())
	return nil
}

func (a Address) toEth() eth.Address {
	return eth.Address(a)
}

// Hash is a 32 bytes hex hash, `0x` prefixed.
type Hash eth.Hash

func (h *Hash) UnmarshalJSON(data []byte) error {
	var in string
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("hash must be a string: %w", err)
	}
	if !strings.HasPrefix(in, "0x") || len(in) != 2+2*common.HashLength {
		return fmt.Errorf("invalid hash %q", in)
	}
	raw := common.FromHex(in)
	if len(raw) != common.HashLength {
		return fmt.Errorf("invalid hash %q", in)
	}
	*h = Hash(raw)
	return nil
}

// BigInt accepts a JSON number or a decimal string. Amounts routinely exceed
// 2^53 so producers usually quote them.
type BigInt struct {
	*big.Int
}

func (b *BigInt) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if raw == "null" {
		return fmt.Errorf("integer expected, got null")
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}

	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return fmt.Errorf("invalid integer %q", raw)
	}
	b.Int = v
	return nil
}

func (b BigInt) value() *big.Int {
	if b.Int == nil {
		return new(big.Int)
	}
	return b.Int
}

func (b BigInt) toInt64() (int64, error) {
	v := b.value()
	if !v.IsInt64() {
		return 0, fmt.Errorf("integer %s overflows int64", v)
	}
	return v.Int64(), nil
}

func (b BigInt) toUint64() (uint64, error) {
	v := b.value()
	if !v.IsUint64() {
		return 0, fmt.Errorf("integer %s does not fit uint64", v)
	}
	return v.Uint64(), nil
}

// envelope is one line of the event stream.
type envelope struct {
	Kind      string          `json:"kind"`
	Block     uint64          `json:"block"`
	Timestamp uint64          `json:"timestamp"`
	TxHash    Hash            `json:"tx_hash"`
	TxIndex   uint64          `json:"tx_index"`
	LogIndex  uint64          `json:"log_index"`
	Address   Address         `json:"address"`
	From      Address         `json:"from"`
	GasPrice  BigInt          `json:"gas_price"`
	Params    json.RawMessage `json:"params"`
}

type poolCreatedParams struct {
	Deployer *Address `json:"deployer"`
	Token0   Address  `json:"token0"`
	Token1   Address  `json:"token1"`
	Pool     Address  `json:"pool"`
}

type defaultCommunityFeeParams struct {
	NewDefaultCommunityFee BigInt `json:"newDefaultCommunityFee"`
}

type initializeParams struct {
	Price BigInt `json:"price"`
	Tick  BigInt `json:"tick"`
}

type mintBurnParams struct {
	Sender          Address `json:"sender"`
	Owner           Address `json:"owner"`
	BottomTick      BigInt  `json:"bottomTick"`
	TopTick         BigInt  `json:"topTick"`
	LiquidityAmount BigInt  `json:"liquidityAmount"`
	Amount0         BigInt  `json:"amount0"`
	Amount1         BigInt  `json:"amount1"`
}

type swapParams struct {
	Sender    Address `json:"sender"`
	Recipient Address `json:"recipient"`
	Amount0   BigInt  `json:"amount0"`
	Amount1   BigInt  `json:"amount1"`
	Price     BigInt  `json:"price"`
	Liquidity BigInt  `json:"liquidity"`
	Tick      BigInt  `json:"tick"`
}

type collectParams struct {
	Owner      Address `json:"owner"`
	Recipient  Address `json:"recipient"`
	BottomTick BigInt  `json:"bottomTick"`
	TopTick    BigInt  `json:"topTick"`
	Amount0    BigInt  `json:"amount0"`
	Amount1    BigInt  `json:"amount1"`
}

type poolSettingParams struct {
	CommunityFeeNew  BigInt   `json:"communityFeeNew"`
	NewTickSpacing   BigInt   `json:"newTickSpacing"`
	Fee              BigInt   `json:"fee"`
	NewPluginAddress *Address `json:"newPluginAddress"`
	NewPluginConfig  BigInt   `json:"newPluginConfig"`
	OverrideFee      BigInt   `json:"overrideFee"`
	PluginFee        BigInt   `json:"pluginFee"`
}

type positionParams struct {
	TokenID         BigInt   `json:"tokenId"`
	Liquidity       BigInt   `json:"liquidity"`
	ActualLiquidity BigInt   `json:"actualLiquidity"`
	Amount0         BigInt   `json:"amount0"`
	Amount1         BigInt   `json:"amount1"`
	Pool            *Address `json:"pool"`
	Recipient       *Address `json:"recipient"`
	From            *Address `json:"from"`
	To              *Address `json:"to"`
}
