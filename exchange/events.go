package exchange

import (
	"math/big"

	"github.com/streamingfast/eth-go"
)

// EventMeta is the block and transaction context of a decoded log.
type EventMeta struct {
	BlockNumber uint64
	Timestamp   uint64
	TxHash      eth.Hash
	TxIndex     uint64
	LogIndex    uint64
	LogAddress  eth.Address
	From        eth.Address
	GasPrice    *big.Int
}

func (m *EventMeta) Meta() *EventMeta { return m }

// Event is implemented by every decoded log through its embedded EventMeta.
type Event interface {
	Meta() *EventMeta
}

// Factory events

type PoolCreated struct {
	EventMeta
	Token0 eth.Address
	Token1 eth.Address
	Pool   eth.Address
}

type CustomPoolCreated struct {
	EventMeta
	Deployer eth.Address
	Token0   eth.Address
	Token1   eth.Address
	Pool     eth.Address
}

type DefaultCommunityFee struct {
	EventMeta
	NewDefaultCommunityFee int64
}

// Pool events

type Initialize struct {
	EventMeta
	Price *big.Int
	Tick  int64
}

type Mint struct {
	EventMeta
	Sender          eth.Address
	Owner           eth.Address
	BottomTick      int64
	TopTick         int64
	LiquidityAmount *big.Int
	Amount0         *big.Int
	Amount1         *big.Int
}

type Burn struct {
	EventMeta
	Owner           eth.Address
	BottomTick      int64
	TopTick         int64
	LiquidityAmount *big.Int
	Amount0         *big.Int
	Amount1         *big.Int
}

type Swap struct {
	EventMeta
	Sender    eth.Address
	Recipient eth.Address
	Amount0   *big.Int
	Amount1   *big.Int
	Price     *big.Int
	Liquidity *big.Int
	Tick      int64
}

type Collect struct {
	EventMeta
	Owner      eth.Address
	Recipient  eth.Address
	BottomTick int64
	TopTick    int64
	Amount0    *big.Int
	Amount1    *big.Int
}

type CommunityFee struct {
	EventMeta
	CommunityFeeNew int64
}

type TickSpacing struct {
	EventMeta
	NewTickSpacing int64
}

type Fee struct {
	EventMeta
	Fee int64
}

type Plugin struct {
	EventMeta
	NewPluginAddress eth.Address
}

type PluginConfig struct {
	EventMeta
	NewPluginConfig uint64
}

type BurnFee struct {
	EventMeta
	PluginFee int64
}

type SwapFee struct {
	EventMeta
	OverrideFee int64
	PluginFee   int64
}

// Position manager events

type IncreaseLiquidity struct {
	EventMeta
	TokenID         *big.Int
	Liquidity       *big.Int
	ActualLiquidity *big.Int
	Amount0         *big.Int
	Amount1         *big.Int
	Pool            eth.Address
}

type DecreaseLiquidity struct {
	EventMeta
	TokenID   *big.Int
	Liquidity *big.Int
	Amount0   *big.Int
	Amount1   *big.Int
}

type PositionCollect struct {
	EventMeta
	TokenID   *big.Int
	Recipient eth.Address
	Amount0   *big.Int
	Amount1   *big.Int
}

type Transfer struct {
	EventMeta
	From    eth.Address
	To      eth.Address
	TokenID *big.Int
}
