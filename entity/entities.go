package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Factory struct {
	Base
	PoolCount                       Int             `json:"poolCount"`
	TxCount                         Int             `json:"txCount"`
	TotalVolumeUSD                  decimal.Decimal `json:"totalVolumeUSD"`
	TotalVolumeNative               decimal.Decimal `json:"totalVolumeNative"`
	TotalFeesUSD                    decimal.Decimal `json:"totalFeesUSD"`
	TotalFeesNative                 decimal.Decimal `json:"totalFeesNative"`
	UntrackedVolumeUSD              decimal.Decimal `json:"untrackedVolumeUSD"`
	TotalValueLockedUSD             decimal.Decimal `json:"totalValueLockedUSD"`
	TotalValueLockedNative          decimal.Decimal `json:"totalValueLockedNative"`
	TotalValueLockedUSDUntracked    decimal.Decimal `json:"totalValueLockedUSDUntracked"`
	TotalValueLockedNativeUntracked decimal.Decimal `json:"totalValueLockedNativeUntracked"`
	DefaultCommunityFee             Int             `json:"defaultCommunityFee"`
	Owner                           string          `json:"owner"`
}

func NewFactory(id string) *Factory {
	return &Factory{
		Base:  NewBase(id),
		Owner: ZeroAddress,
	}
}

func (*Factory) TableName() string { return "Factory" }

// Bundle holds the latest native asset price expressed in USD.
type Bundle struct {
	Base
	NativePriceUSD decimal.Decimal `json:"nativePriceUSD"`
}

func NewBundle() *Bundle {
	return &Bundle{Base: NewBase(SingletonID)}
}

func (*Bundle) TableName() string { return "Bundle" }

// BurnFeeCache carries the plugin fee announced right before a Burn.
type BurnFeeCache struct {
	Base
	PluginFee Int `json:"pluginFee"`
}

func NewBurnFeeCache() *BurnFeeCache {
	return &BurnFeeCache{Base: NewBase(SingletonID)}
}

func (*BurnFeeCache) TableName() string { return "BurnFeeCache" }

// SwapFeeCache carries the override and plugin fees announced right before a Swap.
type SwapFeeCache struct {
	Base
	PluginFee   Int `json:"pluginFee"`
	OverrideFee Int `json:"overrideFee"`
}

func NewSwapFeeCache() *SwapFeeCache {
	return &SwapFeeCache{Base: NewBase(SingletonID)}
}

func (*SwapFeeCache) TableName() string { return "SwapFeeCache" }

// PositionTransferCache remembers the receiver of the latest position NFT transfer.
type PositionTransferCache struct {
	Base
	Owner string `json:"owner"`
}

func NewPositionTransferCache() *PositionTransferCache {
	return &PositionTransferCache{Base: NewBase(SingletonID), Owner: ZeroAddress}
}

func (*PositionTransferCache) TableName() string { return "PositionTransferCache" }

// DataSource records a pool contract whose events are tracked from StartBlock on.
type DataSource struct {
	Base
	StartBlock uint64 `json:"startBlock"`
}

func NewDataSource(id string) *DataSource {
	return &DataSource{Base: NewBase(id)}
}

func (*DataSource) TableName() string { return "DataSource" }

type Token struct {
	Base
	Symbol                       string          `json:"symbol"`
	Name                         string          `json:"name"`
	Decimals                     Int             `json:"decimals"`
	TotalSupply                  Int             `json:"totalSupply"`
	Volume                       decimal.Decimal `json:"volume"`
	VolumeUSD                    decimal.Decimal `json:"volumeUSD"`
	UntrackedVolumeUSD           decimal.Decimal `json:"untrackedVolumeUSD"`
	FeesUSD                      decimal.Decimal `json:"feesUSD"`
	TxCount                      Int             `json:"txCount"`
	PoolCount                    Int             `json:"poolCount"`
	TotalValueLocked             decimal.Decimal `json:"totalValueLocked"`
	TotalValueLockedUSD          decimal.Decimal `json:"totalValueLockedUSD"`
	TotalValueLockedUSDUntracked decimal.Decimal `json:"totalValueLockedUSDUntracked"`
	DerivedNative                decimal.Decimal `json:"derivedNative"`
	WhitelistPools               []string        `json:"whitelistPools"`
}

func NewToken(id string) *Token {
	return &Token{
		Base:           NewBase(id),
		WhitelistPools: []string{},
	}
}

func (*Token) TableName() string { return "Token" }

// Sanitize strips the NUL padding left over by bytes32 symbol and name getters.
func (t *Token) Sanitize() {
	t.Name = strings.ReplaceAll(t.Name, "\u0000", "")
	t.Symbol = strings.ReplaceAll(t.Symbol, "\u0000", "")
}

func (t *Token) AddWhitelistPool(poolID string) {
	for _, id := range t.WhitelistPools {
		if id == poolID {
			return
		}
	}
	t.WhitelistPools = append(t.WhitelistPools, poolID)
}

type Pool struct {
	Base
	CreatedAtTimestamp           uint64          `json:"createdAtTimestamp"`
	CreatedAtBlockNumber         uint64          `json:"createdAtBlockNumber"`
	Deployer                     string          `json:"deployer"`
	Plugin                       string          `json:"plugin"`
	PluginConfig                 uint64          `json:"pluginConfig"`
	Token0                       string          `json:"token0"`
	Token1                       string          `json:"token1"`
	Fee                          Int             `json:"fee"`
	OverrideFee                  Int             `json:"overrideFee"`
	CommunityFee                 Int             `json:"communityFee"`
	CommunityVault               string          `json:"communityVault"`
	TickSpacing                  Int             `json:"tickSpacing"`
	Liquidity                    Int             `json:"liquidity"`
	SqrtPrice                    Int             `json:"sqrtPrice"`
	Tick                         Int             `json:"tick"`
	Token0Price                  decimal.Decimal `json:"token0Price"`
	Token1Price                  decimal.Decimal `json:"token1Price"`
	ObservationIndex             Int             `json:"observationIndex"`
	VolumeToken0                 decimal.Decimal `json:"volumeToken0"`
	VolumeToken1                 decimal.Decimal `json:"volumeToken1"`
	VolumeUSD                    decimal.Decimal `json:"volumeUSD"`
	UntrackedVolumeUSD           decimal.Decimal `json:"untrackedVolumeUSD"`
	FeesToken0                   decimal.Decimal `json:"feesToken0"`
	FeesToken1                   decimal.Decimal `json:"feesToken1"`
	FeesUSD                      decimal.Decimal `json:"feesUSD"`
	UntrackedFeesUSD             decimal.Decimal `json:"untrackedFeesUSD"`
	TxCount                      Int             `json:"txCount"`
	CollectedFeesToken0          decimal.Decimal `json:"collectedFeesToken0"`
	CollectedFeesToken1          decimal.Decimal `json:"collectedFeesToken1"`
	CollectedFeesUSD             decimal.Decimal `json:"collectedFeesUSD"`
	TotalValueLockedToken0       decimal.Decimal `json:"totalValueLockedToken0"`
	TotalValueLockedToken1       decimal.Decimal `json:"totalValueLockedToken1"`
	TotalValueLockedNative       decimal.Decimal `json:"totalValueLockedNative"`
	TotalValueLockedUSD          decimal.Decimal `json:"totalValueLockedUSD"`
	TotalValueLockedUSDUntracked decimal.Decimal `json:"totalValueLockedUSDUntracked"`
	LiquidityProviderCount       Int             `json:"liquidityProviderCount"`
	LastMintIndex                uint64          `json:"lastMintIndex"`
}

func NewPool(id string) *Pool {
	return &Pool{
		Base:           NewBase(id),
		Deployer:       ZeroAddress,
		Plugin:         ZeroAddress,
		CommunityVault: ZeroAddress,
	}
}

func (*Pool) TableName() string { return "Pool" }

// HasPlugin reports whether a plugin is installed on the pool.
func (p *Pool) HasPlugin() bool {
	return p.Plugin != "" && p.Plugin != ZeroAddress
}

// ActiveRange reports whether [bottom, top) contains the current tick of the pool.
func (p *Pool) ActiveRange(bottom, top int64) bool {
	tick := p.Tick.Int64()
	return bottom <= tick && top > tick
}

type Tick struct {
	Base
	PoolAddress          string          `json:"poolAddress"`
	TickIdx              Int             `json:"tickIdx"`
	Pool                 string          `json:"pool"`
	LiquidityGross       Int             `json:"liquidityGross"`
	LiquidityNet         Int             `json:"liquidityNet"`
	Price0               decimal.Decimal `json:"price0"`
	Price1               decimal.Decimal `json:"price1"`
	CreatedAtTimestamp   uint64          `json:"createdAtTimestamp"`
	CreatedAtBlockNumber uint64          `json:"createdAtBlockNumber"`
}

func NewTick(id string) *Tick {
	return &Tick{Base: NewBase(id)}
}

func (*Tick) TableName() string { return "Tick" }

// PoolPosition accumulates the liquidity minted by one owner on one tick range of a pool.
type PoolPosition struct {
	Base
	Pool      string `json:"pool"`
	Owner     string `json:"owner"`
	LowerTick string `json:"lowerTick"`
	UpperTick string `json:"upperTick"`
	Liquidity Int    `json:"liquidity"`
}

func NewPoolPosition(id string) *PoolPosition {
	return &PoolPosition{Base: NewBase(id)}
}

func (*PoolPosition) TableName() string { return "PoolPosition" }

// Position is a non fungible liquidity position, keyed by its token id.
type Position struct {
	Base
	Owner               string          `json:"owner"`
	Pool                string          `json:"pool"`
	Token0              string          `json:"token0"`
	Token1              string          `json:"token1"`
	TickLower           string          `json:"tickLower"`
	TickUpper           string          `json:"tickUpper"`
	Liquidity           Int             `json:"liquidity"`
	DepositedToken0     decimal.Decimal `json:"depositedToken0"`
	DepositedToken1     decimal.Decimal `json:"depositedToken1"`
	WithdrawnToken0     decimal.Decimal `json:"withdrawnToken0"`
	WithdrawnToken1     decimal.Decimal `json:"withdrawnToken1"`
	CollectedToken0     decimal.Decimal `json:"collectedToken0"`
	CollectedToken1     decimal.Decimal `json:"collectedToken1"`
	CollectedFeesToken0 decimal.Decimal `json:"collectedFeesToken0"`
	CollectedFeesToken1 decimal.Decimal `json:"collectedFeesToken1"`
	Transaction         string          `json:"transaction"`
}

func NewPosition(id string) *Position {
	return &Position{Base: NewBase(id)}
}

func (*Position) TableName() string { return "Position" }

type PositionSnapshot struct {
	Base
	Owner               string          `json:"owner"`
	Pool                string          `json:"pool"`
	Position            string          `json:"position"`
	BlockNumber         uint64          `json:"blockNumber"`
	Timestamp           uint64          `json:"timestamp"`
	Liquidity           Int             `json:"liquidity"`
	DepositedToken0     decimal.Decimal `json:"depositedToken0"`
	DepositedToken1     decimal.Decimal `json:"depositedToken1"`
	WithdrawnToken0     decimal.Decimal `json:"withdrawnToken0"`
	WithdrawnToken1     decimal.Decimal `json:"withdrawnToken1"`
	CollectedFeesToken0 decimal.Decimal `json:"collectedFeesToken0"`
	CollectedFeesToken1 decimal.Decimal `json:"collectedFeesToken1"`
	Transaction         string          `json:"transaction"`
}

func NewPositionSnapshot(id string) *PositionSnapshot {
	return &PositionSnapshot{Base: NewBase(id)}
}

func (*PositionSnapshot) TableName() string { return "PositionSnapshot" }

type Plugin struct {
	Base
	Pool                string          `json:"pool"`
	CollectedFeesToken0 decimal.Decimal `json:"collectedFeesToken0"`
	CollectedFeesToken1 decimal.Decimal `json:"collectedFeesToken1"`
	CollectedFeesUSD    decimal.Decimal `json:"collectedFeesUSD"`
}

func NewPlugin(id string) *Plugin {
	return &Plugin{Base: NewBase(id)}
}

func (*Plugin) TableName() string { return "Plugin" }

type Transaction struct {
	Base
	BlockNumber uint64 `json:"blockNumber"`
	Timestamp   uint64 `json:"timestamp"`
	GasPrice    Int    `json:"gasPrice"`
}

func NewTransaction(id string) *Transaction {
	return &Transaction{Base: NewBase(id)}
}

func (*Transaction) TableName() string { return "Transaction" }

type Mint struct {
	Base
	Transaction string          `json:"transaction"`
	Timestamp   uint64          `json:"timestamp"`
	Pool        string          `json:"pool"`
	Token0      string          `json:"token0"`
	Token1      string          `json:"token1"`
	Owner       string          `json:"owner"`
	Sender      string          `json:"sender"`
	Origin      string          `json:"origin"`
	Amount      Int             `json:"amount"`
	Amount0     decimal.Decimal `json:"amount0"`
	Amount1     decimal.Decimal `json:"amount1"`
	AmountUSD   decimal.Decimal `json:"amountUSD"`
	TickLower   Int             `json:"tickLower"`
	TickUpper   Int             `json:"tickUpper"`
	Reserves0   decimal.Decimal `json:"reserves0"`
	Reserves1   decimal.Decimal `json:"reserves1"`
	LogIndex    uint64          `json:"logIndex"`
}

func NewMint(id string) *Mint {
	return &Mint{Base: NewBase(id)}
}

func (*Mint) TableName() string { return "Mint" }

type Burn struct {
	Base
	Transaction string          `json:"transaction"`
	Timestamp   uint64          `json:"timestamp"`
	Pool        string          `json:"pool"`
	Token0      string          `json:"token0"`
	Token1      string          `json:"token1"`
	Owner       string          `json:"owner"`
	Origin      string          `json:"origin"`
	Amount      Int             `json:"amount"`
	Amount0     decimal.Decimal `json:"amount0"`
	Amount1     decimal.Decimal `json:"amount1"`
	AmountUSD   decimal.Decimal `json:"amountUSD"`
	TickLower   Int             `json:"tickLower"`
	TickUpper   Int             `json:"tickUpper"`
	Reserves0   decimal.Decimal `json:"reserves0"`
	Reserves1   decimal.Decimal `json:"reserves1"`
	LogIndex    uint64          `json:"logIndex"`
}

func NewBurn(id string) *Burn {
	return &Burn{Base: NewBase(id)}
}

func (*Burn) TableName() string { return "Burn" }

type Swap struct {
	Base
	Transaction string          `json:"transaction"`
	Timestamp   uint64          `json:"timestamp"`
	Pool        string          `json:"pool"`
	Token0      string          `json:"token0"`
	Token1      string          `json:"token1"`
	Sender      string          `json:"sender"`
	Recipient   string          `json:"recipient"`
	Origin      string          `json:"origin"`
	Liquidity   Int             `json:"liquidity"`
	Amount0     decimal.Decimal `json:"amount0"`
	Amount1     decimal.Decimal `json:"amount1"`
	AmountUSD   decimal.Decimal `json:"amountUSD"`
	Price       Int             `json:"price"`
	Tick        Int             `json:"tick"`
	Reserves0   decimal.Decimal `json:"reserves0"`
	Reserves1   decimal.Decimal `json:"reserves1"`
	LogIndex    uint64          `json:"logIndex"`
}

func NewSwap(id string) *Swap {
	return &Swap{Base: NewBase(id)}
}

func (*Swap) TableName() string { return "Swap" }

// PoolFeeData records the fee a pool switched to at a given timestamp.
type PoolFeeData struct {
	Base
	Pool      string `json:"pool"`
	Fee       Int    `json:"fee"`
	Timestamp uint64 `json:"timestamp"`
}

func NewPoolFeeData(id string) *PoolFeeData {
	return &PoolFeeData{Base: NewBase(id)}
}

func (*PoolFeeData) TableName() string { return "PoolFeeData" }
