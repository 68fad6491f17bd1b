package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	DaySeconds  uint64 = 86400
	HourSeconds uint64 = 3600
)

// BucketID returns floor(timestamp / length).
func BucketID(timestamp, length uint64) uint64 {
	return timestamp / length
}

// BucketEntityID joins a subject and a bucket id, `<subject>-<bucket>`.
func BucketEntityID(subject string, bucket uint64) string {
	return fmt.Sprintf("%s-%d", subject, bucket)
}

// OHLC is the open/high/low/close envelope of a reference price over a bucket.
type OHLC struct {
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

// Seed opens the envelope on its first observation.
func (o *OHLC) Seed(price decimal.Decimal) {
	o.Open = price
	o.High = price
	o.Low = price
	o.Close = price
}

// Observe widens the envelope and moves the close.
func (o *OHLC) Observe(price decimal.Decimal) {
	if price.GreaterThan(o.High) {
		o.High = price
	}
	if price.LessThan(o.Low) {
		o.Low = price
	}
	o.Close = price
}

type AlgebraDayData struct {
	Base
	Date               uint64          `json:"date"`
	VolumeNative       decimal.Decimal `json:"volumeNative"`
	VolumeUSD          decimal.Decimal `json:"volumeUSD"`
	VolumeUSDUntracked decimal.Decimal `json:"volumeUSDUntracked"`
	FeesUSD            decimal.Decimal `json:"feesUSD"`
	TxCount            Int             `json:"txCount"`
	TvlUSD             decimal.Decimal `json:"tvlUSD"`
}

func NewAlgebraDayData(id string) *AlgebraDayData {
	return &AlgebraDayData{Base: NewBase(id)}
}

func (*AlgebraDayData) TableName() string { return "AlgebraDayData" }

type AlgebraHourData struct {
	Base
	Date               uint64          `json:"date"`
	VolumeNative       decimal.Decimal `json:"volumeNative"`
	VolumeUSD          decimal.Decimal `json:"volumeUSD"`
	VolumeUSDUntracked decimal.Decimal `json:"volumeUSDUntracked"`
	FeesUSD            decimal.Decimal `json:"feesUSD"`
	TxCount            Int             `json:"txCount"`
	TvlUSD             decimal.Decimal `json:"tvlUSD"`
}

func NewAlgebraHourData(id string) *AlgebraHourData {
	return &AlgebraHourData{Base: NewBase(id)}
}

func (*AlgebraHourData) TableName() string { return "AlgebraHourData" }

type PoolDayData struct {
	Base
	OHLC
	Date               uint64          `json:"date"`
	Pool               string          `json:"pool"`
	Liquidity          Int             `json:"liquidity"`
	SqrtPrice          Int             `json:"sqrtPrice"`
	Token0Price        decimal.Decimal `json:"token0Price"`
	Token1Price        decimal.Decimal `json:"token1Price"`
	Tick               Int             `json:"tick"`
	TvlUSD             decimal.Decimal `json:"tvlUSD"`
	VolumeToken0       decimal.Decimal `json:"volumeToken0"`
	VolumeToken1       decimal.Decimal `json:"volumeToken1"`
	VolumeUSD          decimal.Decimal `json:"volumeUSD"`
	UntrackedVolumeUSD decimal.Decimal `json:"untrackedVolumeUSD"`
	FeesToken0         decimal.Decimal `json:"feesToken0"`
	FeesToken1         decimal.Decimal `json:"feesToken1"`
	FeesUSD            decimal.Decimal `json:"feesUSD"`
	TxCount            Int             `json:"txCount"`
}

func NewPoolDayData(id string) *PoolDayData {
	return &PoolDayData{Base: NewBase(id)}
}

func (*PoolDayData) TableName() string { return "PoolDayData" }

type PoolHourData struct {
	Base
	OHLC
	PeriodStartUnix    uint64          `json:"periodStartUnix"`
	Pool               string          `json:"pool"`
	Liquidity          Int             `json:"liquidity"`
	SqrtPrice          Int             `json:"sqrtPrice"`
	Token0Price        decimal.Decimal `json:"token0Price"`
	Token1Price        decimal.Decimal `json:"token1Price"`
	Tick               Int             `json:"tick"`
	TvlUSD             decimal.Decimal `json:"tvlUSD"`
	VolumeToken0       decimal.Decimal `json:"volumeToken0"`
	VolumeToken1       decimal.Decimal `json:"volumeToken1"`
	VolumeUSD          decimal.Decimal `json:"volumeUSD"`
	UntrackedVolumeUSD decimal.Decimal `json:"untrackedVolumeUSD"`
	FeesUSD            decimal.Decimal `json:"feesUSD"`
	TxCount            Int             `json:"txCount"`
}

func NewPoolHourData(id string) *PoolHourData {
	return &PoolHourData{Base: NewBase(id)}
}

func (*PoolHourData) TableName() string { return "PoolHourData" }

type TokenDayData struct {
	Base
	OHLC
	Date                uint64          `json:"date"`
	Token               string          `json:"token"`
	Volume              decimal.Decimal `json:"volume"`
	VolumeUSD           decimal.Decimal `json:"volumeUSD"`
	UntrackedVolumeUSD  decimal.Decimal `json:"untrackedVolumeUSD"`
	TotalValueLocked    decimal.Decimal `json:"totalValueLocked"`
	TotalValueLockedUSD decimal.Decimal `json:"totalValueLockedUSD"`
	PriceUSD            decimal.Decimal `json:"priceUSD"`
	FeesUSD             decimal.Decimal `json:"feesUSD"`
}

func NewTokenDayData(id string) *TokenDayData {
	return &TokenDayData{Base: NewBase(id)}
}

func (*TokenDayData) TableName() string { return "TokenDayData" }

type TokenHourData struct {
	Base
	OHLC
	PeriodStartUnix     uint64          `json:"periodStartUnix"`
	Token               string          `json:"token"`
	Volume              decimal.Decimal `json:"volume"`
	VolumeUSD           decimal.Decimal `json:"volumeUSD"`
	UntrackedVolumeUSD  decimal.Decimal `json:"untrackedVolumeUSD"`
	TotalValueLocked    decimal.Decimal `json:"totalValueLocked"`
	TotalValueLockedUSD decimal.Decimal `json:"totalValueLockedUSD"`
	PriceUSD            decimal.Decimal `json:"priceUSD"`
	FeesUSD             decimal.Decimal `json:"feesUSD"`
}

func NewTokenHourData(id string) *TokenHourData {
	return &TokenHourData{Base: NewBase(id)}
}

func (*TokenHourData) TableName() string { return "TokenHourData" }

// FeeHourData tracks how often, and between which values, a pool fee moved within an hour.
type FeeHourData struct {
	Base
	Pool         string `json:"pool"`
	Timestamp    uint64 `json:"timestamp"`
	Fee          Int    `json:"fee"`
	ChangesCount Int    `json:"changesCount"`
	StartFee     Int    `json:"startFee"`
	EndFee       Int    `json:"endFee"`
	MinFee       Int    `json:"minFee"`
	MaxFee       Int    `json:"maxFee"`
}

func NewFeeHourData(id string) *FeeHourData {
	return &FeeHourData{Base: NewBase(id)}
}

func (*FeeHourData) TableName() string { return "FeeHourData" }
