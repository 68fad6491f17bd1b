package exchange

import (
	"fmt"
	"strconv"

	"github.com/streamingfast/algebra-analytics/entity"
)

func (s *Subgraph) UpdateAlgebraDayData(meta *EventMeta, factory *entity.Factory) (*entity.AlgebraDayData, error) {
	dayID := entity.BucketID(meta.Timestamp, entity.DaySeconds)

	dayData := entity.NewAlgebraDayData(strconv.FormatUint(dayID, 10))
	if _, err := s.GetOrCreate(dayData, func() {
		dayData.Date = dayID * entity.DaySeconds
	}); err != nil {
		return nil, fmt.Errorf("loading algebra day data: %w", err)
	}

	dayData.TvlUSD = factory.TotalValueLockedUSD
	dayData.TxCount = factory.TxCount

	if err := s.Save(dayData); err != nil {
		return nil, err
	}
	return dayData, nil
}

func (s *Subgraph) UpdateAlgebraHourData(meta *EventMeta, factory *entity.Factory) (*entity.AlgebraHourData, error) {
	hourID := entity.BucketID(meta.Timestamp, entity.HourSeconds)

	hourData := entity.NewAlgebraHourData(strconv.FormatUint(hourID, 10))
	if _, err := s.GetOrCreate(hourData, func() {
		hourData.Date = hourID * entity.HourSeconds
	}); err != nil {
		return nil, fmt.Errorf("loading algebra hour data: %w", err)
	}

	hourData.TvlUSD = factory.TotalValueLockedUSD
	hourData.TxCount = factory.TxCount

	if err := s.Save(hourData); err != nil {
		return nil, err
	}
	return hourData, nil
}

func (s *Subgraph) UpdatePoolDayData(meta *EventMeta, pool *entity.Pool) (*entity.PoolDayData, error) {
	dayID := entity.BucketID(meta.Timestamp, entity.DaySeconds)
	dayPoolID := entity.BucketEntityID(pool.ID, dayID)

	dayData := entity.NewPoolDayData(dayPoolID)
	if _, err := s.GetOrCreate(dayData, func() {
		dayData.Date = dayID * entity.DaySeconds
		dayData.Pool = pool.ID
		dayData.Seed(pool.Token0Price)
	}); err != nil {
		return nil, fmt.Errorf("loading pool day data %s: %w", dayPoolID, err)
	}

	dayData.Observe(pool.Token0Price)
	dayData.Liquidity = pool.Liquidity
	dayData.SqrtPrice = pool.SqrtPrice
	dayData.Token0Price = pool.Token0Price
	dayData.Token1Price = pool.Token1Price
	dayData.Tick = pool.Tick
	dayData.TvlUSD = pool.TotalValueLockedUSD
	dayData.TxCount = dayData.TxCount.AddInt64(1)

	if err := s.Save(dayData); err != nil {
		return nil, fmt.Errorf("saving pool day data %s: %w", dayPoolID, err)
	}
	return dayData, nil
}

func (s *Subgraph) UpdatePoolHourData(meta *EventMeta, pool *entity.Pool) (*entity.PoolHourData, error) {
	hourID := entity.BucketID(meta.Timestamp, entity.HourSeconds)
	hourPoolID := entity.BucketEntityID(pool.ID, hourID)

	hourData := entity.NewPoolHourData(hourPoolID)
	if _, err := s.GetOrCreate(hourData, func() {
		hourData.PeriodStartUnix = hourID * entity.HourSeconds
		hourData.Pool = pool.ID
		hourData.Seed(pool.Token0Price)
	}); err != nil {
		return nil, fmt.Errorf("loading pool hour data %s: %w", hourPoolID, err)
	}

	hourData.Observe(pool.Token0Price)
	hourData.Liquidity = pool.Liquidity
	hourData.SqrtPrice = pool.SqrtPrice
	hourData.Token0Price = pool.Token0Price
	hourData.Token1Price = pool.Token1Price
	hourData.Tick = pool.Tick
	hourData.TvlUSD = pool.TotalValueLockedUSD
	hourData.TxCount = hourData.TxCount.AddInt64(1)

	if err := s.Save(hourData); err != nil {
		return nil, fmt.Errorf("saving pool hour data %s: %w", hourPoolID, err)
	}
	return hourData, nil
}

func (s *Subgraph) UpdateTokenDayData(meta *EventMeta, token *entity.Token, bundle *entity.Bundle) (*entity.TokenDayData, error) {
	dayID := entity.BucketID(meta.Timestamp, entity.DaySeconds)
	tokenDayID := entity.BucketEntityID(token.ID, dayID)
	price := priceUSD(token, bundle)

	dayData := entity.NewTokenDayData(tokenDayID)
	if _, err := s.GetOrCreate(dayData, func() {
		dayData.Date = dayID * entity.DaySeconds
		dayData.Token = token.ID
		dayData.Seed(price)
	}); err != nil {
		return nil, fmt.Errorf("loading token day data %s: %w", tokenDayID, err)
	}

	dayData.Observe(price)
	dayData.PriceUSD = price
	dayData.TotalValueLocked = token.TotalValueLocked
	dayData.TotalValueLockedUSD = token.TotalValueLockedUSD

	if err := s.Save(dayData); err != nil {
		return nil, fmt.Errorf("saving token day data %s: %w", tokenDayID, err)
	}
	return dayData, nil
}

func (s *Subgraph) UpdateTokenHourData(meta *EventMeta, token *entity.Token, bundle *entity.Bundle) (*entity.TokenHourData, error) {
	hourID := entity.BucketID(meta.Timestamp, entity.HourSeconds)
	tokenHourID := entity.BucketEntityID(token.ID, hourID)
	price := priceUSD(token, bundle)

	hourData := entity.NewTokenHourData(tokenHourID)
	if _, err := s.GetOrCreate(hourData, func() {
		hourData.PeriodStartUnix = hourID * entity.HourSeconds
		hourData.Token = token.ID
		hourData.Seed(price)
	}); err != nil {
		return nil, fmt.Errorf("loading token hour data %s: %w", tokenHourID, err)
	}

	hourData.Observe(price)
	hourData.PriceUSD = price
	hourData.TotalValueLocked = token.TotalValueLocked
	hourData.TotalValueLockedUSD = token.TotalValueLockedUSD

	if err := s.Save(hourData); err != nil {
		return nil, fmt.Errorf("saving token hour data %s: %w", tokenHourID, err)
	}
	return hourData, nil
}

// UpdateFeeHourData records a fee change of pool in its hour bucket.
func (s *Subgraph) UpdateFeeHourData(meta *EventMeta, poolID string, fee entity.Int) (*entity.FeeHourData, error) {
	hourID := entity.BucketID(meta.Timestamp, entity.HourSeconds)
	hourFeeID := entity.BucketEntityID(poolID, hourID)

	feeData := entity.NewFeeHourData(hourFeeID)
	outcome, err := s.GetOrCreate(feeData, func() {
		feeData.Pool = poolID
		feeData.Fee = fee
		feeData.ChangesCount = entity.IL(1)
		feeData.StartFee = fee
		feeData.EndFee = fee
		feeData.MinFee = fee
		feeData.MaxFee = fee
	})
	if err != nil {
		return nil, fmt.Errorf("loading fee hour data %s: %w", hourFeeID, err)
	}

	feeData.Timestamp = hourID * entity.HourSeconds
	if outcome == Existing {
		feeData.Fee = feeData.Fee.Add(fee)
		feeData.ChangesCount = feeData.ChangesCount.AddInt64(1)
		if feeData.MaxFee.Cmp(fee) < 0 {
			feeData.MaxFee = fee
		}
		if feeData.MinFee.Cmp(fee) > 0 {
			feeData.MinFee = fee
		}
		feeData.EndFee = fee
	}

	if err := s.Save(feeData); err != nil {
		return nil, fmt.Errorf("saving fee hour data %s: %w", hourFeeID, err)
	}
	return feeData, nil
}

// poolRollups bundles the rollups touched by every liquidity or swap event.
type poolRollups struct {
	algebraDay  *entity.AlgebraDayData
	algebraHour *entity.AlgebraHourData
	poolDay     *entity.PoolDayData
	poolHour    *entity.PoolHourData
	token0Day   *entity.TokenDayData
	token1Day   *entity.TokenDayData
	token0Hour  *entity.TokenHourData
	token1Hour  *entity.TokenHourData
}

func (s *Subgraph) updateRollups(meta *EventMeta, factory *entity.Factory, pool *entity.Pool, token0, token1 *entity.Token, bundle *entity.Bundle) (*poolRollups, error) {
	out := &poolRollups{}
	var err error

	if out.algebraDay, err = s.UpdateAlgebraDayData(meta, factory); err != nil {
		return nil, err
	}
	if out.algebraHour, err = s.UpdateAlgebraHourData(meta, factory); err != nil {
		return nil, err
	}
	if out.poolDay, err = s.UpdatePoolDayData(meta, pool); err != nil {
		return nil, err
	}
	if out.poolHour, err = s.UpdatePoolHourData(meta, pool); err != nil {
		return nil, err
	}
	if out.token0Day, err = s.UpdateTokenDayData(meta, token0, bundle); err != nil {
		return nil, err
	}
	if out.token1Day, err = s.UpdateTokenDayData(meta, token1, bundle); err != nil {
		return nil, err
	}
	if out.token0Hour, err = s.UpdateTokenHourData(meta, token0, bundle); err != nil {
		return nil, err
	}
	if out.token1Hour, err = s.UpdateTokenHourData(meta, token1, bundle); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *poolRollups) entities() []entity.Interface {
	return []entity.Interface{r.algebraDay, r.algebraHour, r.poolDay, r.poolHour, r.token0Day, r.token1Day, r.token0Hour, r.token1Hour}
}
