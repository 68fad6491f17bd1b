package exchange

import (
	"github.com/shopspring/decimal"
	"github.com/streamingfast/algebra-analytics/entity"
	"go.uber.org/zap"
)

func (s *Subgraph) HandleSwap(ev *Swap, factory *entity.Factory, bundle *entity.Bundle, feeCache *entity.SwapFeeCache) error {
	pool, token0, token1, err := s.loadPoolTokens(ev.LogAddress.Pretty())
	if err != nil {
		return err
	}

	amount0 := entity.ConvertTokenToDecimal(ev.Amount0, token0.Decimals.Int64())
	amount1 := entity.ConvertTokenToDecimal(ev.Amount1, token1.Decimals.Int64())

	swapFee := pool.Fee
	if feeCache.OverrideFee.Sign() > 0 {
		swapFee = feeCache.OverrideFee
		pool.OverrideFee = feeCache.OverrideFee
	}
	pluginFee := feeCache.PluginFee

	// the received side enters the TVL net of swap and plugin fees
	netRate := entity.IL(entity.FeeDenominator).Sub(swapFee.Add(pluginFee))
	amount0Abs, amount0WithFee := swapLeg(amount0, netRate)
	amount1Abs, amount1WithFee := swapLeg(amount1, netRate)

	amount0USD := amount0Abs.Mul(priceUSD(token0, bundle))
	amount1USD := amount1Abs.Mul(priceUSD(token1, bundle))

	// both legs describe the same trade
	trackedUSD := entity.Half(s.trackedAmountUSD(amount0Abs, token0, amount1Abs, token1, bundle))
	trackedNative := entity.SafeDiv(trackedUSD, bundle.NativePriceUSD)
	untrackedUSD := entity.Half(amount0USD.Add(amount1USD))

	feesNative := entity.ApplyFeeRate(trackedNative, swapFee)
	feesUSD := entity.ApplyFeeRate(trackedUSD, swapFee)
	untrackedFees := entity.ApplyFeeRate(untrackedUSD, swapFee)

	factory.TxCount = factory.TxCount.AddInt64(1)
	factory.TotalVolumeNative = factory.TotalVolumeNative.Add(trackedNative)
	factory.TotalVolumeUSD = factory.TotalVolumeUSD.Add(trackedUSD)
	factory.UntrackedVolumeUSD = factory.UntrackedVolumeUSD.Add(untrackedUSD)
	factory.TotalFeesNative = factory.TotalFeesNative.Add(feesNative)
	factory.TotalFeesUSD = factory.TotalFeesUSD.Add(feesUSD)
	factory.TotalValueLockedNative = factory.TotalValueLockedNative.Sub(pool.TotalValueLockedNative)

	pool.VolumeToken0 = pool.VolumeToken0.Add(amount0Abs)
	pool.VolumeToken1 = pool.VolumeToken1.Add(amount1Abs)
	pool.VolumeUSD = pool.VolumeUSD.Add(trackedUSD)
	pool.UntrackedVolumeUSD = pool.UntrackedVolumeUSD.Add(untrackedUSD)
	pool.FeesUSD = pool.FeesUSD.Add(feesUSD)
	pool.UntrackedFeesUSD = pool.UntrackedFeesUSD.Add(untrackedFees)
	pool.TxCount = pool.TxCount.AddInt64(1)

	// post swap values are authoritative
	pool.Liquidity = entity.NewInt(ev.Liquidity)
	pool.Tick = entity.IL(ev.Tick)
	pool.SqrtPrice = entity.NewInt(ev.Price)
	pool.TotalValueLockedToken0 = pool.TotalValueLockedToken0.Add(amount0WithFee)
	pool.TotalValueLockedToken1 = pool.TotalValueLockedToken1.Add(amount1WithFee)

	updateSwapToken(token0, amount0Abs, amount0WithFee, trackedUSD, untrackedUSD, feesUSD)
	updateSwapToken(token1, amount1Abs, amount1WithFee, trackedUSD, untrackedUSD, feesUSD)

	pool.Token0Price, pool.Token1Price = sqrtPriceToTokenPrices(pool.SqrtPrice, token0, token1)

	plugin, err := s.loadPlugin(pool)
	if err != nil {
		return err
	}
	if plugin != nil {
		if amount0.IsNegative() {
			plugin.CollectedFeesToken1 = plugin.CollectedFeesToken1.Add(entity.ApplyFeeRate(amount1, pluginFee))
		} else {
			plugin.CollectedFeesToken0 = plugin.CollectedFeesToken0.Add(entity.ApplyFeeRate(amount0, pluginFee))
		}
		plugin.CollectedFeesUSD = plugin.CollectedFeesUSD.Add(entity.ApplyFeeRate(trackedUSD, pluginFee))
		if err := s.Save(plugin); err != nil {
			return err
		}
	}

	// pricing reads the pool back from the store
	if err := s.Save(pool); err != nil {
		return err
	}

	if bundle.NativePriceUSD, err = s.nativePriceUSD(); err != nil {
		return err
	}
	if err := s.Save(bundle); err != nil {
		return err
	}
	if err := s.repriceTokens(token0, token1, bundle); err != nil {
		return err
	}

	// current TVL is repriced with the new rates
	refreshPoolTVL(pool, token0, token1, bundle)
	factory.TotalValueLockedNative = factory.TotalValueLockedNative.Add(pool.TotalValueLockedNative)
	factory.TotalValueLockedUSD = factory.TotalValueLockedNative.Mul(bundle.NativePriceUSD)
	token0.TotalValueLockedUSD = token0.TotalValueLocked.Mul(priceUSD(token0, bundle))
	token1.TotalValueLockedUSD = token1.TotalValueLocked.Mul(priceUSD(token1, bundle))

	trx, err := s.loadTransaction(&ev.EventMeta)
	if err != nil {
		return err
	}

	swap := entity.NewSwap(recordID(&ev.EventMeta))
	swap.Transaction = trx.ID
	swap.Timestamp = trx.Timestamp
	swap.Pool = pool.ID
	swap.Token0 = pool.Token0
	swap.Token1 = pool.Token1
	swap.Sender = ev.Sender.Pretty()
	swap.Recipient = ev.Recipient.Pretty()
	swap.Origin = ev.From.Pretty()
	swap.Liquidity = entity.NewInt(ev.Liquidity)
	swap.Amount0 = amount0
	swap.Amount1 = amount1
	swap.AmountUSD = trackedUSD
	swap.Tick = entity.IL(ev.Tick)
	swap.Price = entity.NewInt(ev.Price)
	swap.Reserves0 = pool.TotalValueLockedToken0
	swap.Reserves1 = pool.TotalValueLockedToken1
	swap.LogIndex = ev.LogIndex

	rollups, err := s.updateRollups(&ev.EventMeta, factory, pool, token0, token1, bundle)
	if err != nil {
		return err
	}

	// swap fees are charged on the side paid into the pool
	if amount0.IsNegative() {
		fee := entity.ApplyFeeRate(amount1, swapFee)
		pool.FeesToken1 = pool.FeesToken1.Add(fee)
		rollups.poolDay.FeesToken1 = rollups.poolDay.FeesToken1.Add(fee)
	}
	if amount1.IsNegative() {
		fee := entity.ApplyFeeRate(amount0, swapFee)
		pool.FeesToken0 = pool.FeesToken0.Add(fee)
		rollups.poolDay.FeesToken0 = rollups.poolDay.FeesToken0.Add(fee)
	}

	addAlgebraVolume(rollups, trackedNative, trackedUSD, untrackedUSD, feesUSD)
	addPoolVolume(rollups, amount0Abs, amount1Abs, trackedUSD, untrackedUSD, feesUSD)
	addTokenVolume(rollups, amount0Abs, amount1Abs, trackedUSD, untrackedUSD, feesUSD)

	if err := s.Save(swap); err != nil {
		return err
	}
	if err := s.SaveAll(rollups.entities()...); err != nil {
		return err
	}
	if err := s.SaveAll(factory, pool, token0, token1); err != nil {
		return err
	}

	s.Log.Debug("swap handled",
		zap.String("pool", pool.ID),
		zap.Stringer("amount0", amount0),
		zap.Stringer("amount1", amount1),
		zap.Stringer("amount_usd", trackedUSD),
		zap.Int64("tick", ev.Tick),
	)
	return nil
}

// swapLeg returns the volume of one side and the amount it adds to the TVL.
// A negative amount is paid out by the pool and carries no fee.
func swapLeg(amount decimal.Decimal, netRate entity.Int) (abs, withFee decimal.Decimal) {
	if amount.IsNegative() {
		return amount.Neg(), amount
	}
	return amount, entity.ApplyFeeRate(amount, netRate)
}

func updateSwapToken(token *entity.Token, volume, tvlDelta, trackedUSD, untrackedUSD, feesUSD decimal.Decimal) {
	token.Volume = token.Volume.Add(volume)
	token.TotalValueLocked = token.TotalValueLocked.Add(tvlDelta)
	token.VolumeUSD = token.VolumeUSD.Add(trackedUSD)
	token.UntrackedVolumeUSD = token.UntrackedVolumeUSD.Add(untrackedUSD)
	token.FeesUSD = token.FeesUSD.Add(feesUSD)
	token.TxCount = token.TxCount.AddInt64(1)
}

func addAlgebraVolume(r *poolRollups, trackedNative, trackedUSD, untrackedUSD, feesUSD decimal.Decimal) {
	r.algebraDay.VolumeNative = r.algebraDay.VolumeNative.Add(trackedNative)
	r.algebraDay.VolumeUSD = r.algebraDay.VolumeUSD.Add(trackedUSD)
	r.algebraDay.VolumeUSDUntracked = r.algebraDay.VolumeUSDUntracked.Add(untrackedUSD)
	r.algebraDay.FeesUSD = r.algebraDay.FeesUSD.Add(feesUSD)

	r.algebraHour.VolumeNative = r.algebraHour.VolumeNative.Add(trackedNative)
	r.algebraHour.VolumeUSD = r.algebraHour.VolumeUSD.Add(trackedUSD)
	r.algebraHour.VolumeUSDUntracked = r.algebraHour.VolumeUSDUntracked.Add(untrackedUSD)
	r.algebraHour.FeesUSD = r.algebraHour.FeesUSD.Add(feesUSD)
}

func addPoolVolume(r *poolRollups, volume0, volume1, trackedUSD, untrackedUSD, feesUSD decimal.Decimal) {
	r.poolDay.VolumeUSD = r.poolDay.VolumeUSD.Add(trackedUSD)
	r.poolDay.UntrackedVolumeUSD = r.poolDay.UntrackedVolumeUSD.Add(untrackedUSD)
	r.poolDay.VolumeToken0 = r.poolDay.VolumeToken0.Add(volume0)
	r.poolDay.VolumeToken1 = r.poolDay.VolumeToken1.Add(volume1)
	r.poolDay.FeesUSD = r.poolDay.FeesUSD.Add(feesUSD)

	r.poolHour.VolumeUSD = r.poolHour.VolumeUSD.Add(trackedUSD)
	r.poolHour.UntrackedVolumeUSD = r.poolHour.UntrackedVolumeUSD.Add(untrackedUSD)
	r.poolHour.VolumeToken0 = r.poolHour.VolumeToken0.Add(volume0)
	r.poolHour.VolumeToken1 = r.poolHour.VolumeToken1.Add(volume1)
	r.poolHour.FeesUSD = r.poolHour.FeesUSD.Add(feesUSD)
}

func addTokenVolume(r *poolRollups, volume0, volume1, trackedUSD, untrackedUSD, feesUSD decimal.Decimal) {
	for _, day := range []struct {
		data   *entity.TokenDayData
		volume decimal.Decimal
	}{{r.token0Day, volume0}, {r.token1Day, volume1}} {
		day.data.Volume = day.data.Volume.Add(day.volume)
		day.data.VolumeUSD = day.data.VolumeUSD.Add(trackedUSD)
		day.data.UntrackedVolumeUSD = day.data.UntrackedVolumeUSD.Add(untrackedUSD)
		day.data.FeesUSD = day.data.FeesUSD.Add(feesUSD)
	}

	for _, hour := range []struct {
		data   *entity.TokenHourData
		volume decimal.Decimal
	}{{r.token0Hour, volume0}, {r.token1Hour, volume1}} {
		hour.data.Volume = hour.data.Volume.Add(hour.volume)
		hour.data.VolumeUSD = hour.data.VolumeUSD.Add(trackedUSD)
		hour.data.UntrackedVolumeUSD = hour.data.UntrackedVolumeUSD.Add(untrackedUSD)
		hour.data.FeesUSD = hour.data.FeesUSD.Add(feesUSD)
	}
}
