package exchange

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/streamingfast/algebra-analytics/entity"
	"go.uber.org/zap"
)

func poolPositionID(poolAddress, owner string, bottomTick, topTick int64) string {
	return fmt.Sprintf("%s#%s#%d#%d", poolAddress, owner, bottomTick, topTick)
}

// liquidityChange is the signed effect of a mint (positive) or a burn
// (negative) on the pool and token totals.
type liquidityChange struct {
	amount0    decimal.Decimal
	amount1    decimal.Decimal
	liquidity  entity.Int
	bottomTick int64
	topTick    int64
}

func (s *Subgraph) applyLiquidityChange(change *liquidityChange, factory *entity.Factory, pool *entity.Pool, token0, token1 *entity.Token, bundle *entity.Bundle) {
	// pool TVL is taken out of the factory, then added back once updated
	factory.TotalValueLockedNative = factory.TotalValueLockedNative.Sub(pool.TotalValueLockedNative)
	factory.TxCount = factory.TxCount.AddInt64(1)

	token0.TxCount = token0.TxCount.AddInt64(1)
	token0.TotalValueLocked = token0.TotalValueLocked.Add(change.amount0)
	token0.TotalValueLockedUSD = token0.TotalValueLocked.Mul(priceUSD(token0, bundle))

	token1.TxCount = token1.TxCount.AddInt64(1)
	token1.TotalValueLocked = token1.TotalValueLocked.Add(change.amount1)
	token1.TotalValueLockedUSD = token1.TotalValueLocked.Mul(priceUSD(token1, bundle))

	pool.TxCount = pool.TxCount.AddInt64(1)
	// only ranges containing the current tick are active
	if pool.ActiveRange(change.bottomTick, change.topTick) {
		pool.Liquidity = pool.Liquidity.Add(change.liquidity)
	}
	pool.TotalValueLockedToken0 = pool.TotalValueLockedToken0.Add(change.amount0)
	pool.TotalValueLockedToken1 = pool.TotalValueLockedToken1.Add(change.amount1)
	refreshPoolTVL(pool, token0, token1, bundle)

	factory.TotalValueLockedNative = factory.TotalValueLockedNative.Add(pool.TotalValueLockedNative)
	factory.TotalValueLockedUSD = factory.TotalValueLockedNative.Mul(bundle.NativePriceUSD)
}

func refreshPoolTVL(pool *entity.Pool, token0, token1 *entity.Token, bundle *entity.Bundle) {
	pool.TotalValueLockedNative = pool.TotalValueLockedToken0.Mul(token0.DerivedNative).
		Add(pool.TotalValueLockedToken1.Mul(token1.DerivedNative))
	pool.TotalValueLockedUSD = pool.TotalValueLockedNative.Mul(bundle.NativePriceUSD)
}

func (s *Subgraph) HandleMint(ev *Mint, factory *entity.Factory, bundle *entity.Bundle) error {
	poolAddress := ev.LogAddress.Pretty()
	pool, token0, token1, err := s.loadPoolTokens(poolAddress)
	if err != nil {
		return err
	}

	amount0 := entity.ConvertTokenToDecimal(ev.Amount0, token0.Decimals.Int64())
	amount1 := entity.ConvertTokenToDecimal(ev.Amount1, token1.Decimals.Int64())
	usd := amountUSD(amount0, token0, amount1, token1, bundle)
	liquidity := entity.NewInt(ev.LiquidityAmount)

	s.applyLiquidityChange(&liquidityChange{
		amount0:    amount0,
		amount1:    amount1,
		liquidity:  liquidity,
		bottomTick: ev.BottomTick,
		topTick:    ev.TopTick,
	}, factory, pool, token0, token1, bundle)

	trx, err := s.loadTransaction(&ev.EventMeta)
	if err != nil {
		return err
	}

	mint := entity.NewMint(recordID(&ev.EventMeta))
	mint.Transaction = trx.ID
	mint.Timestamp = trx.Timestamp
	mint.Pool = pool.ID
	mint.Token0 = pool.Token0
	mint.Token1 = pool.Token1
	mint.Owner = ev.Owner.Pretty()
	mint.Sender = ev.Sender.Pretty()
	mint.Origin = ev.From.Pretty()
	mint.Amount = liquidity
	mint.Amount0 = amount0
	mint.Amount1 = amount1
	mint.AmountUSD = usd
	mint.TickLower = entity.IL(ev.BottomTick)
	mint.TickUpper = entity.IL(ev.TopTick)
	mint.Reserves0 = pool.TotalValueLockedToken0
	mint.Reserves1 = pool.TotalValueLockedToken1
	mint.LogIndex = ev.LogIndex
	pool.LastMintIndex = ev.LogIndex

	lowerTick, err := s.loadOrCreateTick(pool, ev.BottomTick, &ev.EventMeta)
	if err != nil {
		return err
	}
	upperTick, err := s.loadOrCreateTick(pool, ev.TopTick, &ev.EventMeta)
	if err != nil {
		return err
	}
	applyTickLiquidity(lowerTick, upperTick, liquidity)

	owner := ev.Owner.Pretty()
	poolPosition := entity.NewPoolPosition(poolPositionID(pool.ID, owner, ev.BottomTick, ev.TopTick))
	outcome, err := s.GetOrCreate(poolPosition, func() {
		poolPosition.Pool = pool.ID
		poolPosition.Owner = owner
		poolPosition.LowerTick = lowerTick.ID
		poolPosition.UpperTick = upperTick.ID
	})
	if err != nil {
		return err
	}
	poolPosition.Liquidity = poolPosition.Liquidity.Add(liquidity)

	if _, err := s.updateRollups(&ev.EventMeta, factory, pool, token0, token1, bundle); err != nil {
		return err
	}

	if err := s.SaveAll(token0, token1, pool, poolPosition, factory, mint, lowerTick, upperTick); err != nil {
		return err
	}

	s.Log.Debug("mint handled",
		zap.String("pool", pool.ID),
		zap.String("owner", owner),
		zap.Int64("bottom_tick", ev.BottomTick),
		zap.Int64("top_tick", ev.TopTick),
		zap.Stringer("liquidity", liquidity),
		zap.Stringer("pool_position", outcome),
	)
	return nil
}

func (s *Subgraph) HandleBurn(ev *Burn, factory *entity.Factory, bundle *entity.Bundle, burnFee *entity.BurnFeeCache) error {
	poolAddress := ev.LogAddress.Pretty()
	pool, token0, token1, err := s.loadPoolTokens(poolAddress)
	if err != nil {
		return err
	}

	amount0 := entity.ConvertTokenToDecimal(ev.Amount0, token0.Decimals.Int64())
	amount1 := entity.ConvertTokenToDecimal(ev.Amount1, token1.Decimals.Int64())
	usd := amountUSD(amount0, token0, amount1, token1, bundle)
	liquidity := entity.NewInt(ev.LiquidityAmount)

	plugin, err := s.loadPlugin(pool)
	if err != nil {
		return err
	}
	if plugin != nil {
		plugin.CollectedFeesToken0 = plugin.CollectedFeesToken0.Add(entity.ApplyFeeRate(amount0, burnFee.PluginFee))
		plugin.CollectedFeesToken1 = plugin.CollectedFeesToken1.Add(entity.ApplyFeeRate(amount1, burnFee.PluginFee))
		plugin.CollectedFeesUSD = plugin.CollectedFeesUSD.Add(entity.ApplyFeeRate(usd, burnFee.PluginFee))
		if err := s.Save(plugin); err != nil {
			return err
		}
	}

	s.applyLiquidityChange(&liquidityChange{
		amount0:    amount0.Neg(),
		amount1:    amount1.Neg(),
		liquidity:  entity.NewInt(new(big.Int).Neg(liquidity.Int())),
		bottomTick: ev.BottomTick,
		topTick:    ev.TopTick,
	}, factory, pool, token0, token1, bundle)

	trx, err := s.loadTransaction(&ev.EventMeta)
	if err != nil {
		return err
	}

	burn := entity.NewBurn(recordID(&ev.EventMeta))
	burn.Transaction = trx.ID
	burn.Timestamp = trx.Timestamp
	burn.Pool = pool.ID
	burn.Token0 = pool.Token0
	burn.Token1 = pool.Token1
	burn.Owner = ev.Owner.Pretty()
	burn.Origin = ev.From.Pretty()
	burn.Amount = liquidity
	burn.Amount0 = amount0
	burn.Amount1 = amount1
	burn.AmountUSD = usd
	burn.TickLower = entity.IL(ev.BottomTick)
	burn.TickUpper = entity.IL(ev.TopTick)
	burn.Reserves0 = pool.TotalValueLockedToken0
	burn.Reserves1 = pool.TotalValueLockedToken1
	burn.LogIndex = ev.LogIndex

	lowerTick, err := s.loadExistingTick(pool, ev.BottomTick)
	if err != nil {
		return err
	}
	upperTick, err := s.loadExistingTick(pool, ev.TopTick)
	if err != nil {
		return err
	}
	applyTickLiquidity(lowerTick, upperTick, entity.NewInt(new(big.Int).Neg(liquidity.Int())))

	owner := ev.Owner.Pretty()
	poolPosition := entity.NewPoolPosition(poolPositionID(pool.ID, owner, ev.BottomTick, ev.TopTick))
	if err := s.Load(poolPosition); err != nil {
		return err
	}
	if poolPosition.Exists() {
		poolPosition.Liquidity = poolPosition.Liquidity.Sub(liquidity)
		if err := s.Save(poolPosition); err != nil {
			return err
		}
	}

	if _, err := s.updateRollups(&ev.EventMeta, factory, pool, token0, token1, bundle); err != nil {
		return err
	}

	if err := s.SaveAll(token0, token1, pool, factory, burn, lowerTick, upperTick); err != nil {
		return err
	}

	s.Log.Debug("burn handled",
		zap.String("pool", pool.ID),
		zap.String("owner", owner),
		zap.Int64("bottom_tick", ev.BottomTick),
		zap.Int64("top_tick", ev.TopTick),
		zap.Stringer("liquidity", liquidity),
		zap.Bool("plugin_credited", plugin != nil),
	)
	return nil
}
