package exchange

import (
	"fmt"

	"github.com/streamingfast/algebra-analytics/entity"
	"go.uber.org/zap"
)

func (s *Subgraph) HandleInitialize(ev *Initialize, bundle *entity.Bundle) error {
	pool, token0, token1, err := s.loadPoolTokens(ev.LogAddress.Pretty())
	if err != nil {
		return err
	}

	pool.SqrtPrice = entity.NewInt(ev.Price)
	pool.Tick = entity.IL(ev.Tick)
	pool.Token0Price, pool.Token1Price = sqrtPriceToTokenPrices(pool.SqrtPrice, token0, token1)
	if err := s.Save(pool); err != nil {
		return err
	}

	// the stable pool may just have been priced
	if bundle.NativePriceUSD, err = s.nativePriceUSD(); err != nil {
		return err
	}
	if err := s.Save(bundle); err != nil {
		return err
	}

	if _, err := s.UpdatePoolDayData(&ev.EventMeta, pool); err != nil {
		return err
	}
	if _, err := s.UpdatePoolHourData(&ev.EventMeta, pool); err != nil {
		return err
	}

	return s.repriceTokens(token0, token1, bundle)
}

// repriceTokens recomputes the derived native price of both tokens against
// the stored state, then saves them.
func (s *Subgraph) repriceTokens(token0, token1 *entity.Token, bundle *entity.Bundle) error {
	derived0, err := s.derivedNative(token0, bundle)
	if err != nil {
		return fmt.Errorf("pricing token %s: %w", token0.ID, err)
	}
	derived1, err := s.derivedNative(token1, bundle)
	if err != nil {
		return fmt.Errorf("pricing token %s: %w", token1.ID, err)
	}

	token0.DerivedNative = derived0
	token1.DerivedNative = derived1
	return s.SaveAll(token0, token1)
}

func (s *Subgraph) HandleCollect(ev *Collect, factory *entity.Factory) error {
	pool, token0, token1, err := s.loadPoolTokens(ev.LogAddress.Pretty())
	if err != nil {
		return err
	}

	factory.TxCount = factory.TxCount.AddInt64(1)
	token0.TxCount = token0.TxCount.AddInt64(1)
	token1.TxCount = token1.TxCount.AddInt64(1)
	pool.TxCount = pool.TxCount.AddInt64(1)

	return s.SaveAll(token0, token1, pool, factory)
}

func (s *Subgraph) HandleCommunityFee(ev *CommunityFee) error {
	pool := entity.NewPool(ev.LogAddress.Pretty())
	if err := s.Load(pool); err != nil {
		return err
	}
	if !pool.Exists() {
		s.Log.Debug("community fee for unknown pool", zap.String("pool", pool.ID))
		return nil
	}

	pool.CommunityFee = entity.IL(ev.CommunityFeeNew)
	return s.Save(pool)
}

func (s *Subgraph) HandleTickSpacing(ev *TickSpacing) error {
	pool := entity.NewPool(ev.LogAddress.Pretty())
	if err := s.LoadRequired(pool); err != nil {
		return err
	}

	pool.TickSpacing = entity.IL(ev.NewTickSpacing)
	return s.Save(pool)
}

func (s *Subgraph) HandleFee(ev *Fee) error {
	pool := entity.NewPool(ev.LogAddress.Pretty())
	if err := s.LoadRequired(pool); err != nil {
		return err
	}

	fee := entity.IL(ev.Fee)
	pool.Fee = fee
	if err := s.Save(pool); err != nil {
		return err
	}

	feeData := entity.NewPoolFeeData(fmt.Sprintf("%s-%d", pool.ID, ev.Timestamp))
	if _, err := s.GetOrCreate(feeData, func() {
		feeData.Pool = pool.ID
		feeData.Timestamp = ev.Timestamp
	}); err != nil {
		return err
	}
	feeData.Fee = fee

	if _, err := s.UpdateFeeHourData(&ev.EventMeta, pool.ID, fee); err != nil {
		return err
	}
	return s.Save(feeData)
}

func (s *Subgraph) HandlePlugin(ev *Plugin) error {
	pool := entity.NewPool(ev.LogAddress.Pretty())
	if err := s.LoadRequired(pool); err != nil {
		return err
	}

	pool.Plugin = ev.NewPluginAddress.Pretty()
	if err := s.Save(pool); err != nil {
		return err
	}
	if !pool.HasPlugin() {
		return nil
	}

	plugin := entity.NewPlugin(pool.Plugin)
	outcome, err := s.GetOrCreate(plugin, func() {
		plugin.Pool = pool.ID
	})
	if err != nil {
		return err
	}
	if outcome == Existing {
		return nil
	}
	return s.Save(plugin)
}

func (s *Subgraph) HandlePluginConfig(ev *PluginConfig) error {
	pool := entity.NewPool(ev.LogAddress.Pretty())
	if err := s.LoadRequired(pool); err != nil {
		return err
	}

	pool.PluginConfig = ev.NewPluginConfig
	return s.Save(pool)
}

func (s *Subgraph) HandleBurnFee(ev *BurnFee, cache *entity.BurnFeeCache) error {
	cache.PluginFee = entity.IL(ev.PluginFee)
	return s.Save(cache)
}

func (s *Subgraph) HandleSwapFee(ev *SwapFee, cache *entity.SwapFeeCache) error {
	cache.OverrideFee = entity.IL(ev.OverrideFee)
	cache.PluginFee = entity.IL(ev.PluginFee)
	return s.Save(cache)
}
