package exchange

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/streamingfast/algebra-analytics/entity"
)

// tickPowPrecision bounds the intermediate rounding of 1.0001^tick.
const tickPowPrecision int32 = 40

var tickBase = decimal.RequireFromString("1.0001")

func tickID(poolAddress string, tick int64) string {
	return fmt.Sprintf("%s#%d", poolAddress, tick)
}

// tickToPrice returns 1.0001^tick.
func tickToPrice(tick int64) decimal.Decimal {
	n := tick
	if n < 0 {
		n = -n
	}

	result := entity.OneDecimal
	base := tickBase
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(tickPowPrecision)
		}
		base = base.Mul(base).Round(tickPowPrecision)
		n >>= 1
	}

	if tick < 0 {
		return entity.SafeDiv(entity.OneDecimal, result)
	}
	return entity.RoundPrice(result)
}

func newTick(pool *entity.Pool, tick int64, meta *EventMeta) *entity.Tick {
	t := entity.NewTick(tickID(pool.ID, tick))
	t.PoolAddress = pool.ID
	t.Pool = pool.ID
	t.TickIdx = entity.IL(tick)
	t.Price0 = tickToPrice(tick)
	t.Price1 = entity.SafeDiv(entity.OneDecimal, t.Price0)
	t.CreatedAtTimestamp = meta.Timestamp
	t.CreatedAtBlockNumber = meta.BlockNumber
	return t
}

// loadOrCreateTick is used on mint, the only event allowed to create ticks.
func (s *Subgraph) loadOrCreateTick(pool *entity.Pool, tick int64, meta *EventMeta) (*entity.Tick, error) {
	t := newTick(pool, tick, meta)
	if _, err := s.GetOrCreate(t, nil); err != nil {
		return nil, fmt.Errorf("loading tick %s: %w", t.ID, err)
	}
	return t, nil
}

func (s *Subgraph) loadExistingTick(pool *entity.Pool, tick int64) (*entity.Tick, error) {
	t := entity.NewTick(tickID(pool.ID, tick))
	if err := s.LoadRequired(t); err != nil {
		return nil, err
	}
	return t, nil
}

// applyTickLiquidity moves the boundary ticks of a range by delta, delta
// being negative on burn. The lower tick nets +delta, the upper one -delta.
func applyTickLiquidity(lower, upper *entity.Tick, delta entity.Int) {
	lower.LiquidityGross = lower.LiquidityGross.Add(delta)
	lower.LiquidityNet = lower.LiquidityNet.Add(delta)
	upper.LiquidityGross = upper.LiquidityGross.Add(delta)
	upper.LiquidityNet = upper.LiquidityNet.Sub(delta)
}
