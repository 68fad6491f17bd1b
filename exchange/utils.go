package exchange

import (
	"github.com/shopspring/decimal"
	"github.com/streamingfast/algebra-analytics/entity"
)

// priceUSD is derivedNative expressed in USD.
func priceUSD(token *entity.Token, bundle *entity.Bundle) decimal.Decimal {
	return token.DerivedNative.Mul(bundle.NativePriceUSD)
}

func (s *Subgraph) isTrusted(token *entity.Token) bool {
	return s.Config.IsWhitelisted(token.ID) || s.Config.IsStableCoin(token.ID)
}

// trackedAmountUSD values both legs using only trusted tokens: both trusted
// sums them, a single trusted leg counts twice, no trusted leg is zero.
func (s *Subgraph) trackedAmountUSD(amount0 decimal.Decimal, token0 *entity.Token, amount1 decimal.Decimal, token1 *entity.Token, bundle *entity.Bundle) decimal.Decimal {
	value0 := amount0.Mul(priceUSD(token0, bundle))
	value1 := amount1.Mul(priceUSD(token1, bundle))

	trusted0 := s.isTrusted(token0)
	trusted1 := s.isTrusted(token1)

	switch {
	case trusted0 && trusted1:
		return value0.Add(value1)
	case trusted0:
		return value0.Mul(decimal.NewFromInt(2))
	case trusted1:
		return value1.Mul(decimal.NewFromInt(2))
	}
	return decimal.Zero
}

// amountUSD values both legs with the raw derived prices, trusted or not.
func amountUSD(amount0 decimal.Decimal, token0 *entity.Token, amount1 decimal.Decimal, token1 *entity.Token, bundle *entity.Bundle) decimal.Decimal {
	return amount0.Mul(priceUSD(token0, bundle)).Add(amount1.Mul(priceUSD(token1, bundle)))
}
