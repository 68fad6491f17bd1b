package exchange

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/streamingfast/algebra-analytics/entity"
)

var q192 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 192), 0)

// sqrtPriceToTokenPrices turns a Q64.96 sqrt price into the decimal adjusted
// prices of each token expressed in the other one.
func sqrtPriceToTokenPrices(sqrtPrice entity.Int, token0, token1 *entity.Token) (token0Price, token1Price decimal.Decimal) {
	sqrt := sqrtPrice.Decimal()
	num := sqrt.Mul(sqrt).Mul(entity.ExponentToDecimal(token0.Decimals.Int64()))
	denom := q192.Mul(entity.ExponentToDecimal(token1.Decimals.Int64()))

	price1 := entity.SafeDiv(num, denom)
	price0 := entity.SafeDiv(entity.OneDecimal, price1)
	return entity.RoundPrice(price0), entity.RoundPrice(price1)
}

// nativePriceUSD reads the USD price of the reference token off the stable
// pool. Zero until that pool exists.
func (s *Subgraph) nativePriceUSD() (decimal.Decimal, error) {
	pool := entity.NewPool(s.Config.StableTokenPool)
	if err := s.Load(pool); err != nil {
		return decimal.Zero, fmt.Errorf("loading stable pool: %w", err)
	}
	if !pool.Exists() {
		return decimal.Zero, nil
	}

	if pool.Token0 == s.Config.ReferenceToken {
		return pool.Token1Price, nil
	}
	return pool.Token0Price, nil
}

// derivedNative prices token in units of the reference token, walking the
// pools registered in token.WhitelistPools. Zero when no pool qualifies.
func (s *Subgraph) derivedNative(token *entity.Token, bundle *entity.Bundle) (decimal.Decimal, error) {
	visited := map[string]bool{}
	price, err := s.resolveDerivedNative(token, bundle, 0, visited)
	if err != nil {
		return decimal.Zero, err
	}
	return entity.RoundPrice(price), nil
}

func (s *Subgraph) resolveDerivedNative(token *entity.Token, bundle *entity.Bundle, depth int, visited map[string]bool) (decimal.Decimal, error) {
	if token.ID == s.Config.ReferenceToken {
		return entity.OneDecimal, nil
	}
	if s.Config.IsStableCoin(token.ID) && !bundle.NativePriceUSD.IsZero() {
		return entity.SafeDiv(entity.OneDecimal, bundle.NativePriceUSD), nil
	}
	visited[token.ID] = true

	var (
		best       decimal.Decimal
		bestLocked decimal.Decimal
		found      bool
	)

	for _, poolID := range token.WhitelistPools {
		pool := entity.NewPool(poolID)
		if err := s.LoadRequired(pool); err != nil {
			return decimal.Zero, fmt.Errorf("loading whitelist pool of token %s: %w", token.ID, err)
		}

		counterID, counterTVL, price := pool.Token1, pool.TotalValueLockedToken1, pool.Token1Price
		if pool.Token1 == token.ID {
			counterID, counterTVL, price = pool.Token0, pool.TotalValueLockedToken0, pool.Token0Price
		}

		counter := entity.NewToken(counterID)
		if err := s.LoadRequired(counter); err != nil {
			return decimal.Zero, fmt.Errorf("loading counter token of pool %s: %w", poolID, err)
		}

		counterDerived := counter.DerivedNative
		if counterID == s.Config.ReferenceToken {
			counterDerived = entity.OneDecimal
		} else if s.Config.PricingStrategy == PricingMultiHop && depth+1 < s.Config.MaxHops && !visited[counterID] {
			resolved, err := s.resolveDerivedNative(counter, bundle, depth+1, visited)
			if err != nil {
				return decimal.Zero, err
			}
			counterDerived = resolved
		}

		nativeLocked := counterTVL.Mul(counterDerived)
		if !nativeLocked.IsPositive() || nativeLocked.LessThan(s.Config.MinimumNativeLocked) {
			continue
		}

		candidate := price.Mul(counterDerived)
		if s.Config.PricingStrategy != PricingDeepestLiquidity {
			return candidate, nil
		}
		if !found || nativeLocked.GreaterThan(bestLocked) {
			best, bestLocked, found = candidate, nativeLocked, true
		}
	}

	if !found {
		return decimal.Zero, nil
	}
	return best, nil
}
