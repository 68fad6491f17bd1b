package exchange

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type PricingStrategy string

const (
	PricingSingleHop        PricingStrategy = "single-hop"
	PricingDeepestLiquidity PricingStrategy = "deepest-liquidity"
	PricingMultiHop         PricingStrategy = "multi-hop"
)

const DefaultMaxHops = 3

func ParsePricingStrategy(in string) (PricingStrategy, error) {
	switch PricingStrategy(in) {
	case "":
		return PricingSingleHop, nil
	case PricingSingleHop, PricingDeepestLiquidity, PricingMultiHop:
		return PricingStrategy(in), nil
	}
	return "", fmt.Errorf("unknown pricing strategy %q", in)
}

// Config is the per deployment input of the engine. Addresses are lowercase
// 0x prefixed hex.
type Config struct {
	FactoryAddress         string
	PositionManagerAddress string

	// ReferenceToken is the wrapped native asset, root of the pricing graph.
	ReferenceToken string
	// StableTokenPool prices the native asset in USD.
	StableTokenPool string

	MinimumNativeLocked decimal.Decimal
	WhitelistTokens     []string
	StableCoins         []string

	PricingStrategy PricingStrategy
	MaxHops         int

	whitelist map[string]bool
	stable    map[string]bool
}

func (c *Config) index() {
	c.whitelist = make(map[string]bool, len(c.WhitelistTokens))
	for _, addr := range c.WhitelistTokens {
		c.whitelist[addr] = true
	}
	c.stable = make(map[string]bool, len(c.StableCoins))
	for _, addr := range c.StableCoins {
		c.stable[addr] = true
	}
	if c.PricingStrategy == "" {
		c.PricingStrategy = PricingSingleHop
	}
	if c.MaxHops <= 0 {
		c.MaxHops = DefaultMaxHops
	}
}

func (c *Config) IsWhitelisted(token string) bool {
	if c.whitelist == nil {
		c.index()
	}
	return c.whitelist[token]
}

func (c *Config) IsStableCoin(token string) bool {
	if c.stable == nil {
		c.index()
	}
	return c.stable[token]
}
