// Package manifest loads the per deployment configuration of the engine.
package manifest

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/streamingfast/algebra-analytics/exchange"
	"github.com/streamingfast/algebra-analytics/tokens"
	"gopkg.in/yaml.v3"
)

type Deployment struct {
	Description string `yaml:"description"`

	Factory             string   `yaml:"factory"`
	PositionManager     string   `yaml:"position_manager"`
	ReferenceToken      string   `yaml:"reference_token"`
	StableTokenPool     string   `yaml:"stable_token_pool"`
	MinimumNativeLocked string   `yaml:"minimum_native_locked"`
	WhitelistTokens     []string `yaml:"whitelist_tokens"`
	StableCoins         []string `yaml:"stable_coins"`

	// Auxiliary contracts, carried for completeness.
	Farming    string `yaml:"farming"`
	LimitOrder string `yaml:"limit_order"`

	StaticTokens []StaticToken `yaml:"static_tokens"`
	Pricing      Pricing       `yaml:"pricing"`
	Store        Store         `yaml:"store"`
	NATS         NATS          `yaml:"nats"`
	RPC          RPC           `yaml:"rpc"`

	minimumNativeLocked decimal.Decimal
	pricingStrategy     exchange.PricingStrategy
}

type StaticToken struct {
	Address     string `yaml:"address"`
	Symbol      string `yaml:"symbol"`
	Name        string `yaml:"name"`
	Decimals    int64  `yaml:"decimals"`
	TotalSupply string `yaml:"total_supply"`
}

type Pricing struct {
	Strategy string `yaml:"strategy"`
	MaxHops  int    `yaml:"max_hops"`
}

type Store struct {
	Kind      string `yaml:"kind"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
	Redis     Redis  `yaml:"redis"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type NATS struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type RPC struct {
	Endpoint string `yaml:"endpoint"`
}

const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreRedis  = "redis"
)

func LoadFile(path string) (*Deployment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest file %q: %w", path, err)
	}

	deployment, err := Decode(content)
	if err != nil {
		return nil, fmt.Errorf("decoding manifest file %q: %w", path, err)
	}
	return deployment, nil
}

func Decode(content []byte) (*Deployment, error) {
	var deployment *Deployment
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&deployment); err != nil {
		return nil, fmt.Errorf("decoding manifest content: %w", err)
	}
	if deployment == nil {
		return nil, fmt.Errorf("empty manifest")
	}

	if err := deployment.Validate(); err != nil {
		return nil, err
	}
	return deployment, nil
}

// Validate normalizes every address to lowercase and checks the deployment
// is usable.
func (d *Deployment) Validate() error {
	var err error
	required := []struct {
		name  string
		value *string
	}{
		{"factory", &d.Factory},
		{"position_manager", &d.PositionManager},
		{"reference_token", &d.ReferenceToken},
		{"stable_token_pool", &d.StableTokenPool},
	}
	for _, field := range required {
		if *field.value, err = normalizeAddress(*field.value); err != nil {
			return fmt.Errorf("invalid %s: %w", field.name, err)
		}
	}

	for _, field := range []*string{&d.Farming, &d.LimitOrder} {
		if *field == "" {
			continue
		}
		if *field, err = normalizeAddress(*field); err != nil {
			return fmt.Errorf("invalid auxiliary address: %w", err)
		}
	}

	if d.WhitelistTokens, err = normalizeList("whitelist_tokens", d.WhitelistTokens); err != nil {
		return err
	}
	if d.StableCoins, err = normalizeList("stable_coins", d.StableCoins); err != nil {
		return err
	}

	for i := range d.StaticTokens {
		static := &d.StaticTokens[i]
		if static.Address, err = normalizeAddress(static.Address); err != nil {
			return fmt.Errorf("invalid static token %d: %w", i, err)
		}
		if static.Decimals < 0 || static.Decimals > 255 {
			return fmt.Errorf("invalid static token %s: decimals %d out of range", static.Address, static.Decimals)
		}
		if static.TotalSupply != "" {
			if _, ok := new(big.Int).SetString(static.TotalSupply, 10); !ok {
				return fmt.Errorf("invalid static token %s: total supply %q", static.Address, static.TotalSupply)
			}
		}
	}

	d.minimumNativeLocked = decimal.Zero
	if d.MinimumNativeLocked != "" {
		if d.minimumNativeLocked, err = decimal.NewFromString(d.MinimumNativeLocked); err != nil {
			return fmt.Errorf("invalid minimum_native_locked %q: %w", d.MinimumNativeLocked, err)
		}
	}
	if d.minimumNativeLocked.IsNegative() {
		return fmt.Errorf("minimum_native_locked must not be negative")
	}

	if d.pricingStrategy, err = exchange.ParsePricingStrategy(d.Pricing.Strategy); err != nil {
		return err
	}
	if d.Pricing.MaxHops < 0 {
		return fmt.Errorf("pricing max_hops must not be negative")
	}

	switch d.Store.Kind {
	case "":
		d.Store.Kind = StoreMemory
	case StoreMemory, StoreBadger, StoreRedis:
	default:
		return fmt.Errorf("unknown store kind %q", d.Store.Kind)
	}

	return nil
}

func (d *Deployment) ExchangeConfig() *exchange.Config {
	return &exchange.Config{
		FactoryAddress:         d.Factory,
		PositionManagerAddress: d.PositionManager,
		ReferenceToken:         d.ReferenceToken,
		StableTokenPool:        d.StableTokenPool,
		MinimumNativeLocked:    d.minimumNativeLocked,
		WhitelistTokens:        append([]string(nil), d.WhitelistTokens...),
		StableCoins:            append([]string(nil), d.StableCoins...),
		PricingStrategy:        d.pricingStrategy,
		MaxHops:                d.Pricing.MaxHops,
	}
}

func (d *Deployment) StaticTokenInfos() []*tokens.Info {
	out := make([]*tokens.Info, 0, len(d.StaticTokens))
	for _, static := range d.StaticTokens {
		supply := new(big.Int)
		if static.TotalSupply != "" {
			supply.SetString(static.TotalSupply, 10)
		}
		out = append(out, &tokens.Info{
			Address:     static.Address,
			Symbol:      static.Symbol,
			Name:        static.Name,
			Decimals:    static.Decimals,
			TotalSupply: supply,
		})
	}
	return out
}

func normalizeList(name string, in []string) ([]string, error) {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, addr := range in {
		normalized, err := normalizeAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry: %w", name, err)
		}
		if seen[normalized] {
			return nil, fmt.Errorf("duplicate %s entry %s", name, normalized)
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out, nil
}

func normalizeAddress(in string) (string, error) {
	addr := strings.ToLower(strings.TrimSpace(in))
	if !strings.HasPrefix(addr, "0x") {
		return "", fmt.Errorf("address %q must be 0x prefixed", in)
	}
	raw, err := hex.DecodeString(addr[2:])
	if err != nil || len(raw) != 20 {
		return "", fmt.Errorf("address %q is not 20 bytes of hex", in)
	}
	return addr, nil
}
