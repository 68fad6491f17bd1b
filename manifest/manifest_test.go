package manifest

import (
	"testing"

	"github.com/streamingfast/algebra-analytics/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Deployments(t *testing.T) {
	qs, err := LoadFile("../deployments/qs-base.yaml")
	require.NoError(t, err)

	assert.Equal(t, "0xc5396866754799b9720125b104ae01d935ab9c7b", qs.Factory)
	assert.Equal(t, StoreBadger, qs.Store.Kind)
	assert.Len(t, qs.WhitelistTokens, 4)
	assert.Equal(t, "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", qs.WhitelistTokens[1])

	cfg := qs.ExchangeConfig()
	assert.Equal(t, exchange.PricingSingleHop, cfg.PricingStrategy)
	assert.True(t, cfg.MinimumNativeLocked.IsZero())
	assert.True(t, cfg.IsStableCoin("0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"))
	assert.True(t, cfg.IsWhitelisted("0x4200000000000000000000000000000000000006"))

	lynex, err := LoadFile("../deployments/lynex-tac.yaml")
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, lynex.Store.Kind)
	assert.Equal(t, "40000", lynex.ExchangeConfig().MinimumNativeLocked.String())
	assert.Equal(t, exchange.PricingDeepestLiquidity, lynex.ExchangeConfig().PricingStrategy)
}

const validManifest = `
factory: "0x0000000000000000000000000000000000000001"
position_manager: "0x0000000000000000000000000000000000000002"
reference_token: "0x0000000000000000000000000000000000000003"
stable_token_pool: "0x0000000000000000000000000000000000000004"
`

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		extra       string
		expectedErr string
	}{
		{name: "minimal"},
		{
			name:  "static tokens",
			extra: "static_tokens:\n  - {address: \"0x00000000000000000000000000000000000000AA\", symbol: WTARA, name: Wrapped Taraxa, decimals: 18, total_supply: \"1000\"}\n",
		},
		{
			name:        "duplicate whitelist",
			extra:       "whitelist_tokens: [\"0x0000000000000000000000000000000000000003\", \"0x0000000000000000000000000000000000000003\"]\n",
			expectedErr: "duplicate whitelist_tokens entry",
		},
		{
			name:        "short address",
			extra:       "stable_coins: [\"0x1234\"]\n",
			expectedErr: "is not 20 bytes of hex",
		},
		{
			name:        "unknown strategy",
			extra:       "pricing: {strategy: cheapest}\n",
			expectedErr: "unknown pricing strategy",
		},
		{
			name:        "bad threshold",
			extra:       "minimum_native_locked: lots\n",
			expectedErr: "invalid minimum_native_locked",
		},
		{
			name:        "unknown store",
			extra:       "store: {kind: postgres}\n",
			expectedErr: "unknown store kind",
		},
		{
			name:        "unknown field",
			extra:       "factory_address: \"0x0000000000000000000000000000000000000001\"\n",
			expectedErr: "field factory_address not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			deployment, err := Decode([]byte(validManifest + test.extra))
			if test.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StoreMemory, deployment.Store.Kind)
		})
	}
}

func TestStaticTokenInfos(t *testing.T) {
	deployment, err := Decode([]byte(validManifest + "static_tokens:\n  - {address: \"0x00000000000000000000000000000000000000AA\", symbol: PKEY, name: PuzzleKey, decimals: 18}\n"))
	require.NoError(t, err)

	infos := deployment.StaticTokenInfos()
	require.Len(t, infos, 1)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", infos[0].Address)
	assert.Equal(t, int64(18), infos[0].Decimals)
	assert.Equal(t, "0", infos[0].TotalSupply.String())
}
