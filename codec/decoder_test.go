package codec

import (
	"io"
	"strings"
	"testing"

	"github.com/streamingfast/algebra-analytics/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	txHash = "0x00000000000000000000000000000000000000000000000000000000000000aa"
	pool   = "0x0000000000000000000000000000000000000100"
)

func line(kind, address, params string) string {
	return `{"kind":"` + kind + `","block":12,"timestamp":1700000144,"tx_hash":"` + txHash + `","tx_index":3,"log_index":7,"address":"` + address + `","from":"0x0000000000000000000000000000000000000ABC","gas_price":"1000000000","params":` + params + `}`
}

func TestDecoder(t *testing.T) {
	input := strings.Join([]string{
		line("PoolCreated", "0x00000000000000000000000000000000000000fa", `{"token0":"0x00000000000000000000000000000000000000c0","token1":"0x00000000000000000000000000000000000000e0","pool":"`+pool+`"}`),
		"",
		line("Swap", pool, `{"sender":"0x0000000000000000000000000000000000000abc","recipient":"0x0000000000000000000000000000000000000abc","amount0":"250000000","amount1":"-90000000000000000","price":"1584563250285286751870879006720000","liquidity":"1000000000000000","tick":198080}`),
		line("Mint", pool, `{"sender":"0x00000000000000000000000000000000000000fe","owner":"0x00000000000000000000000000000000000000fe","bottomTick":-887220,"topTick":887220,"liquidityAmount":1000,"amount0":10,"amount1":"20"}`),
		line("Transfer", "0x00000000000000000000000000000000000000fe", `{"from":"0x0000000000000000000000000000000000000000","to":"0x0000000000000000000000000000000000000abc","tokenId":"7"}`),
		line("SwapFee", pool, `{"overrideFee":400,"pluginFee":"600"}`),
	}, "\n")

	dec := NewDecoder(strings.NewReader(input))

	ev, err := dec.Next()
	require.NoError(t, err)
	created, ok := ev.(*exchange.PoolCreated)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "0x00000000000000000000000000000000000000c0", created.Token0.Pretty())
	assert.Equal(t, pool, created.Pool.Pretty())
	assert.Equal(t, uint64(12), created.BlockNumber)
	assert.Equal(t, uint64(1700000144), created.Timestamp)
	assert.Equal(t, txHash, created.TxHash.Pretty())
	assert.Equal(t, uint64(3), created.TxIndex)
	assert.Equal(t, uint64(7), created.LogIndex)
	assert.Equal(t, "0x0000000000000000000000000000000000000abc", created.From.Pretty())
	assert.Equal(t, "1000000000", created.GasPrice.String())

	ev, err = dec.Next()
	require.NoError(t, err)
	swap, ok := ev.(*exchange.Swap)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "250000000", swap.Amount0.String())
	assert.Equal(t, "-90000000000000000", swap.Amount1.String())
	assert.Equal(t, "1584563250285286751870879006720000", swap.Price.String())
	assert.Equal(t, int64(198080), swap.Tick)
	assert.Equal(t, pool, swap.LogAddress.Pretty())

	ev, err = dec.Next()
	require.NoError(t, err)
	mint, ok := ev.(*exchange.Mint)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, int64(-887220), mint.BottomTick)
	assert.Equal(t, int64(887220), mint.TopTick)
	assert.Equal(t, "1000", mint.LiquidityAmount.String())
	assert.Equal(t, "20", mint.Amount1.String())

	ev, err = dec.Next()
	require.NoError(t, err)
	transfer, ok := ev.(*exchange.Transfer)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "7", transfer.TokenID.String())
	assert.Equal(t, "0x0000000000000000000000000000000000000abc", transfer.To.Pretty())

	ev, err = dec.Next()
	require.NoError(t, err)
	swapFee, ok := ev.(*exchange.SwapFee)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, int64(400), swapFee.OverrideFee)
	assert.Equal(t, int64(600), swapFee.PluginFee)

	_, err = dec.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecodeEvent_Kinds(t *testing.T) {
	tests := []struct {
		kind     string
		address  string
		params   string
		expected interface{}
	}{
		{"CustomPool", "0x00000000000000000000000000000000000000fa", `{"deployer":"0x0000000000000000000000000000000000000001","token0":"0x00000000000000000000000000000000000000c0","token1":"0x00000000000000000000000000000000000000e0","pool":"` + pool + `"}`, &exchange.CustomPoolCreated{}},
		{"DefaultCommunityFee", "0x00000000000000000000000000000000000000fa", `{"newDefaultCommunityFee":100}`, &exchange.DefaultCommunityFee{}},
		{"Initialize", pool, `{"price":"79228162514264337593543950336","tick":0}`, &exchange.Initialize{}},
		{"Burn", pool, `{"owner":"0x00000000000000000000000000000000000000fe","bottomTick":-60,"topTick":60,"liquidityAmount":"5","amount0":"1","amount1":"1"}`, &exchange.Burn{}},
		{"Collect", pool, `{"owner":"0x00000000000000000000000000000000000000fe","recipient":"0x00000000000000000000000000000000000000fe","bottomTick":-60,"topTick":60,"amount0":"1","amount1":"1"}`, &exchange.Collect{}},
		{"CommunityFee", pool, `{"communityFeeNew":150}`, &exchange.CommunityFee{}},
		{"TickSpacing", pool, `{"newTickSpacing":10}`, &exchange.TickSpacing{}},
		{"Fee", pool, `{"fee":500}`, &exchange.Fee{}},
		{"Plugin", pool, `{"newPluginAddress":"0x0000000000000000000000000000000000000d00"}`, &exchange.Plugin{}},
		{"PluginConfig", pool, `{"newPluginConfig":195}`, &exchange.PluginConfig{}},
		{"BurnFee", pool, `{"pluginFee":1000}`, &exchange.BurnFee{}},
		{"IncreaseLiquidity", "0x00000000000000000000000000000000000000fe", `{"tokenId":1,"liquidity":"10","actualLiquidity":"10","amount0":"1","amount1":"1","pool":"` + pool + `"}`, &exchange.IncreaseLiquidity{}},
		{"DecreaseLiquidity", "0x00000000000000000000000000000000000000fe", `{"tokenId":1,"liquidity":"10","amount0":"1","amount1":"1"}`, &exchange.DecreaseLiquidity{}},
		{"PositionCollect", "0x00000000000000000000000000000000000000fe", `{"tokenId":1,"recipient":"0x0000000000000000000000000000000000000abc","amount0":"1","amount1":"1"}`, &exchange.PositionCollect{}},
	}

	for _, test := range tests {
		t.Run(test.kind, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(line(test.kind, test.address, test.params)))
			require.NoError(t, err)
			assert.IsType(t, test.expected, ev)
			assert.Equal(t, test.address, ev.Meta().LogAddress.Pretty())
		})
	}
}

func TestDecodeEvent_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{"unknown kind", line("Sync", pool, `{}`), `unknown event kind "Sync"`},
		{"invalid address", line("Fee", "0x1234", `{"fee":1}`), `invalid address "0x1234"`},
		{"invalid integer", line("Fee", pool, `{"fee":"1.5"}`), `invalid integer "1.5"`},
		{"tick overflow", line("Initialize", pool, `{"price":"1","tick":"99999999999999999999"}`), "overflows int64"},
		{"missing plugin address", line("Plugin", pool, `{}`), "missing newPluginAddress"},
		{"missing token id", line("Transfer", "0x00000000000000000000000000000000000000fe", `{"from":"0x0000000000000000000000000000000000000000","to":"0x0000000000000000000000000000000000000001"}`), "missing tokenId"},
		{"invalid hash", strings.Replace(line("Fee", pool, `{"fee":1}`), txHash, "0xaa", 1), `invalid hash "0xaa"`},
		{"not json", "{", "decoding envelope"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(test.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.errMsg)
		})
	}
}

func TestDecoder_ReportsLine(t *testing.T) {
	dec := NewDecoder(strings.NewReader(line("Fee", pool, `{"fee":1}`) + "\n\n" + line("Sync", pool, `{}`) + "\n"))

	_, err := dec.Next()
	require.NoError(t, err)

	_, err = dec.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3:")
}

func TestDecoder_CollectRoutedByEmitter(t *testing.T) {
	positionManager := "0x00000000000000000000000000000000000000FE"
	input := strings.Join([]string{
		line("Collect", pool, `{"owner":"0x00000000000000000000000000000000000000fe","recipient":"0x00000000000000000000000000000000000000fe","bottomTick":-60,"topTick":60,"amount0":"1","amount1":"1"}`),
		line("Collect", "0x00000000000000000000000000000000000000fe", `{"tokenId":"7","recipient":"0x0000000000000000000000000000000000000abc","amount0":"3","amount1":"4"}`),
	}, "\n")

	dec := NewDecoder(strings.NewReader(input), WithPositionManager(positionManager))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.IsType(t, &exchange.Collect{}, ev)

	ev, err = dec.Next()
	require.NoError(t, err)
	collect, ok := ev.(*exchange.PositionCollect)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "7", collect.TokenID.String())
	assert.Equal(t, "0x0000000000000000000000000000000000000abc", collect.Recipient.Pretty())
	assert.Equal(t, "3", collect.Amount0.String())
	assert.Equal(t, "4", collect.Amount1.String())

	_, err = dec.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoder_CollectWithoutPositionManagerIsPoolCollect(t *testing.T) {
	input := line("Collect", "0x00000000000000000000000000000000000000fe", `{"owner":"0x00000000000000000000000000000000000000fe","recipient":"0x00000000000000000000000000000000000000fe","bottomTick":-60,"topTick":60,"amount0":"1","amount1":"1"}`)

	ev, err := NewDecoder(strings.NewReader(input)).Next()
	require.NoError(t, err)
	assert.IsType(t, &exchange.Collect{}, ev)
}
