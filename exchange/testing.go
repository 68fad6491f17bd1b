package exchange

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/streamingfast/algebra-analytics/entity"
	"github.com/streamingfast/algebra-analytics/state"
	"github.com/streamingfast/algebra-analytics/state/kvdb"
	"github.com/streamingfast/algebra-analytics/tokens"
	"github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// Addresses of the fixture deployment used by tests.
const (
	testFactory         = "0x00000000000000000000000000000000000000fa"
	testPositionManager = "0x00000000000000000000000000000000000000fe"
	testWETH            = "0x00000000000000000000000000000000000000e0"
	testUSDC            = "0x00000000000000000000000000000000000000c0"
	testTokenA          = "0x00000000000000000000000000000000000000a0"
	testTokenB          = "0x00000000000000000000000000000000000000b0"
	testStablePool      = "0x0000000000000000000000000000000000000100"
	testPoolAB          = "0x0000000000000000000000000000000000000200"
	testPoolAWETH       = "0x0000000000000000000000000000000000000300"
	testOwner           = "0x0000000000000000000000000000000000000abc"
	testPlugin          = "0x0000000000000000000000000000000000000d00"
)

// q96 is the sqrt price of a 1:1 pool.
var q96 = new(big.Int).Lsh(big.NewInt(1), 96)

func NewTestConfig() *Config {
	return &Config{
		FactoryAddress:         testFactory,
		PositionManagerAddress: testPositionManager,
		ReferenceToken:         testWETH,
		StableTokenPool:        testStablePool,
		MinimumNativeLocked:    decimal.Zero,
		WhitelistTokens:        []string{testWETH, testUSDC},
		StableCoins:            []string{testUSDC},
	}
}

func testTokenInfos() []*tokens.Info {
	return []*tokens.Info{
		{Address: testWETH, Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18, TotalSupply: big.NewInt(1_000_000)},
		{Address: testUSDC, Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		{Address: testTokenA, Symbol: "AAA", Name: "Token A", Decimals: 18},
		{Address: testTokenB, Symbol: "BBB\u0000\u0000", Name: "Token B", Decimals: 18},
	}
}

// NewTestSubgraph runs on an in memory store and the fixture tokens.
func NewTestSubgraph(t *testing.T, config *Config, infos ...*tokens.Info) *Subgraph {
	t.Helper()

	if config == nil {
		config = NewTestConfig()
	}
	if infos == nil {
		infos = testTokenInfos()
	}

	backend := kvdb.NewMemory()
	t.Cleanup(func() { _ = backend.Close() })

	return NewSubgraph(config, state.New("test", backend), tokens.NewStatic(infos), nil)
}

// TestEvents applies every event in order and fails the test on the first error.
func TestEvents(t *testing.T, s *Subgraph, events []Event) {
	t.Helper()

	for _, event := range events {
		if _, err := s.Apply(context.Background(), event); err != nil {
			require.NoError(t, err)
		}
	}
}

// TestMeta builds the context of the logIndex'th log of block, emitted by emitter.
func TestMeta(block, logIndex uint64, emitter string) EventMeta {
	return EventMeta{
		BlockNumber: block,
		Timestamp:   1_700_000_000 + block*12,
		TxHash:      eth.Hash(common.BigToHash(new(big.Int).SetUint64(block)).Bytes()),
		LogIndex:    logIndex,
		LogAddress:  testAddress(emitter),
		From:        testAddress(testOwner),
		GasPrice:    big.NewInt(1_000_000_000),
	}
}

func testAddress(in string) eth.Address {
	return eth.Address(common.HexToAddress(in).Bytes())
}

// bi returns 10^exp times mantissa.
func bi(mantissa int64, exp int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(mantissa), new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil))
}

func testPoolCreated(block uint64, token0, token1, pool string) *PoolCreated {
	return &PoolCreated{
		EventMeta: TestMeta(block, 0, testFactory),
		Token0:    testAddress(token0),
		Token1:    testAddress(token1),
		Pool:      testAddress(pool),
	}
}

func testInitialize(block uint64, pool string, sqrtPrice *big.Int, tick int64) *Initialize {
	return &Initialize{
		EventMeta: TestMeta(block, 1, pool),
		Price:     sqrtPrice,
		Tick:      tick,
	}
}

func testMint(block, logIndex uint64, pool, owner string, bottom, top int64, liquidity, amount0, amount1 *big.Int) *Mint {
	return &Mint{
		EventMeta:       TestMeta(block, logIndex, pool),
		Sender:          testAddress(testPositionManager),
		Owner:           testAddress(owner),
		BottomTick:      bottom,
		TopTick:         top,
		LiquidityAmount: liquidity,
		Amount0:         amount0,
		Amount1:         amount1,
	}
}

func testBurn(block, logIndex uint64, pool, owner string, bottom, top int64, liquidity, amount0, amount1 *big.Int) *Burn {
	return &Burn{
		EventMeta:       TestMeta(block, logIndex, pool),
		Owner:           testAddress(owner),
		BottomTick:      bottom,
		TopTick:         top,
		LiquidityAmount: liquidity,
		Amount0:         amount0,
		Amount1:         amount1,
	}
}

func testSwap(block, logIndex uint64, pool string, amount0, amount1, sqrtPrice, liquidity *big.Int, tick int64) *Swap {
	return &Swap{
		EventMeta: TestMeta(block, logIndex, pool),
		Sender:    testAddress(testOwner),
		Recipient: testAddress(testOwner),
		Amount0:   amount0,
		Amount1:   amount1,
		Price:     sqrtPrice,
		Liquidity: liquidity,
		Tick:      tick,
	}
}

func testCollect(block, logIndex uint64, pool, owner string, bottom, top int64, amount0, amount1 *big.Int) *Collect {
	return &Collect{
		EventMeta:  TestMeta(block, logIndex, pool),
		Owner:      testAddress(owner),
		Recipient:  testAddress(owner),
		BottomTick: bottom,
		TopTick:    top,
		Amount0:    amount0,
		Amount1:    amount1,
	}
}

// storeFixture seeds entities before a test, one `type`/`entity` pair per
// stored row.
type storeFixture struct {
	StoreData []struct {
		Type   string                 `yaml:"type"`
		Entity map[string]interface{} `yaml:"entity"`
	} `yaml:"storeData"`
}

// SeedStore commits the entities described by a yaml storeData document.
func SeedStore(t *testing.T, s *Subgraph, content string) {
	t.Helper()

	fixture := &storeFixture{}
	require.NoError(t, yaml.Unmarshal([]byte(content), fixture))

	ctx := context.Background()
	for i, row := range fixture.StoreData {
		id, ok := row.Entity["id"].(string)
		require.True(t, ok, "row %d has no string id", i)

		data, err := json.Marshal(row.Entity)
		require.NoError(t, err)
		require.NoError(t, s.Builder.Set(ctx, uint64(i), entity.KeyFor(row.Type, strings.ToLower(id)), data))
	}

	_, err := s.Builder.Commit(ctx)
	require.NoError(t, err)
}

// MustLoad reads a committed entity and fails the test when it is absent.
func MustLoad(t *testing.T, s *Subgraph, ent entity.Interface) {
	t.Helper()
	require.NoError(t, s.Load(ent))
	require.True(t, ent.Exists(), "%s %s not found", ent.TableName(), ent.GetID())
}

// Snapshot renders every committed entity.
func Snapshot(t *testing.T, s *Subgraph) string {
	t.Helper()

	iterable, ok := s.Builder.Backend().(state.Iterable)
	require.True(t, ok, "backend cannot be iterated")

	out := &strings.Builder{}
	_, err := state.WriteSnapshot(context.Background(), out, iterable, entity.Tables)
	require.NoError(t, err)
	return out.String()
}
