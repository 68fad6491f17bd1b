package exchange

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/streamingfast/algebra-analytics/entity"
	"github.com/stretchr/testify/assert"
)

const testHolder = "0x0000000000000000000000000000000000000def"

func positionMeta(block, logIndex uint64) EventMeta {
	return TestMeta(block, logIndex, testPositionManager)
}

func TestPositionLifecycle(t *testing.T) {
	s := NewTestSubgraph(t, nil)
	TestEvents(t, s, stablePoolEvents()[:2])

	tokenID := big.NewInt(7)
	TestEvents(t, s, []Event{
		testMint(3, 1, testStablePool, testPositionManager, 197000, 199000, bi(1, 15), bi(2500, 6), bi(1, 18)),
		&Transfer{EventMeta: positionMeta(3, 2), From: testAddress(entity.ZeroAddress), To: testAddress(testOwner), TokenID: tokenID},
		&IncreaseLiquidity{EventMeta: positionMeta(3, 3), TokenID: tokenID, Liquidity: bi(1, 15), ActualLiquidity: bi(1, 15), Amount0: bi(2500, 6), Amount1: bi(1, 18), Pool: testAddress(testStablePool)},
	})

	position := entity.NewPosition("7")
	MustLoad(t, s, position)
	assert.Equal(t, testOwner, position.Owner)
	assert.Equal(t, testStablePool, position.Pool)
	assert.Equal(t, testUSDC, position.Token0)
	assert.Equal(t, testWETH, position.Token1)
	assert.Equal(t, tickID(testStablePool, 197000), position.TickLower)
	assert.Equal(t, tickID(testStablePool, 199000), position.TickUpper)
	assert.Equal(t, "1000000000000000", position.Liquidity.String())
	assertDecimal(t, "2500", position.DepositedToken0, "deposited0")
	assertDecimal(t, "1", position.DepositedToken1, "deposited1")
	assert.Equal(t, positionMeta(3, 3).TxHash.Pretty(), position.Transaction)

	TestEvents(t, s, []Event{
		&DecreaseLiquidity{EventMeta: positionMeta(10, 1), TokenID: tokenID, Liquidity: bi(4, 14), Amount0: bi(1000, 6), Amount1: bi(4, 17)},
		&PositionCollect{EventMeta: positionMeta(11, 1), TokenID: tokenID, Recipient: testAddress(testOwner), Amount0: bi(1001, 6), Amount1: bi(41, 16)},
	})

	MustLoad(t, s, position)
	assert.Equal(t, "600000000000000", position.Liquidity.String())
	assertDecimal(t, "1000", position.WithdrawnToken0, "withdrawn0")
	assertDecimal(t, "0.4", position.WithdrawnToken1, "withdrawn1")
	assertDecimal(t, "1001", position.CollectedToken0, "collected0")
	assertDecimal(t, "1", position.CollectedFeesToken0, "collected fees0")
	assertDecimal(t, "0.01", position.CollectedFeesToken1, "collected fees1")

	for _, block := range []uint64{3, 10, 11} {
		snapshot := entity.NewPositionSnapshot(fmt.Sprintf("7#%d", block))
		MustLoad(t, s, snapshot)
		assert.Equal(t, "7", snapshot.Position)
		assert.Equal(t, block, snapshot.BlockNumber)
	}

	afterDecrease := entity.NewPositionSnapshot("7#10")
	MustLoad(t, s, afterDecrease)
	assert.Equal(t, "600000000000000", afterDecrease.Liquidity.String())
	assertDecimal(t, "0", afterDecrease.CollectedFeesToken0, "fees before collect")

	TestEvents(t, s, []Event{
		&Transfer{EventMeta: positionMeta(12, 1), From: testAddress(testOwner), To: testAddress(testHolder), TokenID: tokenID},
	})
	MustLoad(t, s, position)
	assert.Equal(t, testHolder, position.Owner)

	cache := entity.NewPositionTransferCache()
	MustLoad(t, s, cache)
	assert.Equal(t, testHolder, cache.Owner)
}

func TestPositionSnapshotOnePerBlock(t *testing.T) {
	s := NewTestSubgraph(t, nil)
	TestEvents(t, s, stablePoolEvents()[:2])

	tokenID := big.NewInt(7)
	TestEvents(t, s, []Event{
		testMint(3, 1, testStablePool, testPositionManager, 197000, 199000, bi(1, 15), bi(2500, 6), bi(1, 18)),
		&Transfer{EventMeta: positionMeta(3, 2), From: testAddress(entity.ZeroAddress), To: testAddress(testOwner), TokenID: tokenID},
		&IncreaseLiquidity{EventMeta: positionMeta(3, 3), TokenID: tokenID, Liquidity: bi(1, 15), ActualLiquidity: bi(1, 15), Amount0: bi(2500, 6), Amount1: bi(1, 18), Pool: testAddress(testStablePool)},
		&DecreaseLiquidity{EventMeta: positionMeta(10, 1), TokenID: tokenID, Liquidity: bi(4, 14), Amount0: bi(1000, 6), Amount1: bi(4, 17)},
		&PositionCollect{EventMeta: positionMeta(10, 2), TokenID: tokenID, Recipient: testAddress(testOwner), Amount0: bi(1001, 6), Amount1: bi(41, 16)},
	})

	// block 10 keeps the state after its last mutation
	snapshot := entity.NewPositionSnapshot("7#10")
	MustLoad(t, s, snapshot)
	assert.Equal(t, "600000000000000", snapshot.Liquidity.String())
	assertDecimal(t, "1000", snapshot.WithdrawnToken0, "withdrawn0")
	assertDecimal(t, "0.4", snapshot.WithdrawnToken1, "withdrawn1")
	assertDecimal(t, "1", snapshot.CollectedFeesToken0, "collected fees0")
	assertDecimal(t, "0.01", snapshot.CollectedFeesToken1, "collected fees1")
	assert.Equal(t, positionMeta(10, 2).TxHash.Pretty(), snapshot.Transaction)

	initial := entity.NewPositionSnapshot("7#3")
	MustLoad(t, s, initial)
	assert.Equal(t, "1000000000000000", initial.Liquidity.String())
	assertDecimal(t, "2500", initial.DepositedToken0, "deposited0")

	missing := entity.NewPositionSnapshot("7#11")
	assert.NoError(t, s.Load(missing))
	assert.False(t, missing.Exists())
}

func TestPositionSoftMisses(t *testing.T) {
	s := NewTestSubgraph(t, nil)
	TestEvents(t, s, stablePoolEvents())
	before := Snapshot(t, s)

	unknown := big.NewInt(99)
	TestEvents(t, s, []Event{
		&DecreaseLiquidity{EventMeta: positionMeta(5, 1), TokenID: unknown, Liquidity: big.NewInt(1), Amount0: big.NewInt(1), Amount1: big.NewInt(1)},
		&PositionCollect{EventMeta: positionMeta(5, 2), TokenID: unknown, Amount0: big.NewInt(1), Amount1: big.NewInt(1)},
		// no pool mint in this transaction
		&IncreaseLiquidity{EventMeta: positionMeta(6, 1), TokenID: unknown, Liquidity: big.NewInt(1), ActualLiquidity: big.NewInt(1), Amount0: big.NewInt(1), Amount1: big.NewInt(1), Pool: testAddress(testStablePool)},
		// unknown pool
		&IncreaseLiquidity{EventMeta: positionMeta(6, 2), TokenID: unknown, Liquidity: big.NewInt(1), ActualLiquidity: big.NewInt(1), Amount0: big.NewInt(1), Amount1: big.NewInt(1), Pool: testAddress(testPoolAB)},
	})
	assert.Equal(t, before, Snapshot(t, s))

	// a transfer of an unknown position still records the receiver
	TestEvents(t, s, []Event{
		&Transfer{EventMeta: positionMeta(7, 1), From: testAddress(entity.ZeroAddress), To: testAddress(testHolder), TokenID: unknown},
	})
	cache := entity.NewPositionTransferCache()
	MustLoad(t, s, cache)
	assert.Equal(t, testHolder, cache.Owner)

	position := entity.NewPosition("99")
	assert.NoError(t, s.Load(position))
	assert.False(t, position.Exists())
}

func TestPositionEventsFromOtherEmitterIgnored(t *testing.T) {
	s := NewTestSubgraph(t, nil)
	TestEvents(t, s, stablePoolEvents())
	before := Snapshot(t, s)

	TestEvents(t, s, []Event{
		&Transfer{EventMeta: TestMeta(5, 1, testStablePool), From: testAddress(entity.ZeroAddress), To: testAddress(testHolder), TokenID: big.NewInt(1)},
	})
	assert.Equal(t, before, Snapshot(t, s))
}
