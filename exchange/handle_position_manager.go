package exchange

import (
	"fmt"

	"github.com/streamingfast/algebra-analytics/entity"
	"go.uber.org/zap"
)

// HandleIncreaseLiquidity creates the position on its first deposit. The
// owner comes from the preceding NFT transfer and the tick range from the
// last pool mint of the same transaction.
func (s *Subgraph) HandleIncreaseLiquidity(ev *IncreaseLiquidity, transfer *entity.PositionTransferCache) error {
	position, err := s.createPositionIfNecessary(ev, transfer)
	if err != nil {
		return err
	}
	if position == nil {
		return nil
	}

	token0, token1, err := s.loadPositionTokens(position)
	if err != nil {
		return err
	}

	position.Liquidity = position.Liquidity.Add(entity.NewInt(ev.ActualLiquidity))
	position.DepositedToken0 = position.DepositedToken0.Add(entity.ConvertTokenToDecimal(ev.Amount0, token0.Decimals.Int64()))
	position.DepositedToken1 = position.DepositedToken1.Add(entity.ConvertTokenToDecimal(ev.Amount1, token1.Decimals.Int64()))

	return s.savePosition(position, &ev.EventMeta)
}

func (s *Subgraph) createPositionIfNecessary(ev *IncreaseLiquidity, transfer *entity.PositionTransferCache) (*entity.Position, error) {
	position := entity.NewPosition(ev.TokenID.String())
	if err := s.Load(position); err != nil {
		return nil, err
	}
	if position.Exists() {
		return position, nil
	}

	pool := entity.NewPool(ev.Pool.Pretty())
	if err := s.Load(pool); err != nil {
		return nil, err
	}
	if !pool.Exists() {
		s.Log.Debug("position on unknown pool", zap.String("position", position.ID), zap.String("pool", pool.ID))
		return nil, nil
	}

	txHash := ev.TxHash.Pretty()
	mint := entity.NewMint(fmt.Sprintf("%s#%d", txHash, pool.LastMintIndex))
	if err := s.Load(mint); err != nil {
		return nil, err
	}
	if !mint.Exists() {
		s.Log.Debug("no pool mint for position", zap.String("position", position.ID), zap.String("mint", mint.ID))
		return nil, nil
	}

	trx, err := s.loadTransaction(&ev.EventMeta)
	if err != nil {
		return nil, err
	}

	position.Owner = transfer.Owner
	position.Pool = pool.ID
	position.Token0 = pool.Token0
	position.Token1 = pool.Token1
	position.TickLower = tickID(pool.ID, mint.TickLower.Int64())
	position.TickUpper = tickID(pool.ID, mint.TickUpper.Int64())
	position.Transaction = trx.ID
	return position, nil
}

func (s *Subgraph) HandleDecreaseLiquidity(ev *DecreaseLiquidity) error {
	position, err := s.existingPosition(ev.TokenID.String())
	if err != nil || position == nil {
		return err
	}

	token0, token1, err := s.loadPositionTokens(position)
	if err != nil {
		return err
	}

	position.Liquidity = position.Liquidity.Sub(entity.NewInt(ev.Liquidity))
	position.WithdrawnToken0 = position.WithdrawnToken0.Add(entity.ConvertTokenToDecimal(ev.Amount0, token0.Decimals.Int64()))
	position.WithdrawnToken1 = position.WithdrawnToken1.Add(entity.ConvertTokenToDecimal(ev.Amount1, token1.Decimals.Int64()))

	return s.savePosition(position, &ev.EventMeta)
}

func (s *Subgraph) HandlePositionCollect(ev *PositionCollect) error {
	position, err := s.existingPosition(ev.TokenID.String())
	if err != nil || position == nil {
		return err
	}

	token0, token1, err := s.loadPositionTokens(position)
	if err != nil {
		return err
	}

	position.CollectedToken0 = position.CollectedToken0.Add(entity.ConvertTokenToDecimal(ev.Amount0, token0.Decimals.Int64()))
	position.CollectedToken1 = position.CollectedToken1.Add(entity.ConvertTokenToDecimal(ev.Amount1, token1.Decimals.Int64()))
	position.CollectedFeesToken0 = position.CollectedToken0.Sub(position.WithdrawnToken0)
	position.CollectedFeesToken1 = position.CollectedToken1.Sub(position.WithdrawnToken1)

	return s.savePosition(position, &ev.EventMeta)
}

// HandleTransfer always records the receiver, the position may only be
// created by a later IncreaseLiquidity of the same transaction.
func (s *Subgraph) HandleTransfer(ev *Transfer, transfer *entity.PositionTransferCache) error {
	to := ev.To.Pretty()
	transfer.Owner = to
	if err := s.Save(transfer); err != nil {
		return err
	}

	position, err := s.existingPosition(ev.TokenID.String())
	if err != nil || position == nil {
		return err
	}

	position.Owner = to
	return s.savePosition(position, &ev.EventMeta)
}

func (s *Subgraph) existingPosition(tokenID string) (*entity.Position, error) {
	position := entity.NewPosition(tokenID)
	if err := s.Load(position); err != nil {
		return nil, err
	}
	if !position.Exists() {
		s.Log.Debug("unknown position", zap.String("position", tokenID))
		return nil, nil
	}
	return position, nil
}

func (s *Subgraph) loadPositionTokens(position *entity.Position) (*entity.Token, *entity.Token, error) {
	token0 := entity.NewToken(position.Token0)
	if err := s.LoadRequired(token0); err != nil {
		return nil, nil, fmt.Errorf("loading token0 of position %s: %w", position.ID, err)
	}
	token1 := entity.NewToken(position.Token1)
	if err := s.LoadRequired(token1); err != nil {
		return nil, nil, fmt.Errorf("loading token1 of position %s: %w", position.ID, err)
	}
	return token0, token1, nil
}

// savePosition saves position along with its snapshot at the event block.
// Snapshots are keyed tokenId#block, a later mutation in the same block
// overwrites the earlier one.
func (s *Subgraph) savePosition(position *entity.Position, meta *EventMeta) error {
	if err := s.Save(position); err != nil {
		return err
	}

	trx, err := s.loadTransaction(meta)
	if err != nil {
		return err
	}

	snapshot := entity.NewPositionSnapshot(fmt.Sprintf("%s#%d", position.ID, meta.BlockNumber))
	snapshot.Owner = position.Owner
	snapshot.Pool = position.Pool
	snapshot.Position = position.ID
	snapshot.BlockNumber = meta.BlockNumber
	snapshot.Timestamp = meta.Timestamp
	snapshot.Liquidity = position.Liquidity
	snapshot.DepositedToken0 = position.DepositedToken0
	snapshot.DepositedToken1 = position.DepositedToken1
	snapshot.WithdrawnToken0 = position.WithdrawnToken0
	snapshot.WithdrawnToken1 = position.WithdrawnToken1
	snapshot.CollectedFeesToken0 = position.CollectedFeesToken0
	snapshot.CollectedFeesToken1 = position.CollectedFeesToken1
	snapshot.Transaction = trx.ID
	return s.Save(snapshot)
}
