package exchange

import (
	"errors"
	"fmt"

	"github.com/streamingfast/algebra-analytics/entity"
	"github.com/streamingfast/algebra-analytics/tokens"
	"go.uber.org/zap"
)

const (
	defaultPoolFee         = 100
	defaultPoolTickSpacing = 60
)

// HandlePoolCreated registers a new pool and, on first sight, its tokens.
// The event is aborted when either token decimals cannot be resolved.
func (s *Subgraph) HandlePoolCreated(ev Event, deployer, token0Address, token1Address, poolAddress string, sg *singletons) error {
	meta := ev.Meta()

	pool := entity.NewPool(poolAddress)
	if err := s.Load(pool); err != nil {
		return err
	}
	if pool.Exists() {
		s.Log.Warn("pool already created, ignoring", zap.String("pool", poolAddress), zap.Uint64("block_num", meta.BlockNumber))
		return nil
	}

	if err := s.initSingletons(sg); err != nil {
		return err
	}
	factory := sg.factory

	token0, err := s.getToken(token0Address, meta.BlockNumber)
	if err != nil {
		return err
	}
	token1, err := s.getToken(token1Address, meta.BlockNumber)
	if err != nil {
		return err
	}

	if s.Config.IsWhitelisted(token0.ID) {
		token1.AddWhitelistPool(pool.ID)
	}
	if s.Config.IsWhitelisted(token1.ID) {
		token0.AddWhitelistPool(pool.ID)
	}
	token0.PoolCount = token0.PoolCount.AddInt64(1)
	token1.PoolCount = token1.PoolCount.AddInt64(1)

	pool.Deployer = deployer
	pool.Token0 = token0.ID
	pool.Token1 = token1.ID
	pool.Fee = entity.IL(defaultPoolFee)
	pool.TickSpacing = entity.IL(defaultPoolTickSpacing)
	pool.CommunityFee = factory.DefaultCommunityFee
	pool.CreatedAtTimestamp = meta.Timestamp
	pool.CreatedAtBlockNumber = meta.BlockNumber

	factory.PoolCount = factory.PoolCount.AddInt64(1)

	// pool events are tracked from the creation block on
	dataSource := entity.NewDataSource(pool.ID)
	dataSource.StartBlock = meta.BlockNumber

	if err := s.SaveAll(pool, dataSource, token0, token1, factory); err != nil {
		return err
	}

	s.Log.Debug("pool created",
		zap.String("pool", pool.ID),
		zap.String("token0", token0.ID),
		zap.String("token1", token1.ID),
		zap.String("deployer", deployer),
		zap.Uint64("block_num", meta.BlockNumber),
	)
	return nil
}

// getToken loads a token or fetches its metadata when it is seen for the
// first time. Nothing is saved.
func (s *Subgraph) getToken(address string, blockNum uint64) (*entity.Token, error) {
	token := entity.NewToken(address)
	if err := s.Load(token); err != nil {
		return nil, fmt.Errorf("loading token %s: %w", address, err)
	}
	if token.Exists() {
		return token, nil
	}

	info, err := s.Tokens.Fetch(s.context(), address, blockNum)
	if err != nil {
		if errors.Is(err, tokens.ErrDecimalsUnavailable) {
			return nil, fmt.Errorf("token %s: %w: %s", address, ErrEventAborted, err)
		}
		return nil, fmt.Errorf("fetching token %s metadata: %w", address, err)
	}

	token.Symbol = info.Symbol
	token.Name = info.Name
	token.Decimals = entity.IL(info.Decimals)
	token.TotalSupply = entity.NewInt(info.TotalSupply)
	token.Sanitize()
	return token, nil
}

func (s *Subgraph) HandleDefaultCommunityFee(ev *DefaultCommunityFee, sg *singletons) error {
	if err := s.initSingletons(sg); err != nil {
		return err
	}

	sg.factory.DefaultCommunityFee = entity.IL(ev.NewDefaultCommunityFee)
	return s.Save(sg.factory)
}
