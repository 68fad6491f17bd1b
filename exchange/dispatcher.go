package exchange

import (
	"context"
	"fmt"

	"github.com/streamingfast/algebra-analytics/entity"
	"go.uber.org/zap"
)

// HandleEvent routes ev to its handler. Writes are staged on the Builder,
// see Apply to commit them.
func (s *Subgraph) HandleEvent(ctx context.Context, ev Event) error {
	s.ctx = ctx
	s.ordinal = 0
	defer func() { s.ctx = nil }()

	meta := ev.Meta()
	emitter := meta.LogAddress.Pretty()

	tracked, err := s.isTrackedEmitter(ev, emitter)
	if err != nil {
		return err
	}
	if !tracked {
		s.Log.Debug("skipping event from untracked emitter",
			zap.String("emitter", emitter),
			zap.String("kind", fmt.Sprintf("%T", ev)),
			zap.Uint64("block_num", meta.BlockNumber),
		)
		return nil
	}

	sg, err := s.loadSingletons()
	if err != nil {
		return err
	}

	switch e := ev.(type) {
	case *PoolCreated:
		return s.HandlePoolCreated(e, entity.ZeroAddress, e.Token0.Pretty(), e.Token1.Pretty(), e.Pool.Pretty(), sg)
	case *CustomPoolCreated:
		return s.HandlePoolCreated(e, e.Deployer.Pretty(), e.Token0.Pretty(), e.Token1.Pretty(), e.Pool.Pretty(), sg)
	case *DefaultCommunityFee:
		return s.HandleDefaultCommunityFee(e, sg)

	case *Initialize:
		if err := requireExisting(sg.bundle); err != nil {
			return err
		}
		return s.HandleInitialize(e, sg.bundle)
	case *Mint:
		if err := requireExisting(sg.factory, sg.bundle); err != nil {
			return err
		}
		return s.HandleMint(e, sg.factory, sg.bundle)
	case *Burn:
		if err := requireExisting(sg.factory, sg.bundle, sg.burnFee); err != nil {
			return err
		}
		return s.HandleBurn(e, sg.factory, sg.bundle, sg.burnFee)
	case *Swap:
		if err := requireExisting(sg.factory, sg.bundle, sg.swapFee); err != nil {
			return err
		}
		return s.HandleSwap(e, sg.factory, sg.bundle, sg.swapFee)
	case *Collect:
		if err := requireExisting(sg.factory); err != nil {
			return err
		}
		return s.HandleCollect(e, sg.factory)
	case *CommunityFee:
		return s.HandleCommunityFee(e)
	case *TickSpacing:
		return s.HandleTickSpacing(e)
	case *Fee:
		return s.HandleFee(e)
	case *Plugin:
		return s.HandlePlugin(e)
	case *PluginConfig:
		return s.HandlePluginConfig(e)
	case *BurnFee:
		if err := requireExisting(sg.burnFee); err != nil {
			return err
		}
		return s.HandleBurnFee(e, sg.burnFee)
	case *SwapFee:
		if err := requireExisting(sg.swapFee); err != nil {
			return err
		}
		return s.HandleSwapFee(e, sg.swapFee)

	case *IncreaseLiquidity:
		if err := requireExisting(sg.transfer); err != nil {
			return err
		}
		return s.HandleIncreaseLiquidity(e, sg.transfer)
	case *DecreaseLiquidity:
		return s.HandleDecreaseLiquidity(e)
	case *PositionCollect:
		return s.HandlePositionCollect(e)
	case *Transfer:
		if err := requireExisting(sg.transfer); err != nil {
			return err
		}
		return s.HandleTransfer(e, sg.transfer)
	}

	return fmt.Errorf("unsupported event type %T", ev)
}

// isTrackedEmitter reports whether the emitter of ev is one the event kind
// is expected from: the factory, the position manager or a created pool.
func (s *Subgraph) isTrackedEmitter(ev Event, emitter string) (bool, error) {
	switch ev.(type) {
	case *PoolCreated, *CustomPoolCreated, *DefaultCommunityFee:
		return emitter == s.Config.FactoryAddress, nil
	case *IncreaseLiquidity, *DecreaseLiquidity, *PositionCollect, *Transfer:
		return emitter == s.Config.PositionManagerAddress, nil
	}

	ds := entity.NewDataSource(emitter)
	if err := s.Load(ds); err != nil {
		return false, err
	}
	if !ds.Exists() {
		return false, nil
	}
	return ev.Meta().BlockNumber >= ds.StartBlock, nil
}
