package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/streamingfast/algebra-analytics/entity"
	"github.com/streamingfast/algebra-analytics/state"
	"github.com/streamingfast/algebra-analytics/tokens"
	"go.uber.org/zap"
)

// Subgraph turns pool, factory and position manager events into entities.
// It is not safe for concurrent use: events are applied one at a time.
type Subgraph struct {
	Config  *Config
	Builder *state.Builder
	Tokens  tokens.Fetcher
	Log     *zap.Logger

	// ctx of the event being handled, set by HandleEvent
	ctx     context.Context
	ordinal uint64
}

func NewSubgraph(config *Config, builder *state.Builder, fetcher tokens.Fetcher, logger *zap.Logger) *Subgraph {
	config.index()
	if logger == nil {
		logger = zlog
	}
	return &Subgraph{
		Config:  config,
		Builder: builder,
		Tokens:  fetcher,
		Log:     logger,
	}
}

// Apply handles ev and commits all its writes at once. A failed event
// commits nothing. Aborted events are skipped and reported as a nil error.
func (s *Subgraph) Apply(ctx context.Context, ev Event) ([]state.StateDelta, error) {
	if err := s.HandleEvent(ctx, ev); err != nil {
		s.Builder.Rollback()

		if errors.Is(err, ErrEventAborted) {
			meta := ev.Meta()
			s.Log.Warn("event aborted, nothing committed",
				zap.Uint64("block_num", meta.BlockNumber),
				zap.Uint64("log_index", meta.LogIndex),
				zap.Stringer("tx_hash", meta.TxHash),
				zap.Error(err),
			)
			return nil, nil
		}
		return nil, err
	}

	deltas, err := s.Builder.Commit(ctx)
	if err != nil {
		s.Builder.Rollback()
		return nil, err
	}
	return deltas, nil
}

type Outcome int

const (
	Existing Outcome = iota
	Created
)

func (o Outcome) String() string {
	if o == Created {
		return "created"
	}
	return "existing"
}

// Load fills ent from the store. A missing entity is not an error, check
// ent.Exists().
func (s *Subgraph) Load(ent entity.Interface) error {
	data, err := s.Builder.Get(s.context(), entity.Key(ent))
	if errors.Is(err, state.ErrNotFound) {
		ent.SetExists(false)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading %s %s: %w", ent.TableName(), ent.GetID(), err)
	}

	if err := entity.Decode(data, ent); err != nil {
		return err
	}
	ent.SetExists(true)
	return nil
}

// LoadRequired is Load where absence is ErrMissingEntity.
func (s *Subgraph) LoadRequired(ent entity.Interface) error {
	if err := s.Load(ent); err != nil {
		return err
	}
	if !ent.Exists() {
		return fmt.Errorf("%s %s: %w", ent.TableName(), ent.GetID(), ErrMissingEntity)
	}
	return nil
}

// GetOrCreate loads ent, or runs init on it when it is not stored yet.
// Nothing is saved.
func (s *Subgraph) GetOrCreate(ent entity.Interface, init func()) (Outcome, error) {
	if err := s.Load(ent); err != nil {
		return Existing, err
	}
	if ent.Exists() {
		return Existing, nil
	}
	if init != nil {
		init()
	}
	return Created, nil
}

func (s *Subgraph) Save(ent entity.Interface) error {
	data, err := entity.Encode(ent)
	if err != nil {
		return err
	}

	s.ordinal++
	if err := s.Builder.Set(s.context(), s.ordinal, entity.Key(ent), data); err != nil {
		return fmt.Errorf("saving %s %s: %w", ent.TableName(), ent.GetID(), err)
	}
	ent.SetExists(true)
	return nil
}

func (s *Subgraph) SaveAll(ents ...entity.Interface) error {
	for _, ent := range ents {
		if err := s.Save(ent); err != nil {
			return err
		}
	}
	return nil
}

func (s *Subgraph) context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// singletons are the process wide entities, loaded once per event.
type singletons struct {
	factory  *entity.Factory
	bundle   *entity.Bundle
	burnFee  *entity.BurnFeeCache
	swapFee  *entity.SwapFeeCache
	transfer *entity.PositionTransferCache
}

func (s *Subgraph) loadSingletons() (*singletons, error) {
	out := &singletons{
		factory:  entity.NewFactory(s.Config.FactoryAddress),
		bundle:   entity.NewBundle(),
		burnFee:  entity.NewBurnFeeCache(),
		swapFee:  entity.NewSwapFeeCache(),
		transfer: entity.NewPositionTransferCache(),
	}
	for _, ent := range []entity.Interface{out.factory, out.bundle, out.burnFee, out.swapFee, out.transfer} {
		if err := s.Load(ent); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// initSingletons creates the singletons that do not exist yet.
func (s *Subgraph) initSingletons(sg *singletons) error {
	for _, ent := range []entity.Interface{sg.factory, sg.bundle, sg.burnFee, sg.swapFee, sg.transfer} {
		if ent.Exists() {
			continue
		}
		if err := s.Save(ent); err != nil {
			return err
		}
		s.Log.Debug("singleton initialized", zap.String("table", ent.TableName()), zap.String("id", ent.GetID()))
	}
	return nil
}

func requireExisting(ents ...entity.Interface) error {
	for _, ent := range ents {
		if !ent.Exists() {
			return fmt.Errorf("%s %s: %w", ent.TableName(), ent.GetID(), ErrMissingEntity)
		}
	}
	return nil
}

// loadPoolTokens loads a pool together with its two tokens.
func (s *Subgraph) loadPoolTokens(poolAddress string) (*entity.Pool, *entity.Token, *entity.Token, error) {
	pool := entity.NewPool(poolAddress)
	if err := s.LoadRequired(pool); err != nil {
		return nil, nil, nil, err
	}

	token0 := entity.NewToken(pool.Token0)
	if err := s.LoadRequired(token0); err != nil {
		return nil, nil, nil, fmt.Errorf("loading token0 of pool %s: %w", poolAddress, err)
	}
	token1 := entity.NewToken(pool.Token1)
	if err := s.LoadRequired(token1); err != nil {
		return nil, nil, nil, fmt.Errorf("loading token1 of pool %s: %w", poolAddress, err)
	}
	return pool, token0, token1, nil
}

// loadPlugin returns the plugin installed on pool, nil if none is tracked.
func (s *Subgraph) loadPlugin(pool *entity.Pool) (*entity.Plugin, error) {
	if !pool.HasPlugin() {
		return nil, nil
	}
	plugin := entity.NewPlugin(pool.Plugin)
	if err := s.Load(plugin); err != nil {
		return nil, err
	}
	if !plugin.Exists() {
		return nil, nil
	}
	return plugin, nil
}

func (s *Subgraph) loadTransaction(meta *EventMeta) (*entity.Transaction, error) {
	trx := entity.NewTransaction(meta.TxHash.Pretty())
	outcome, err := s.GetOrCreate(trx, func() {
		trx.BlockNumber = meta.BlockNumber
		trx.Timestamp = meta.Timestamp
		trx.GasPrice = entity.NewInt(meta.GasPrice)
	})
	if err != nil {
		return nil, err
	}
	if outcome == Created {
		if err := s.Save(trx); err != nil {
			return nil, err
		}
	}
	return trx, nil
}

func recordID(meta *EventMeta) string {
	return fmt.Sprintf("%s#%d", meta.TxHash.Pretty(), meta.LogIndex)
}
