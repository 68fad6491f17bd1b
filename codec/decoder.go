package codec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/streamingfast/algebra-analytics/exchange"
	"github.com/streamingfast/eth-go"
	"go.uber.org/zap"
)

const maxLineSize = 1024 * 1024

// Decoder reads one JSON event envelope per line. Blank lines are skipped.
type Decoder struct {
	scanner *bufio.Scanner
	line    uint64

	positionManager string
}

type DecoderOption func(d *Decoder)

// WithPositionManager decodes a Collect emitted by address as the position
// manager collect instead of the pool one, both events sharing their ABI name.
func WithPositionManager(address string) DecoderOption {
	return func(d *Decoder) {
		d.positionManager = strings.ToLower(address)
	}
}

func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	d := &Decoder{scanner: scanner}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next returns the next event, io.EOF once the input is exhausted.
func (d *Decoder) Next() (exchange.Event, error) {
	for d.scanner.Scan() {
		d.line++
		line := bytes.TrimSpace(d.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		ev, err := decodeEvent(line, d.positionManager)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", d.line, err)
		}
		return ev, nil
	}

	if err := d.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading line %d: %w", d.line+1, err)
	}
	return nil, io.EOF
}

// DecodeEvent decodes a single envelope.
func DecodeEvent(data []byte) (exchange.Event, error) {
	return decodeEvent(data, "")
}

func decodeEvent(data []byte, positionManager string) (exchange.Event, error) {
	env := &envelope{}
	if err := json.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	if len(env.Address) == 0 {
		return nil, fmt.Errorf("%s event has no address", env.Kind)
	}
	if len(env.Params) == 0 {
		env.Params = []byte("{}")
	}

	meta := exchange.EventMeta{
		BlockNumber: env.Block,
		Timestamp:   env.Timestamp,
		TxHash:      eth.Hash(env.TxHash),
		TxIndex:     env.TxIndex,
		LogIndex:    env.LogIndex,
		LogAddress:  env.Address.toEth(),
		From:        env.From.toEth(),
		GasPrice:    env.GasPrice.value(),
	}

	kind := env.Kind
	if kind == "Collect" && positionManager != "" && meta.LogAddress.Pretty() == positionManager {
		kind = "PositionCollect"
	}

	ev, err := decodeKind(kind, meta, env.Params)
	if err != nil {
		return nil, fmt.Errorf("%s event at block %d log %d: %w", env.Kind, env.Block, env.LogIndex, err)
	}

	zlog.Debug("event decoded", zap.String("kind", env.Kind), zap.Uint64("block_num", env.Block), zap.Uint64("log_index", env.LogIndex))
	return ev, nil
}

func decodeKind(kind string, meta exchange.EventMeta, raw json.RawMessage) (exchange.Event, error) {
	ints := &intReader{}

	switch kind {
	case "PoolCreated", "CustomPool", "CustomPoolCreated":
		p := &poolCreatedParams{}
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, err
		}
		if kind == "PoolCreated" {
			return &exchange.PoolCreated{EventMeta: meta, Token0: p.Token0.toEth(), Token1: p.Token1.toEth(), Pool: p.Pool.toEth()}, nil
		}
		deployer, err := required(p.Deployer, "deployer")
		if err != nil {
			return nil, err
		}
		return &exchange.CustomPoolCreated{EventMeta: meta, Deployer: deployer, Token0: p.Token0.toEth(), Token1: p.Token1.toEth(), Pool: p.Pool.toEth()}, nil

	case "DefaultCommunityFee":
		p := &defaultCommunityFeeParams{}
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, err
		}
		ev := &exchange.DefaultCommunityFee{EventMeta: meta, NewDefaultCommunityFee: ints.int64(p.NewDefaultCommunityFee)}
		return ev, ints.err

	case "Initialize":
		p := &initializeParams{}
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, err
		}
		ev := &exchange.Initialize{EventMeta: meta, Price: p.Price.value(), Tick: ints.int64(p.Tick)}
		return ev, ints.err

	case "Mint":
		p := &mintBurnParams{}
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, err
		}
		ev := &exchange.Mint{
			EventMeta:       meta,
			Sender:          p.Sender.toEth(),
			Owner:           p.Owner.toEth(),
			BottomTick:      ints.int64(p.BottomTick),
			TopTick:         ints.int64(p.TopTick),
			LiquidityAmount: p.LiquidityAmount.value(),
			Amount0:         p.Amount0.value(),
			Amount1:         p.Amount1.value(),
		}
		return ev, ints.err

	case "Burn":
		p := &mintBurnParams{}
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, err
		}
		ev := &exchange.Burn{
			EventMeta:       meta,
			Owner:           p.Owner.toEth(),
			BottomTick:      ints.int64(p.BottomTick),
			TopTick:         ints.int64(p.TopTick),
			LiquidityAmount: p.LiquidityAmount.value(),
			Amount0:         p.Amount0.value(),
			Amount1:         p.Amount1.value(),
		}
		return ev, ints.err

	case "Swap":
		p := &swapParams{}
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, err
		}
		ev := &exchange.Swap{
			EventMeta: meta,
			Sender:    p.Sender.toEth(),
			Recipient: p.Recipient.toEth(),
			Amount0:   p.Amount0.value(),
			Amount1:   p.Amount1.value(),
			Price:     p.Price.value(),
			Liquidity: p.Liquidity.value(),
			Tick:      ints.int64(p.Tick),
		}
		return ev, ints.err

	case "Collect":
		p := &collectParams{}
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, err
		}
		ev := &exchange.Collect{
			EventMeta:  meta,
			Owner:      p.Owner.toEth(),
			Recipient:  p.Recipient.toEth(),
			BottomTick: ints.int64(p.BottomTick),
			TopTick:    ints.int64(p.TopTick),
			Amount0:    p.Amount0.value(),
			Amount1:    p.Amount1.value(),
		}
		return ev, ints.err

	case "CommunityFee", "TickSpacing", "Fee", "Plugin", "PluginConfig", "BurnFee", "SwapFee":
		return decodePoolSetting(kind, meta, raw)

	case "IncreaseLiquidity", "DecreaseLiquidity", "PositionCollect", "Transfer":
		return decodePosition(kind, meta, raw)
	}

	return nil, fmt.Errorf("unknown event kind %q", kind)
}

func decodePoolSetting(kind string, meta exchange.EventMeta, raw json.RawMessage) (exchange.Event, error) {
	p := &poolSettingParams{}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, err
	}
	ints := &intReader{}

	var ev exchange.Event
	switch kind {
	case "CommunityFee":
		ev = &exchange.CommunityFee{EventMeta: meta, CommunityFeeNew: ints.int64(p.CommunityFeeNew)}
	case "TickSpacing":
		ev = &exchange.TickSpacing{EventMeta: meta, NewTickSpacing: ints.int64(p.NewTickSpacing)}
	case "Fee":
		ev = &exchange.Fee{EventMeta: meta, Fee: ints.int64(p.Fee)}
	case "Plugin":
		plugin, err := required(p.NewPluginAddress, "newPluginAddress")
		if err != nil {
			return nil, err
		}
		ev = &exchange.Plugin{EventMeta: meta, NewPluginAddress: plugin}
	case "PluginConfig":
		ev = &exchange.PluginConfig{EventMeta: meta, NewPluginConfig: ints.uint64(p.NewPluginConfig)}
	case "BurnFee":
		ev = &exchange.BurnFee{EventMeta: meta, PluginFee: ints.int64(p.PluginFee)}
	case "SwapFee":
		ev = &exchange.SwapFee{EventMeta: meta, OverrideFee: ints.int64(p.OverrideFee), PluginFee: ints.int64(p.PluginFee)}
	}
	return ev, ints.err
}

func decodePosition(kind string, meta exchange.EventMeta, raw json.RawMessage) (exchange.Event, error) {
	p := &positionParams{}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, err
	}
	if p.TokenID.Int == nil {
		return nil, fmt.Errorf("missing tokenId")
	}

	switch kind {
	case "IncreaseLiquidity":
		pool, err := required(p.Pool, "pool")
		if err != nil {
			return nil, err
		}
		return &exchange.IncreaseLiquidity{
			EventMeta:       meta,
			TokenID:         p.TokenID.value(),
			Liquidity:       p.Liquidity.value(),
			ActualLiquidity: p.ActualLiquidity.value(),
			Amount0:         p.Amount0.value(),
			Amount1:         p.Amount1.value(),
			Pool:            pool,
		}, nil
	case "DecreaseLiquidity":
		return &exchange.DecreaseLiquidity{
			EventMeta: meta,
			TokenID:   p.TokenID.value(),
			Liquidity: p.Liquidity.value(),
			Amount0:   p.Amount0.value(),
			Amount1:   p.Amount1.value(),
		}, nil
	case "PositionCollect":
		recipient, err := required(p.Recipient, "recipient")
		if err != nil {
			return nil, err
		}
		return &exchange.PositionCollect{
			EventMeta: meta,
			TokenID:   p.TokenID.value(),
			Recipient: recipient,
			Amount0:   p.Amount0.value(),
			Amount1:   p.Amount1.value(),
		}, nil
	}

	from, err := required(p.From, "from")
	if err != nil {
		return nil, err
	}
	to, err := required(p.To, "to")
	if err != nil {
		return nil, err
	}
	return &exchange.Transfer{EventMeta: meta, From: from, To: to, TokenID: p.TokenID.value()}, nil
}

func required(a *Address, field string) (eth.Address, error) {
	if a == nil {
		return nil, fmt.Errorf("missing %s", field)
	}
	return a.toEth(), nil
}

// intReader narrows big integers into machine ones, keeping the first error.
type intReader struct {
	err error
}

func (r *intReader) int64(v BigInt) int64 {
	out, err := v.toInt64()
	if err != nil && r.err == nil {
		r.err = err
	}
	return out
}

func (r *intReader) uint64(v BigInt) uint64 {
	out, err := v.toUint64()
	if err != nil && r.err == nil {
		r.err = err
	}
	return out
}
