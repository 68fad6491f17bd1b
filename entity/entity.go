package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

const ZeroAddress = "0x0000000000000000000000000000000000000000"

// SingletonID is the id of every process wide singleton (bundle and caches).
const SingletonID = "1"

type Interface interface {
	TableName() string
	GetID() string
	Exists() bool
	SetExists(exists bool)
}

type Base struct {
	ID     string `json:"id"`
	exists bool
}

func NewBase(id string) Base {
	return Base{ID: id}
}

func (b *Base) GetID() string {
	return b.ID
}

func (b *Base) Exists() bool {
	return b.exists
}

func (b *Base) SetExists(exists bool) {
	b.exists = exists
}

// Key is the store key of an entity, `<table>:<id>`.
func Key(ent Interface) string {
	return KeyFor(ent.TableName(), ent.GetID())
}

func KeyFor(table, id string) string {
	return table + ":" + id
}

// SplitKey is the reverse of KeyFor.
func SplitKey(key string) (table string, id string, err error) {
	idx := strings.IndexByte(key, ':')
	if idx <= 0 {
		return "", "", fmt.Errorf("invalid entity key %q", key)
	}
	return key[:idx], key[idx+1:], nil
}

func Encode(ent Interface) ([]byte, error) {
	data, err := json.Marshal(ent)
	if err != nil {
		return nil, fmt.Errorf("encoding %s %q: %w", ent.TableName(), ent.GetID(), err)
	}
	return data, nil
}

func Decode(data []byte, ent Interface) error {
	if err := json.Unmarshal(data, ent); err != nil {
		return fmt.Errorf("decoding %s %q: %w", ent.TableName(), ent.GetID(), err)
	}
	return nil
}

// Tables lists every entity table, in the order they are dumped.
var Tables = []string{
	"Factory",
	"Bundle",
	"BurnFeeCache",
	"SwapFeeCache",
	"PositionTransferCache",
	"DataSource",
	"Token",
	"Pool",
	"Tick",
	"PoolPosition",
	"Position",
	"PositionSnapshot",
	"Plugin",
	"Transaction",
	"Mint",
	"Burn",
	"Swap",
	"PoolFeeData",
	"FeeHourData",
	"AlgebraDayData",
	"AlgebraHourData",
	"PoolDayData",
	"PoolHourData",
	"TokenDayData",
	"TokenHourData",
}
