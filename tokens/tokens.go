// Package tokens resolves ERC20 metadata for the tokens of newly created pools.
package tokens

import (
	"context"
	"errors"
	"math/big"
	"strings"
)

// ErrDecimalsUnavailable means the decimals of a token could not be
// resolved. Pools are not indexed without them.
var ErrDecimalsUnavailable = errors.New("token decimals unavailable")

const (
	UnknownSymbol = "unknown"
	UnknownName   = "unknown"
)

type Info struct {
	Address     string
	Symbol      string
	Name        string
	Decimals    int64
	TotalSupply *big.Int
}

type Fetcher interface {
	// Fetch returns the metadata of address as of blockNum, or an error
	// wrapping ErrDecimalsUnavailable.
	Fetch(ctx context.Context, address string, blockNum uint64) (*Info, error)
}

func normalize(address string) string {
	return strings.ToLower(address)
}
