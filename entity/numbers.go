package entity

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// DivisionPrecision is the number of decimal places kept by every
// non-exact division performed on entity values.
const DivisionPrecision int32 = 34

// FeeDenominator expresses fees in parts per million.
const FeeDenominator = 1_000_000

var (
	ZeroDecimal = decimal.Zero
	OneDecimal  = decimal.NewFromInt(1)

	half = decimal.RequireFromString("0.5")
)

// Int is a JSON friendly arbitrary precision integer. The zero value is 0.
type Int struct {
	v *big.Int
}

func NewInt(v *big.Int) Int {
	if v == nil {
		return Int{}
	}
	return Int{v: new(big.Int).Set(v)}
}

func IL(v int64) Int {
	return Int{v: big.NewInt(v)}
}

// Int returns a copy of the underlying value.
func (i Int) Int() *big.Int {
	if i.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(i.v)
}

func (i Int) Int64() int64 {
	if i.v == nil {
		return 0
	}
	return i.v.Int64()
}

func (i Int) Add(other Int) Int {
	return Int{v: new(big.Int).Add(i.Int(), other.Int())}
}

func (i Int) AddInt64(delta int64) Int {
	return Int{v: new(big.Int).Add(i.Int(), big.NewInt(delta))}
}

func (i Int) Sub(other Int) Int {
	return Int{v: new(big.Int).Sub(i.Int(), other.Int())}
}

func (i Int) Cmp(other Int) int {
	return i.Int().Cmp(other.Int())
}

func (i Int) Sign() int {
	if i.v == nil {
		return 0
	}
	return i.v.Sign()
}

func (i Int) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(i.Int(), 0)
}

func (i Int) String() string {
	if i.v == nil {
		return "0"
	}
	return i.v.String()
}

func (i Int) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

func (i *Int) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if raw == "null" {
		i.v = nil
		return nil
	}

	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}

	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return fmt.Errorf("invalid integer %q", raw)
	}
	i.v = v
	return nil
}

// ConvertTokenToDecimal turns a raw on-chain amount into its decimal
// representation, dividing by 10^decimals without loss.
func ConvertTokenToDecimal(amount *big.Int, decimals int64) decimal.Decimal {
	if amount == nil {
		return ZeroDecimal
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// ExponentToDecimal returns 10^decimals.
func ExponentToDecimal(decimals int64) decimal.Decimal {
	return decimal.New(1, int32(decimals))
}

// SafeDiv returns 0 when the divisor is 0.
func SafeDiv(amount0, amount1 decimal.Decimal) decimal.Decimal {
	if amount1.IsZero() {
		return ZeroDecimal
	}
	return amount0.DivRound(amount1, DivisionPrecision)
}

// ApplyFeeRate returns amount * fee / FeeDenominator, fee being expressed
// in parts per million. The result is exact.
func ApplyFeeRate(amount decimal.Decimal, fee Int) decimal.Decimal {
	return amount.Mul(fee.Decimal()).Shift(-6)
}

func Half(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(half)
}

func RoundPrice(price decimal.Decimal) decimal.Decimal {
	return price.Round(DivisionPrecision)
}
