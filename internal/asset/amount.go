package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrNilToken       = errors.New("asset: nil token")
	ErrNilRaw         = errors.New("asset: nil raw value")
	ErrNegativeAmount = errors.New("asset: negative amount")
	ErrTokenMismatch  = errors.New("asset: cannot operate on different tokens")
)

// Amount is an immutable quantity of a token in its smallest unit.
type Amount struct {
	raw   *big.Int
	token *Token
}

// NewAmount creates an Amount from a raw value.
func NewAmount(token *Token, raw *big.Int) Amount {
	if token == nil {
		panic(ErrNilToken)
	}
	if raw == nil {
		panic(ErrNilRaw)
	}
	if raw.Sign() < 0 {
		panic(ErrNegativeAmount)
	}
	return Amount{raw: new(big.Int).Set(raw), token: token}
}

// Zero creates a zero Amount of token.
func Zero(token *Token) Amount {
	return NewAmount(token, new(big.Int))
}

// Raw returns a copy of the raw value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

func (a Amount) Token() *Token {
	return a.token
}

func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

// Add sums two amounts of the same token.
func (a Amount) Add(b Amount) (Amount, error) {
	if !a.token.Equals(b.token) {
		return Amount{}, ErrTokenMismatch
	}
	return NewAmount(a.token, new(big.Int).Add(a.Raw(), b.Raw())), nil
}

// MustAdd adds two amounts, panics on error.
func (a Amount) MustAdd(b Amount) Amount {
	result, err := a.Add(b)
	if err != nil {
		panic(err)
	}
	return result
}

// ToDecimal scales the raw value down by the token's decimals.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil || a.token == nil {
		return decimal.Zero
	}
	return ScaleDown(a.raw, a.token.Decimals)
}

// Value returns the amount times a unit price.
func (a Amount) Value(price decimal.Decimal) decimal.Decimal {
	return a.ToDecimal().Mul(price)
}

// String returns a human-readable representation, e.g. "1.5 WETH".
func (a Amount) String() string {
	if a.token == nil {
		return "0 ???"
	}
	return fmt.Sprintf("%s %s", a.ToDecimal().String(), a.token.String())
}

// ScaleDown converts a raw integer to a decimal with the given decimals.
func ScaleDown(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}
