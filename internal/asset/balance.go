package asset

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ErrMalformedBalance is returned for strings not shaped token|kind|rawAmount.
var ErrMalformedBalance = errors.New("asset: malformed encoded balance")

// Balance is a decoded token|kind|rawAmount triple as emitted by the indexer.
type Balance struct {
	Token common.Address
	Kind  string
	Raw   *big.Int
}

// ParseBalance decodes an encoded balance. The token must be a hex address,
// the kind non-empty and the amount a non-negative base-10 integer.
func ParseBalance(s string) (Balance, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return Balance{}, fmt.Errorf("%w: %q has %d fields", ErrMalformedBalance, s, len(parts))
	}

	tokenHex, kind, amount := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
	if !common.IsHexAddress(tokenHex) {
		return Balance{}, fmt.Errorf("%w: %q is not an address", ErrMalformedBalance, tokenHex)
	}
	if kind == "" {
		return Balance{}, fmt.Errorf("%w: %q has empty kind", ErrMalformedBalance, s)
	}
	raw, ok := new(big.Int).SetString(amount, 10)
	if !ok || raw.Sign() < 0 {
		return Balance{}, fmt.Errorf("%w: %q is not a raw amount", ErrMalformedBalance, amount)
	}

	return Balance{Token: common.HexToAddress(tokenHex), Kind: kind, Raw: raw}, nil
}

// MustParseBalance is ParseBalance that panics, for fixtures.
func MustParseBalance(s string) Balance {
	b, err := ParseBalance(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Amount scales the raw value by decimals.
func (b Balance) Amount(decimals int32) decimal.Decimal {
	return ScaleDown(b.Raw, decimals)
}

func (b Balance) IsZero() bool {
	return b.Raw == nil || b.Raw.Sign() == 0
}

// String re-encodes the balance.
func (b Balance) String() string {
	raw := "0"
	if b.Raw != nil {
		raw = b.Raw.String()
	}
	return strings.ToLower(b.Token.Hex()) + "|" + b.Kind + "|" + raw
}
