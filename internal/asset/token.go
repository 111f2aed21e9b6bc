package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MaxDecimals bounds the decimals accepted for an ERC20 token.
const MaxDecimals = 36

// Token is the metadata of an ERC20 token. The address is its identity;
// symbol is display-only.
type Token struct {
	Address  common.Address
	Symbol   string
	Decimals int32
}

// NewToken creates a Token, panicking on out-of-range decimals.
func NewToken(address common.Address, symbol string, decimals int32) *Token {
	if decimals < 0 || decimals > MaxDecimals {
		panic(fmt.Sprintf("asset: suspicious decimals %d for %s", decimals, address.Hex()))
	}
	return &Token{Address: address, Symbol: symbol, Decimals: decimals}
}

// String returns the symbol, or the short hex address when unnamed.
func (t *Token) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	hex := t.Address.Hex()
	return hex[:6] + "…" + hex[len(hex)-4:]
}

// Equals compares tokens by address.
func (t *Token) Equals(other *Token) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Address == other.Address
}
