// Package domain contains the core types of the pricing context: pool
// reserve snapshots and the reserve-ratio price formulas built on them.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ReserveSnapshot is the state of a two-token pool at one block.
type ReserveSnapshot struct {
	Block    uint64
	Token0   common.Address
	Reserve0 *big.Int
	Token1   common.Address
	Reserve1 *big.Int
}

// Has reports whether token is one side of the pool.
func (s ReserveSnapshot) Has(token common.Address) bool {
	return s.Token0 == token || s.Token1 == token
}

// Split returns the reserve of token and the reserve of the other side.
// ok is false if token is not in the pool.
func (s ReserveSnapshot) Split(token common.Address) (mine, other *big.Int, ok bool) {
	switch token {
	case s.Token0:
		return s.Reserve0, s.Reserve1, true
	case s.Token1:
		return s.Reserve1, s.Reserve0, true
	}
	return nil, nil, false
}

// Empty reports whether either reserve is missing or zero.
func (s ReserveSnapshot) Empty() bool {
	return s.Reserve0 == nil || s.Reserve1 == nil ||
		s.Reserve0.Sign() <= 0 || s.Reserve1.Sign() <= 0
}
