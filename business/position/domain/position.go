package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// Position is one economic invest-to-redeem lifecycle, possibly stitched
// from several fragments. It is identified by its starting fragment.
type Position struct {
	ID           FragmentID
	Fragments    []FragmentID
	Transactions []Transaction
}

func (p Position) Account() common.Address { return p.ID.Account }
func (p Position) Market() common.Address  { return p.ID.Market }

func (p Position) First() Transaction { return p.Transactions[0] }
func (p Position) Last() Transaction  { return p.Transactions[len(p.Transactions)-1] }

// Count returns how many transactions have type t.
func (p Position) Count(t TransactionType) int {
	n := 0
	for _, tx := range p.Transactions {
		if tx.Type == t {
			n++
		}
	}
	return n
}

// Monotonic reports whether block numbers never decrease.
func (p Position) Monotonic() bool {
	for i := 1; i < len(p.Transactions); i++ {
		if p.Transactions[i].BlockNumber < p.Transactions[i-1].BlockNumber {
			return false
		}
	}
	return true
}

// AddressSet is a set of contract addresses.
type AddressSet map[common.Address]struct{}

func NewAddressSet(addrs ...common.Address) AddressSet {
	s := make(AddressSet, len(addrs))
	for _, a := range addrs {
		s[a] = struct{}{}
	}
	return s
}

func (s AddressSet) Add(a common.Address) {
	s[a] = struct{}{}
}

func (s AddressSet) Contains(a common.Address) bool {
	_, ok := s[a]
	return ok
}

// TransfersWithin reports whether every transfer leg's counterparty is in s.
func (s AddressSet) TransfersWithin(txs []Transaction) bool {
	for _, tx := range txs {
		if cp, ok := tx.Counterparty(); ok && !s.Contains(cp) {
			return false
		}
	}
	return true
}
