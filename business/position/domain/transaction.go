// Package domain contains the core types of the position context.
package domain

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SimpleFi-finance/defi-analytics/internal/asset"
)

// TransactionType is the effect an on-chain event has on a position.
type TransactionType string

const (
	Invest      TransactionType = "INVEST"
	Redeem      TransactionType = "REDEEM"
	TransferIn  TransactionType = "TRANSFER_IN"
	TransferOut TransactionType = "TRANSFER_OUT"
)

// ParseTransactionType validates s.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case Invest, Redeem, TransferIn, TransferOut:
		return t, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Transaction is one immutable event in a position's history. Token amounts
// stay in their encoded token|kind|rawAmount form until they are valued.
type Transaction struct {
	ID                 string
	Hash               common.Hash
	BlockNumber        uint64
	Timestamp          time.Time
	Type               TransactionType
	Account            common.Address
	InputTokenAmounts  []string
	RewardTokenAmounts []string
	TransferredTo      common.Address
	TransferredFrom    common.Address
}

// InputBalances decodes InputTokenAmounts.
func (t Transaction) InputBalances() ([]asset.Balance, error) {
	return decodeBalances(t.InputTokenAmounts)
}

// RewardBalances decodes RewardTokenAmounts.
func (t Transaction) RewardBalances() ([]asset.Balance, error) {
	return decodeBalances(t.RewardTokenAmounts)
}

func decodeBalances(encoded []string) ([]asset.Balance, error) {
	out := make([]asset.Balance, 0, len(encoded))
	for _, s := range encoded {
		b, err := asset.ParseBalance(s)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Counterparty returns the address LP tokens moved to or from, for
// transfer legs only.
func (t Transaction) Counterparty() (common.Address, bool) {
	switch t.Type {
	case TransferOut:
		return t.TransferredTo, true
	case TransferIn:
		return t.TransferredFrom, true
	}
	return common.Address{}, false
}
