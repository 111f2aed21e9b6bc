package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// FarmMarket is a staking pool of a farm contract, id'd farmAddress-pid.
type FarmMarket struct {
	ID      string
	Farm    common.Address
	PoolID  string
	LPToken common.Address
}

// Reward is one token amount claimed in a farm transaction.
type Reward struct {
	Token         common.Address
	Amount        decimal.Decimal
	DecimalsKnown bool

	Price    decimal.Decimal
	Priced   bool
	ValueUSD decimal.Decimal
}

// FarmTransaction is a farm-side transaction with its decoded rewards.
type FarmTransaction struct {
	Transaction
	Rewards []Reward
}

// Attribution maps a position to the farm transactions it triggered.
// Positions without rewards are absent.
type Attribution map[FragmentID][]FarmTransaction

// ClaimedUSD sums reward values for id. ok is false if any reward lacks a
// price.
func (a Attribution) ClaimedUSD(id FragmentID) (total decimal.Decimal, ok bool) {
	total = decimal.Zero
	for _, ftx := range a[id] {
		for _, r := range ftx.Rewards {
			if !r.Priced {
				return decimal.Zero, false
			}
			total = total.Add(r.ValueUSD)
		}
	}
	return total, true
}

// TransactionCount is the number of attributed farm transactions.
func (a Attribution) TransactionCount() int {
	n := 0
	for _, txs := range a {
		n += len(txs)
	}
	return n
}
