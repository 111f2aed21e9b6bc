package app

import (
	"context"

	"github.com/SimpleFi-finance/defi-analytics/business/position/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

// ReconstructionStats counts how fragments were classified.
type ReconstructionStats struct {
	Fragments     int
	Reconstructed int
	// Incomplete chains never reach a REDEEM in the observed data.
	Incomplete int
	// NotStarting fragments begin mid-lifecycle and were not consumed as
	// a continuation.
	NotStarting int
	// Untracked positions moved LP tokens through a non-eligible contract.
	Untracked int
	// NonChronological chains have a block number lower than an earlier
	// transaction's and are excluded.
	NonChronological int
}

// Reconstructor stitches raw fragments into complete positions.
type Reconstructor struct {
	log logger.LoggerInterface
}

func NewReconstructor(log logger.LoggerInterface) *Reconstructor {
	return &Reconstructor{log: log}
}

// Reconstruct merges fragments that continue each other through an
// eligible intermediary into invest-to-redeem positions, ordered by their
// starting fragment id. It is deterministic for a given input.
func (r *Reconstructor) Reconstruct(
	ctx context.Context,
	fragments map[domain.FragmentID][]domain.Transaction,
	eligible domain.AddressSet,
) ([]domain.Position, ReconstructionStats) {
	stats := ReconstructionStats{Fragments: len(fragments)}
	processed := make(map[domain.FragmentID]struct{}, len(fragments))
	var positions []domain.Position

	for _, id := range domain.SortedFragmentIDs(fragments) {
		if _, done := processed[id]; done {
			continue
		}
		processed[id] = struct{}{}

		txs := fragments[id]
		if len(txs) == 0 || txs[0].Type != domain.Invest {
			stats.NotStarting++
			continue
		}

		pos := domain.Position{
			ID:           id,
			Fragments:    []domain.FragmentID{id},
			Transactions: append([]domain.Transaction(nil), txs...),
		}

		last := txs[len(txs)-1]
		switch {
		case last.Type == domain.Redeem:
			// self-contained
		case last.Type == domain.TransferOut && eligible.Contains(last.TransferredTo):
			if !r.extend(&pos, fragments, processed, eligible) {
				stats.Incomplete++
				continue
			}

		case last.Type == domain.TransferOut:
			stats.Untracked++
			continue

		default:
			stats.Incomplete++
			continue
		}

		if !eligible.TransfersWithin(pos.Transactions) {
			stats.Untracked++
			continue
		}

		if !pos.Monotonic() {
			r.log.Warn(ctx, "dropping non-chronological position",
				"position", pos.ID.String(),
				"fragments", len(pos.Fragments))
			stats.NonChronological++
			continue
		}

		positions = append(positions, pos)
	}

	stats.Reconstructed = len(positions)
	return positions, stats
}

// extend appends continuation fragments at consecutive sequence numbers
// until one ends in REDEEM. A continuation must open with TRANSFER_IN from
// the eligible address the chain last transferred to; otherwise the chain
// stops and the fragment is left for its own turn. Consumed continuations
// are marked processed even when the chain turns out incomplete.
func (r *Reconstructor) extend(
	pos *domain.Position,
	fragments map[domain.FragmentID][]domain.Transaction,
	processed map[domain.FragmentID]struct{},
	eligible domain.AddressSet,
) bool {
	cur := pos.ID
	prev := pos.Transactions[len(pos.Transactions)-1]
	for {
		next := cur.Next()
		txs, ok := fragments[next]
		if !ok || len(txs) == 0 || !continues(prev, txs[0], eligible) {
			return false
		}

		processed[next] = struct{}{}
		pos.Fragments = append(pos.Fragments, next)
		pos.Transactions = append(pos.Transactions, txs...)

		prev = txs[len(txs)-1]
		if prev.Type == domain.Redeem {
			return true
		}
		cur = next
	}
}

// continues reports whether first picks up the LP tokens that prev handed
// to an eligible intermediary.
func continues(prev, first domain.Transaction, eligible domain.AddressSet) bool {
	return prev.Type == domain.TransferOut &&
		eligible.Contains(prev.TransferredTo) &&
		first.Type == domain.TransferIn &&
		first.TransferredFrom == prev.TransferredTo
}
