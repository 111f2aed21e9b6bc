package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SimpleFi-finance/defi-analytics/business/position/domain"
)

func TestReconstruct_ChainsThroughFarm(t *testing.T) {
	fragments := map[domain.FragmentID][]domain.Transaction{
		fid(account, 1): {tx(domain.Invest, 1), out(2, farm)},
		fid(account, 2): {in(3, farm), tx(domain.Redeem, 4)},
	}

	positions, stats := NewReconstructor(&mockLogger{}).
		Reconstruct(context.Background(), fragments, domain.NewAddressSet(farm))

	require.Len(t, positions, 1)
	p := positions[0]
	assert.Equal(t, fid(account, 1), p.ID)
	assert.Len(t, p.Transactions, 4)
	assert.Equal(t, uint64(1), p.First().BlockNumber)
	assert.Equal(t, uint64(4), p.Last().BlockNumber)
	assert.Equal(t, []domain.FragmentID{fid(account, 1), fid(account, 2)}, p.Fragments)

	assert.Equal(t, ReconstructionStats{Fragments: 2, Reconstructed: 1}, stats)
}

func TestReconstruct_Classification(t *testing.T) {
	other := stranger
	tests := []struct {
		name      string
		fragments map[domain.FragmentID][]domain.Transaction
		wantIDs   []domain.FragmentID
		want      ReconstructionStats
	}{
		{
			name: "self contained",
			fragments: map[domain.FragmentID][]domain.Transaction{
				fid(account, 1): {tx(domain.Invest, 1), tx(domain.Redeem, 2)},
			},
			wantIDs: []domain.FragmentID{fid(account, 1)},
			want:    ReconstructionStats{Fragments: 1, Reconstructed: 1},
		},
		{
			name: "starts with transfer in",
			fragments: map[domain.FragmentID][]domain.Transaction{
				fid(account, 1): {in(1, farm), tx(domain.Redeem, 2)},
			},
			want: ReconstructionStats{Fragments: 1, NotStarting: 1},
		},
		{
			name: "chain without continuation",
			fragments: map[domain.FragmentID][]domain.Transaction{
				fid(account, 1): {tx(domain.Invest, 1), out(2, farm)},
			},
			want: ReconstructionStats{Fragments: 1, Incomplete: 1},
		},
		{
			name: "still open",
			fragments: map[domain.FragmentID][]domain.Transaction{
				fid(account, 1): {tx(domain.Invest, 1), tx(domain.Invest, 2)},
			},
			want: ReconstructionStats{Fragments: 1, Incomplete: 1},
		},
		{
			name: "transfer out to untracked contract",
			fragments: map[domain.FragmentID][]domain.Transaction{
				fid(account, 1): {tx(domain.Invest, 1), out(2, other)},
				fid(account, 2): {in(3, other), tx(domain.Redeem, 4)},
			},
			want: ReconstructionStats{Fragments: 2, Untracked: 1, NotStarting: 1},
		},
		{
			name: "self contained with untracked round trip",
			fragments: map[domain.FragmentID][]domain.Transaction{
				fid(account, 1): {tx(domain.Invest, 1), out(2, other), in(3, other), tx(domain.Redeem, 4)},
			},
			want: ReconstructionStats{Fragments: 1, Untracked: 1},
		},
		{
			name: "multi hop chain",
			fragments: map[domain.FragmentID][]domain.Transaction{
				fid(account, 1): {tx(domain.Invest, 1), out(2, farm)},
				fid(account, 2): {in(3, farm), out(4, farm)},
				fid(account, 3): {in(5, farm), tx(domain.Invest, 6), tx(domain.Redeem, 7)},
			},
			wantIDs: []domain.FragmentID{fid(account, 1)},
			want:    ReconstructionStats{Fragments: 3, Reconstructed: 1},
		},
		{
			name: "broken chain consumes its continuations",
			fragments: map[domain.FragmentID][]domain.Transaction{
				fid(account, 1): {tx(domain.Invest, 1), out(2, farm)},
				fid(account, 2): {in(3, farm), out(4, farm)},
				fid(account, 4): {tx(domain.Invest, 9), tx(domain.Redeem, 10)},
			},
			wantIDs: []domain.FragmentID{fid(account, 4)},
			want:    ReconstructionStats{Fragments: 3, Reconstructed: 1, Incomplete: 1},
		},
		{
			name: "open farm stake followed by new position",
			fragments: map[domain.FragmentID][]domain.Transaction{
				fid(account, 1): {tx(domain.Invest, 1), out(2, farm)},
				fid(account, 2): {tx(domain.Invest, 10), tx(domain.Redeem, 11)},
			},
			wantIDs: []domain.FragmentID{fid(account, 2)},
			want:    ReconstructionStats{Fragments: 2, Reconstructed: 1, Incomplete: 1},
		},
		{
			name: "continuation received from another address",
			fragments: map[domain.FragmentID][]domain.Transaction{
				fid(account, 1): {tx(domain.Invest, 1), out(2, farm)},
				fid(account, 2): {in(3, other), tx(domain.Redeem, 4)},
			},
			want: ReconstructionStats{Fragments: 2, Incomplete: 1, NotStarting: 1},
		},
		{
			name: "non chronological chain",
			fragments: map[domain.FragmentID][]domain.Transaction{
				fid(account, 1): {tx(domain.Invest, 5), out(6, farm)},
				fid(account, 2): {in(3, farm), tx(domain.Redeem, 4)},
			},
			want: ReconstructionStats{Fragments: 2, NonChronological: 1},
		},
		{
			name: "accounts are independent",
			fragments: map[domain.FragmentID][]domain.Transaction{
				fid(account, 1):  {tx(domain.Invest, 1), out(2, farm)},
				fid(stranger, 2): {in(3, farm), tx(domain.Redeem, 4)},
			},
			want: ReconstructionStats{Fragments: 2, Incomplete: 1, NotStarting: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			positions, stats := NewReconstructor(&mockLogger{}).
				Reconstruct(context.Background(), tt.fragments, domain.NewAddressSet(farm))

			var ids []domain.FragmentID
			for _, p := range positions {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.want, stats)
		})
	}
}

func TestReconstruct_Idempotent(t *testing.T) {
	fragments := map[domain.FragmentID][]domain.Transaction{
		fid(account, 1):  {tx(domain.Invest, 1), out(2, farm)},
		fid(account, 2):  {in(3, farm), tx(domain.Redeem, 4)},
		fid(account, 3):  {tx(domain.Invest, 5), tx(domain.Redeem, 6)},
		fid(stranger, 1): {tx(domain.Invest, 1), tx(domain.Redeem, 8)},
	}
	r := NewReconstructor(&mockLogger{})
	eligible := domain.NewAddressSet(farm)

	first, s1 := r.Reconstruct(context.Background(), fragments, eligible)
	second, s2 := r.Reconstruct(context.Background(), fragments, eligible)

	assert.Equal(t, first, second)
	assert.Equal(t, s1, s2)
	require.Len(t, first, 3)
	for _, p := range first {
		assert.True(t, p.Monotonic(), "position %s", p.ID)
	}
}

func TestReconstruct_DropsNonChronologicalChain(t *testing.T) {
	log := &mockLogger{}
	fragments := map[domain.FragmentID][]domain.Transaction{
		fid(account, 1): {tx(domain.Invest, 5), out(6, farm)},
		fid(account, 2): {in(3, farm), tx(domain.Redeem, 4)},
		fid(account, 3): {tx(domain.Invest, 7), tx(domain.Redeem, 8)},
	}

	positions, stats := NewReconstructor(log).
		Reconstruct(context.Background(), fragments, domain.NewAddressSet(farm))

	require.Len(t, positions, 1)
	assert.Equal(t, fid(account, 3), positions[0].ID)
	assert.Equal(t, 1, stats.NonChronological)
	assert.Len(t, log.warns, 1)
	for _, p := range positions {
		assert.LessOrEqual(t, p.First().BlockNumber, p.Last().BlockNumber)
	}
}

func TestSingleLegPositions(t *testing.T) {
	single := domain.Position{ID: fid(account, 1), Transactions: []domain.Transaction{
		tx(domain.Invest, 1), out(2, farm), in(3, farm), tx(domain.Redeem, 4),
	}}
	dca := domain.Position{ID: fid(account, 5), Transactions: []domain.Transaction{
		tx(domain.Invest, 5), tx(domain.Invest, 6), tx(domain.Redeem, 7),
	}}

	got := SingleLegPositions([]domain.Position{single, dca})
	require.Len(t, got, 1)
	assert.Equal(t, single.ID, got[0].ID)
}
