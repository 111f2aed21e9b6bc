package domain

import (
	"math/big"
	"reflect"
	"testing"
)

func snapAt(block uint64) ReserveSnapshot {
	return ReserveSnapshot{Block: block, Reserve0: big.NewInt(int64(block)), Reserve1: big.NewInt(1)}
}

func TestSortedUniqueBlocks(t *testing.T) {
	in := []uint64{30, 10, 20, 10, 30}
	got := SortedUniqueBlocks(in)
	if want := []uint64{10, 20, 30}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if in[0] != 30 {
		t.Error("input was modified")
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name   string
		blocks []uint64
		size   int
		want   [][]uint64
	}{
		{"even", []uint64{1, 2, 3, 4}, 2, [][]uint64{{1, 2}, {3, 4}}},
		{"remainder", []uint64{1, 2, 3}, 2, [][]uint64{{1, 2}, {3}}},
		{"larger_than_input", []uint64{1, 2}, 10, [][]uint64{{1, 2}}},
		{"empty", nil, 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Chunk(tt.blocks, tt.size); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFillSnapshots(t *testing.T) {
	tests := []struct {
		name   string
		blocks []uint64
		exact  []uint64
		// want maps requested block to the block of the snapshot used
		want map[uint64]uint64
	}{
		{
			name:   "middle_snapshot_seeds_and_fills",
			blocks: []uint64{10, 20, 30},
			exact:  []uint64{20},
			want:   map[uint64]uint64{10: 20, 20: 20, 30: 20},
		},
		{
			name:   "forward_fill_uses_latest_earlier",
			blocks: []uint64{10, 20, 30, 40},
			exact:  []uint64{10, 30},
			want:   map[uint64]uint64{10: 10, 20: 10, 30: 30, 40: 30},
		},
		{
			name:   "all_exact",
			blocks: []uint64{1, 2},
			exact:  []uint64{1, 2},
			want:   map[uint64]uint64{1: 1, 2: 2},
		},
		{
			name:   "nothing_known",
			blocks: []uint64{1, 2},
			want:   map[uint64]uint64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exact := make(map[uint64]ReserveSnapshot)
			for _, b := range tt.exact {
				exact[b] = snapAt(b)
			}

			got := FillSnapshots(tt.blocks, exact)
			if len(got) != len(tt.want) {
				t.Fatalf("resolved %d blocks, want %d", len(got), len(tt.want))
			}
			for block, from := range tt.want {
				if got[block].Block != from {
					t.Errorf("block %d filled from %d, want %d", block, got[block].Block, from)
				}
			}
		})
	}
}
