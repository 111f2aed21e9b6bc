package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

// PriceSeries maps block number to USD price for one token. A missing
// block means the token cannot be priced there.
type PriceSeries map[uint64]decimal.Decimal

// At returns the price at block.
func (p PriceSeries) At(block uint64) (decimal.Decimal, bool) {
	price, ok := p[block]
	return price, ok
}

// SortedUniqueBlocks returns blocks deduplicated in ascending order.
func SortedUniqueBlocks(blocks []uint64) []uint64 {
	out := slices.Clone(blocks)
	slices.Sort(out)
	return slices.Compact(out)
}

// Chunk splits blocks into consecutive runs of at most size.
func Chunk(blocks []uint64, size int) [][]uint64 {
	if size <= 0 {
		size = len(blocks)
	}
	var out [][]uint64
	for len(blocks) > 0 {
		n := min(size, len(blocks))
		out = append(out, blocks[:n:n])
		blocks = blocks[n:]
	}
	return out
}

// FillSnapshots resolves a snapshot for each of blocks, which must be
// sorted and unique. Blocks without an exact snapshot take the most recent
// strictly-earlier one. Blocks before the first exact snapshot are seeded
// from it. If exact is empty nothing is resolved.
func FillSnapshots(blocks []uint64, exact map[uint64]ReserveSnapshot) map[uint64]ReserveSnapshot {
	out := make(map[uint64]ReserveSnapshot, len(blocks))

	first := -1
	for i, b := range blocks {
		if _, ok := exact[b]; ok {
			first = i
			break
		}
	}
	if first < 0 {
		return out
	}

	cur := exact[blocks[first]]
	for _, b := range blocks[:first] {
		out[b] = cur
	}
	for _, b := range blocks[first:] {
		if s, ok := exact[b]; ok {
			cur = s
		}
		out[b] = cur
	}
	return out
}
