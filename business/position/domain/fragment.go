package domain

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// FragmentID identifies one indexer-visible segment of a position:
// account-market-KIND-seq, e.g.
// 0x0000000000000d9054f605ca65a2647c2b521422-0xb84c45174bfc6b8f3eaecbae11dee63114f5c1b2-INVESTMENT-5.
type FragmentID struct {
	Account common.Address
	Market  common.Address
	Kind    string
	Seq     uint64
}

// ParseFragmentID splits the sequence number off the last dash and the
// account, market and kind off the rest.
func ParseFragmentID(s string) (FragmentID, error) {
	i := strings.LastIndexByte(s, '-')
	if i < 0 {
		return FragmentID{}, fmt.Errorf("fragment id %q: missing sequence number", s)
	}
	seq, err := strconv.ParseUint(s[i+1:], 10, 64)
	if err != nil {
		return FragmentID{}, fmt.Errorf("fragment id %q: bad sequence number: %w", s, err)
	}

	parts := strings.SplitN(s[:i], "-", 3)
	if len(parts) != 3 {
		return FragmentID{}, fmt.Errorf("fragment id %q: want account-market-kind-seq", s)
	}
	if !common.IsHexAddress(parts[0]) || !common.IsHexAddress(parts[1]) {
		return FragmentID{}, fmt.Errorf("fragment id %q: bad address", s)
	}

	return FragmentID{
		Account: common.HexToAddress(parts[0]),
		Market:  common.HexToAddress(parts[1]),
		Kind:    parts[2],
		Seq:     seq,
	}, nil
}

// String renders the id in the indexer's lowercase form.
func (f FragmentID) String() string {
	return strings.ToLower(f.Account.Hex()) + "-" +
		strings.ToLower(f.Market.Hex()) + "-" +
		f.Kind + "-" +
		strconv.FormatUint(f.Seq, 10)
}

// Next is the id of the immediately following fragment of the same
// account and market.
func (f FragmentID) Next() FragmentID {
	f.Seq++
	return f
}

// Compare orders by account, market, kind, then numeric sequence.
func (f FragmentID) Compare(o FragmentID) int {
	if c := bytes.Compare(f.Account[:], o.Account[:]); c != 0 {
		return c
	}
	if c := bytes.Compare(f.Market[:], o.Market[:]); c != 0 {
		return c
	}
	if c := strings.Compare(f.Kind, o.Kind); c != 0 {
		return c
	}
	return cmp.Compare(f.Seq, o.Seq)
}

// SortedFragmentIDs returns the keys of fragments in ascending order.
func SortedFragmentIDs[V any](fragments map[FragmentID]V) []FragmentID {
	ids := make([]FragmentID, 0, len(fragments))
	for id := range fragments {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, FragmentID.Compare)
	return ids
}
