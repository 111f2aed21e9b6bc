package domain

import "fmt"

// SkipReason is why a reconstructed position produced no record.
type SkipReason string

const (
	NotSkipped   SkipReason = ""
	SkipSameDate SkipReason = "same_date"
	SkipUnpriced SkipReason = "unpriced"
)

// BatchStats summarizes one market's run.
type BatchStats struct {
	Fragments     int
	Reconstructed int
	Priced        int

	SkippedUnpriced   int
	SkippedSameDate   int
	SkippedIncomplete int
	NotStarting       int
	Untracked         int
	NonChronological  int
	StrictFiltered    int

	FarmTransactions int
}

// Skip counts one skipped position.
func (s *BatchStats) Skip(reason SkipReason) {
	switch reason {
	case SkipSameDate:
		s.SkippedSameDate++
	case SkipUnpriced:
		s.SkippedUnpriced++
	}
}

// Skipped is every reconstructed position that produced no record.
func (s BatchStats) Skipped() int {
	return s.SkippedUnpriced + s.SkippedSameDate
}

func (s BatchStats) String() string {
	return fmt.Sprintf("reconstructed=%d priced=%d unpriced=%d same_date=%d incomplete=%d",
		s.Reconstructed, s.Priced, s.SkippedUnpriced, s.SkippedSameDate, s.SkippedIncomplete)
}
