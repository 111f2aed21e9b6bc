package app

import "github.com/SimpleFi-finance/defi-analytics/business/position/domain"

// SingleLegPositions keeps positions with exactly one INVEST and one REDEEM.
func SingleLegPositions(positions []domain.Position) []domain.Position {
	out := make([]domain.Position, 0, len(positions))
	for _, p := range positions {
		if p.Count(domain.Invest) == 1 && p.Count(domain.Redeem) == 1 {
			out = append(out, p)
		}
	}
	return out
}
