// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/SimpleFi-finance/defi-analytics/business/pricing/app"
	"github.com/SimpleFi-finance/defi-analytics/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Oracle       = di.NewToken[*app.Oracle]("pricing.Oracle")
	RewardValuer = di.NewToken[*app.RewardValuer]("pricing.RewardValuer")
)

// Private dependency tokens - internal to pricing module
var (
	ReserveSource = di.NewToken[app.ReserveSource]("pricing:reserveSource")
)

func GetOracle(c di.ServiceRegistry) *app.Oracle {
	return di.GetToken(c, Oracle)
}

func GetRewardValuer(c di.ServiceRegistry) *app.RewardValuer {
	return di.GetToken(c, RewardValuer)
}

func GetReserveSource(c di.ServiceRegistry) app.ReserveSource {
	return di.GetToken(c, ReserveSource)
}
