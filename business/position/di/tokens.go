// Package di contains dependency injection tokens for the position context.
package di

import (
	"github.com/SimpleFi-finance/defi-analytics/business/position/app"
	"github.com/SimpleFi-finance/defi-analytics/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PositionSource = di.NewToken[app.PositionSource]("position.PositionSource")
	Reconstructor  = di.NewToken[*app.Reconstructor]("position.Reconstructor")
	Correlator     = di.NewToken[*app.Correlator]("position.Correlator")
)

func GetPositionSource(c di.ServiceRegistry) app.PositionSource {
	return di.GetToken(c, PositionSource)
}

func GetReconstructor(c di.ServiceRegistry) *app.Reconstructor {
	return di.GetToken(c, Reconstructor)
}

func GetCorrelator(c di.ServiceRegistry) *app.Correlator {
	return di.GetToken(c, Correlator)
}
