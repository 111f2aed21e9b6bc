// Package di contains dependency injection tokens for the profitability context.
package di

import (
	"github.com/SimpleFi-finance/defi-analytics/business/profitability/app"
	"github.com/SimpleFi-finance/defi-analytics/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Analyzer   = di.NewToken[*app.Analyzer]("profitability.Analyzer")
	Collector  = di.NewToken[*app.Collector]("profitability.Collector")
	RecordSink = di.NewToken[app.RecordSink]("profitability.RecordSink")
)

// Private dependency tokens - internal to profitability module
var (
	Calculator = di.NewToken[*app.ProfitCalculator]("profitability:calculator")
)

func GetAnalyzer(c di.ServiceRegistry) *app.Analyzer {
	return di.GetToken(c, Analyzer)
}

func GetCollector(c di.ServiceRegistry) *app.Collector {
	return di.GetToken(c, Collector)
}

func GetRecordSink(c di.ServiceRegistry) app.RecordSink {
	return di.GetToken(c, RecordSink)
}

func GetCalculator(c di.ServiceRegistry) *app.ProfitCalculator {
	return di.GetToken(c, Calculator)
}
