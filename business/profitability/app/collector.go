package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/SimpleFi-finance/defi-analytics/internal/health"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

// ProgressReporter receives collection progress, e.g. the health server.
type ProgressReporter interface {
	SetProgress(p health.Progress)
}

// Summary counts what a collection did.
type Summary struct {
	Collected int
	Skipped   int
	Failed    int
	Records   int
}

// Collector analyzes targets in order and writes each one's records.
type Collector struct {
	analyzer *Analyzer
	sink     RecordSink
	progress ProgressReporter
	log      logger.LoggerInterface
}

// NewCollector creates a Collector. progress may be nil.
func NewCollector(analyzer *Analyzer, sink RecordSink, progress ProgressReporter, log logger.LoggerInterface) *Collector {
	return &Collector{analyzer: analyzer, sink: sink, progress: progress, log: log}
}

// ReportTo sends progress to p from the next Collect on.
func (c *Collector) ReportTo(p ProgressReporter) {
	c.progress = p
}

// Collect runs every target whose output does not exist yet. A failing
// target does not stop the others; all failures are returned joined.
func (c *Collector) Collect(ctx context.Context, targets []Target) (Summary, error) {
	var (
		sum  Summary
		errs []error
	)

	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		c.report(t, i, sum, len(targets))

		exists, err := c.sink.Exists(ctx, t)
		if err != nil {
			sum.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		if exists {
			c.log.Info(ctx, "output exists, skipping", "dataset", t.Dataset, "name", t.Name)
			sum.Skipped++
			continue
		}

		res, err := c.analyzer.Run(ctx, t)
		if err != nil {
			c.log.Error(ctx, "market failed", "name", t.Name, "market", t.Market.Hex(), "error", err)
			sum.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}

		if err := c.sink.Write(ctx, t, res.Records); err != nil {
			c.log.Error(ctx, "writing records failed", "name", t.Name, "error", err)
			sum.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		sum.Collected++
		sum.Records += len(res.Records)
	}

	c.report(Target{}, len(targets), sum, len(targets))
	return sum, errors.Join(errs...)
}

func (c *Collector) report(current Target, done int, sum Summary, total int) {
	if c.progress == nil {
		return
	}
	c.progress.SetProgress(health.Progress{
		Current: current.Name,
		Done:    done,
		Failed:  sum.Failed,
		Total:   total,
	})
}
