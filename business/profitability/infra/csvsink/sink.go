// Package csvsink writes profitability records as one CSV file per target.
package csvsink

import (
	"context"
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/SimpleFi-finance/defi-analytics/business/profitability/app"
	"github.com/SimpleFi-finance/defi-analytics/business/profitability/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/apperror"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

var _ app.RecordSink = (*Sink)(nil)

// Sink lays files out as <dir>/<dataset>/<name>.csv.
type Sink struct {
	dir string
	log logger.LoggerInterface
}

func New(dir string, log logger.LoggerInterface) *Sink {
	return &Sink{dir: dir, log: log}
}

// Path is where target's records go.
func (s *Sink) Path(t app.Target) string {
	return filepath.Join(s.dir, t.Dataset, t.Name+".csv")
}

func (s *Sink) Exists(ctx context.Context, t app.Target) (bool, error) {
	_, err := os.Stat(s.Path(t))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, apperror.New(apperror.CodeSinkWriteFailed, apperror.WithCause(err), apperror.WithContext(s.Path(t)))
	}
}

// Write replaces the target's file. The file only appears once fully
// written, so an interrupted run never leaves a file that Exists accepts.
func (s *Sink) Write(ctx context.Context, t app.Target, records []*domain.Record) error {
	path := s.Path(t)
	if err := s.write(path, records); err != nil {
		return apperror.New(apperror.CodeSinkWriteFailed, apperror.WithCause(err), apperror.WithContext(path))
	}
	s.log.Info(ctx, "records written", "path", path, "records", len(records))
	return nil
}

func (s *Sink) write(path string, records []*domain.Record) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(domain.Header); err != nil {
		return err
	}
	for _, r := range records {
		if err = w.Write(r.Row()); err != nil {
			return err
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
