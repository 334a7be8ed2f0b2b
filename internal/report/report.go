// Package report runs the export pipeline: for every configured provider,
// fetch each view sequentially, normalize and merge its rows into the
// provider table, then write one worksheet per provider and save the
// workbook.
package report

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"cloudreport/internal/errs"
	"cloudreport/internal/export"
	"cloudreport/internal/model"
	"cloudreport/internal/normalize"
	"cloudreport/internal/table"
	"cloudreport/internal/views"
)

// RowCursor yields raw rows one at a time, fetching pages on demand.
type RowCursor interface {
	Next(ctx context.Context) (model.RawRow, bool, error)
}

// Fetcher starts a fetch for one view and date range.
type Fetcher interface {
	Fetch(view model.ViewSpec, dates model.DateRange) RowCursor
}

// ErrorPolicy decides what a single view's fetch failure does to the run.
type ErrorPolicy string

const (
	// PolicySkip logs the failed view and continues; the view contributes
	// zero rows.
	PolicySkip ErrorPolicy = "skip"
	// PolicyAbort fails the whole run on the first view failure.
	PolicyAbort ErrorPolicy = "abort"
)

// ParsePolicy validates an error-policy flag value.
func ParsePolicy(value string) (ErrorPolicy, error) {
	switch ErrorPolicy(value) {
	case PolicySkip, PolicyAbort:
		return ErrorPolicy(value), nil
	default:
		return "", fmt.Errorf("unknown view error policy %q (want %s or %s)", value, PolicySkip, PolicyAbort)
	}
}

// Runner drives one export run.
type Runner struct {
	fetcher Fetcher
	logger  log.FieldLogger
	policy  ErrorPolicy
}

// NewRunner builds a runner.
func NewRunner(fetcher Fetcher, logger log.FieldLogger, policy ErrorPolicy) *Runner {
	return &Runner{fetcher: fetcher, logger: logger, policy: policy}
}

// Run executes the full pipeline and saves the workbook to outPath. Every
// provider in the catalog gets a worksheet, view failures permitting.
func (r *Runner) Run(ctx context.Context, catalog views.Catalog, dates model.DateRange, outPath string) error {
	workbook, err := export.NewWorkbook()
	if err != nil {
		return err
	}
	defer workbook.Close()

	totalRows := 0
	skippedViews := 0
	for _, provider := range catalog.Providers() {
		tbl := table.New()
		for _, view := range catalog.Views(provider) {
			viewLogger := r.logger.WithFields(log.Fields{
				"provider": provider,
				"view":     view.Name,
				"start":    dates.StartString(),
				"end":      dates.EndString(),
			})

			rows, err := r.collectView(ctx, tbl, view, dates)
			if err != nil {
				if errs.IsCode(err, errs.CodeDataProcessing) {
					// A half-normalized view must not land in the table.
					viewLogger.WithError(err).Error("view has unprocessable rows, skipping view")
					skippedViews++
					continue
				}
				if r.policy == PolicyAbort {
					viewLogger.WithError(err).Error("view fetch failed, aborting run")
					return errs.Wrapf(err, "fetching %s view %s failed", provider, view.Name)
				}
				viewLogger.WithError(err).Error("view fetch failed, skipping view")
				skippedViews++
				continue
			}
			totalRows += rows
			viewLogger.WithField("rows", rows).Info("view merged")
		}

		if err := workbook.WriteSheet(provider, tbl); err != nil {
			r.logger.WithField("provider", provider).WithError(err).Error("worksheet write failed")
			return err
		}
	}

	if err := workbook.Save(outPath); err != nil {
		r.logger.WithField("path", outPath).WithError(err).Error("workbook save failed")
		return err
	}

	r.logger.WithFields(log.Fields{
		"path":          outPath,
		"providers":     len(catalog),
		"rows":          totalRows,
		"skipped_views": skippedViews,
	}).Info("export complete")
	return nil
}

// collectView drains one view's cursor, normalizing every row, and appends
// the view's rows to the provider table only once the whole view succeeded,
// so a normalization failure mid-view leaves the table untouched.
func (r *Runner) collectView(ctx context.Context, tbl *table.Table, view model.ViewSpec, dates model.DateRange) (int, error) {
	type pending struct {
		columns []string
		row     model.Row
	}

	cursor := r.fetcher.Fetch(view, dates)
	collected := make([]pending, 0)
	for {
		raw, ok, err := cursor.Next(ctx)
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		row, columns, err := normalize.Normalize(raw, view)
		if err != nil {
			return 0, err
		}
		collected = append(collected, pending{columns: columns, row: row})
	}

	for _, item := range collected {
		tbl.Append(item.columns, item.row)
	}
	return len(collected), nil
}
