package service

import (
	"time"

	"wwtpDashboard/internal/config"
)

type options struct {
	now     func() time.Time
	columns config.ImportColumns
}

type Option func(*options)

func defaultOptions() options {
	return options{
		now:     time.Now,
		columns: config.Default().Import.Columns,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithImportColumns sets the spreadsheet headers used by bulk import.
func WithImportColumns(columns config.ImportColumns) Option {
	return func(o *options) {
		o.columns = columns
	}
}
