// Package sheets defines the spreadsheet mirror ports.
package sheets

import "context"

type (
	// TableWriter replaces the full contents of a named tab.
	TableWriter interface {
		ReplaceTable(ctx context.Context, tab string, header []string, rows [][]string) error
	}

	// TableReader returns every row of a tab, header included.
	TableReader interface {
		ReadTable(ctx context.Context, tab string) ([][]string, error)
	}

	// Mirror is a spreadsheet the worker can compare against and rewrite.
	Mirror interface {
		TableReader
		TableWriter
	}
)
