package domain

import "context"

// TableSource reads a full named table as header row + data rows.
// Implementations return an error wrapping ErrMissingTable when the table is absent.
type TableSource interface {
	ReadTable(ctx context.Context, name string) (*Table, error)
}

// ResultSink creates a named table holding headers and rows.
// An existing table with the same name is replaced. The returned name is the
// one the table was stored under, which may differ when the backend restricts names.
type ResultSink interface {
	WriteTable(ctx context.Context, name string, headers []string, rows []ProductRow) (string, error)
}

// TableStore is a storage backend acting as both source and sink
type TableStore interface {
	TableSource
	ResultSink
	Close() error
}

// TableNamer is implemented by sinks that adjust names before storing a table.
// StoredName returns the name WriteTable would store a table under.
type TableNamer interface {
	StoredName(name string) string
}
