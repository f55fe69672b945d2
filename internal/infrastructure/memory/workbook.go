package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/prodfilter/backend/internal/domain"
)

var _ domain.TableStore = (*Workbook)(nil)

// Workbook is a thread-safe in-memory set of named tables
type Workbook struct {
	tables map[string]*domain.Table
	mutex  sync.RWMutex
}

// NewWorkbook creates a new in-memory workbook
func NewWorkbook() *Workbook {
	return &Workbook{
		tables: make(map[string]*domain.Table),
	}
}

// ReadTable returns a copy of the named table
func (w *Workbook) ReadTable(ctx context.Context, name string) (*domain.Table, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	table, exists := w.tables[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingTable, name)
	}

	return copyTable(table), nil
}

// WriteTable stores a table under name, replacing any existing table with that name
func (w *Workbook) WriteTable(ctx context.Context, name string, headers []string, rows []domain.ProductRow) (string, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	// Store copies so later changes by the caller are not visible to readers
	w.tables[name] = copyTable(&domain.Table{Name: name, Headers: headers, Products: rows})
	return name, nil
}

// Names returns the table names in sorted order
func (w *Workbook) Names() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close is a no-op; tables live only in memory
func (w *Workbook) Close() error {
	return nil
}

func copyTable(t *domain.Table) *domain.Table {
	out := &domain.Table{
		Name:     t.Name,
		Headers:  append([]string(nil), t.Headers...),
		Products: make([]domain.ProductRow, len(t.Products)),
	}
	for i, row := range t.Products {
		out.Products[i] = append(domain.ProductRow(nil), row...)
	}
	return out
}
