package usecase

import (
	"context"
	"log"

	"github.com/prodfilter/backend/internal/domain"
)

// FilterEngineConfig holds configuration for the filter engine
type FilterEngineConfig struct {
	EnableDebugLogging bool
}

// FilterEngine evaluates normalized criteria against product rows
type FilterEngine struct {
	enableDebugLogging bool
}

// NewFilterEngine creates a new filter engine with the given configuration
func NewFilterEngine(config FilterEngineConfig) *FilterEngine {
	return &FilterEngine{
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Apply returns the rows matching every criterion, in their original order.
// It fails fast with *domain.UnresolvableColumnError when a required column
// position is -1. Input rows are never modified; matches are copied.
func (e *FilterEngine) Apply(
	ctx context.Context,
	rows []domain.ProductRow,
	columns domain.ColumnPositions,
	criteria domain.Criteria,
) ([]domain.ProductRow, error) {
	if err := columns.Validate(); err != nil {
		return nil, err
	}

	result := make([]domain.ProductRow, 0)
	for i, row := range rows {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		keep := matches(row, columns, criteria)
		if e.enableDebugLogging {
			log.Printf("[FILTER] row %d price=%v color=%q size=%q gender=%q keep=%v",
				i, rowPrice(row, columns), normalizeText(cellAt(row, columns.Color)),
				normalizeText(cellAt(row, columns.Size)), normalizeText(cellAt(row, columns.Gender)), keep)
		}
		if keep {
			result = append(result, append(domain.ProductRow(nil), row...))
		}
	}

	return result, nil
}

// matches is the conjunction of the price bounds and the three text criteria
func matches(row domain.ProductRow, columns domain.ColumnPositions, c domain.Criteria) bool {
	price := rowPrice(row, columns)
	if price < c.MinPrice || price > c.MaxPrice {
		return false
	}
	return textMatches(c.Color, cellAt(row, columns.Color)) &&
		textMatches(c.Size, cellAt(row, columns.Size)) &&
		textMatches(c.Gender, cellAt(row, columns.Gender))
}

// textMatches treats an empty criterion as a wildcard
func textMatches(criterion string, cell any) bool {
	return criterion == "" || normalizeText(cell) == criterion
}

// rowPrice coerces the price cell; unparseable or NaN prices count as 0
func rowPrice(row domain.ProductRow, columns domain.ColumnPositions) float64 {
	price, ok := parseNumber(cellAt(row, columns.Price))
	if !ok {
		return 0
	}
	return price
}

// cellAt reads a cell, treating positions past the end of a short row as blank
func cellAt(row domain.ProductRow, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}
