package sheets

import (
	"github.com/spf13/cast"

	"github.com/prodfilter/backend/internal/domain"
)

// MapToTable converts a values response into a table. The first row is the
// header row; data rows are padded to the header width because the API omits
// trailing empty cells.
func MapToTable(name string, values *ValueRange) *domain.Table {
	table := &domain.Table{
		Name:     name,
		Headers:  []string{},
		Products: []domain.ProductRow{},
	}
	if values == nil || len(values.Values) == 0 {
		return table
	}

	table.Headers = extractHeaders(values.Values[0])

	for _, cells := range values.Values[1:] {
		table.Products = append(table.Products, mapRow(cells, len(table.Headers)))
	}

	return table
}

// extractHeaders stringifies the header cells
func extractHeaders(cells []any) []string {
	headers := make([]string, len(cells))
	for i, cell := range cells {
		headers[i] = cast.ToString(cell)
	}
	return headers
}

// mapRow copies cells and pads the row to width with blank cells
func mapRow(cells []any, width int) domain.ProductRow {
	size := len(cells)
	if width > size {
		size = width
	}

	row := make(domain.ProductRow, size)
	for i := range row {
		if i < len(cells) && cells[i] != nil {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
