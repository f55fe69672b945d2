package excel

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/prodfilter/backend/internal/domain"
)

// writeProductsWorkbook creates an .xlsx with a Products sheet and returns its path
func writeProductsWorkbook(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "products.xlsx")
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("Products")
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	rows := [][]interface{}{
		{"SKU", "SALE_PRICE", "COLOR", "SIZE", "GENDER"},
		{"007", 19.99, "Red", "M", "Women"},
		{"B2", 45, "Blue", "L", "Men"},
		{"C3", "n/a", " Green ", "S"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow("Products", cell, &values))
	}
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestWorkbook_ReadTable(t *testing.T) {
	path := writeProductsWorkbook(t)
	workbook := NewWorkbook(path)

	table, err := workbook.ReadTable(context.Background(), "Products")
	require.NoError(t, err)

	assert.Equal(t, "Products", table.Name)
	assert.Equal(t, []string{"SKU", "SALE_PRICE", "COLOR", "SIZE", "GENDER"}, table.Headers)
	require.Len(t, table.Products, 3)

	assert.Equal(t, domain.ProductRow{"007", 19.99, "Red", "M", "Women"}, table.Products[0])
	assert.Equal(t, domain.ProductRow{"B2", 45.0, "Blue", "L", "Men"}, table.Products[1])
	// trailing blank cells are padded to the header width
	assert.Equal(t, domain.ProductRow{"C3", "n/a", " Green ", "S", ""}, table.Products[2])
}

func TestWorkbook_ReadTable_MissingSheet(t *testing.T) {
	workbook := NewWorkbook(writeProductsWorkbook(t))

	_, err := workbook.ReadTable(context.Background(), "Inventory")
	assert.ErrorIs(t, err, domain.ErrMissingTable)
}

func TestWorkbook_ReadTable_MissingFile(t *testing.T) {
	workbook := NewWorkbook(filepath.Join(t.TempDir(), "nope.xlsx"))

	_, err := workbook.ReadTable(context.Background(), "Products")
	assert.True(t, errors.Is(err, domain.ErrMissingTable), "error = %v", err)
}

func TestWorkbook_WriteTable(t *testing.T) {
	path := writeProductsWorkbook(t)
	workbook := NewWorkbook(path)
	ctx := context.Background()

	headers := []string{"SKU", "SALE_PRICE", "COLOR", "SIZE", "GENDER"}
	rows := []domain.ProductRow{{"B2", 45.0, "Blue", "L", "Men"}}

	name, err := workbook.WriteTable(ctx, "Filtered 3/4/2026, 3:07:09 PM", headers, rows)
	require.NoError(t, err)
	assert.Equal(t, "Filtered 3-4-2026 3-07-09 PM", name)

	got, err := workbook.ReadTable(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, headers, got.Headers)
	assert.Equal(t, rows, got.Products)

	// the source sheet is untouched
	products, err := workbook.ReadTable(ctx, "Products")
	require.NoError(t, err)
	assert.Len(t, products.Products, 3)
}

func TestWorkbook_WriteTable_ReplacesExisting(t *testing.T) {
	workbook := NewWorkbook(writeProductsWorkbook(t))
	ctx := context.Background()
	headers := []string{"SALE_PRICE"}

	_, err := workbook.WriteTable(ctx, "Results", headers, []domain.ProductRow{{1.0}, {2.0}, {3.0}})
	require.NoError(t, err)
	_, err = workbook.WriteTable(ctx, "Results", headers, []domain.ProductRow{{9.0}})
	require.NoError(t, err)

	got, err := workbook.ReadTable(ctx, "Results")
	require.NoError(t, err)
	assert.Equal(t, []domain.ProductRow{{9.0}}, got.Products)
}

func TestWorkbook_WriteTable_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	workbook := NewWorkbook(path)
	ctx := context.Background()

	name, err := workbook.WriteTable(ctx, "Results", []string{"COLOR"}, []domain.ProductRow{{"Red"}})
	require.NoError(t, err)
	assert.Equal(t, "Results", name)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Results"}, f.GetSheetList())
}

func TestWorkbook_WriteTable_ReplacesOnlySheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	workbook := NewWorkbook(path)
	ctx := context.Background()

	_, err := workbook.WriteTable(ctx, "Results", []string{"COLOR"}, []domain.ProductRow{{"Red"}, {"Blue"}})
	require.NoError(t, err)
	_, err = workbook.WriteTable(ctx, "Results", []string{"COLOR"}, []domain.ProductRow{{"Green"}})
	require.NoError(t, err)

	got, err := workbook.ReadTable(ctx, "Results")
	require.NoError(t, err)
	assert.Equal(t, []domain.ProductRow{{"Green"}}, got.Products)
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Results", "Results"},
		{"timestamp", "Filtered 12/31/2026, 11:59:59 PM", "Filtered 12-31-2026 11-59-59 PM"},
		{"brackets and wildcards", "a[b]*c?", "a(b)-c-"},
		{"quotes trimmed", "'Results'", "Results"},
		{"truncated to 31 runes", "Filtered products for the autumn catalogue", "Filtered products for the autum"},
		{"empty falls back", "   ", "Results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SheetName(tt.in))
		})
	}
}

func TestWorkbook_StoredName(t *testing.T) {
	workbook := NewWorkbook("unused.xlsx")

	assert.Equal(t, "Products", workbook.StoredName("'Products'"))
	assert.Equal(t, SheetName("Filtered 1/2/2026, 3:04:05 PM"), workbook.StoredName("Filtered 1/2/2026, 3:04:05 PM"))
}
