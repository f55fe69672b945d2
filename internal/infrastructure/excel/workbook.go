package excel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/prodfilter/backend/internal/domain"
)

// maxSheetNameLength is the longest sheet name Excel accepts
const maxSheetNameLength = 31

// sheetNameReplacer swaps out the characters Excel forbids in sheet names
var sheetNameReplacer = strings.NewReplacer(
	", ", " ", ":", "-", "/", "-", "\\", "-", "?", "-", "*", "-", "[", "(", "]", ")",
)

var (
	_ domain.TableStore = (*Workbook)(nil)
	_ domain.TableNamer = (*Workbook)(nil)
)

// Workbook reads product sheets from and writes result sheets to an .xlsx file.
// The file is reopened on every call so each invocation sees a fresh snapshot.
type Workbook struct {
	path  string
	mutex sync.Mutex
}

// NewWorkbook creates a workbook adapter for the file at path
func NewWorkbook(path string) *Workbook {
	return &Workbook{path: path}
}

// Path returns the workbook file path
func (w *Workbook) Path() string {
	return w.path
}

// ReadTable reads the named sheet: first row as headers, remaining rows as products.
// Short rows are padded to the header width with empty cells.
func (w *Workbook) ReadTable(ctx context.Context, name string) (*domain.Table, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (workbook %s not found)", domain.ErrMissingTable, name, w.path)
		}
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(name); err != nil || idx == -1 {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingTable, name)
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	table := &domain.Table{Name: name, Headers: []string{}, Products: []domain.ProductRow{}}
	if len(rows) == 0 {
		return table, nil
	}

	table.Headers = append(table.Headers, rows[0]...)
	width := len(table.Headers)
	for r := 1; r < len(rows); r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(rows[r]) > width {
			width = len(rows[r])
		}
		row := make(domain.ProductRow, width)
		for c := 0; c < width; c++ {
			raw := ""
			if c < len(rows[r]) {
				raw = rows[r][c]
			}
			row[c] = typedCell(f, name, c+1, r+1, raw)
		}
		table.Products = append(table.Products, row)
	}

	log.Printf("[EXCEL] Read sheet %q from %s (%d columns, %d rows)", name, w.path, len(table.Headers), len(table.Products))
	return table, nil
}

// WriteTable writes headers and rows to a sheet, replacing any sheet with the same name.
// The name is adjusted to Excel's rules; the adjusted name is returned.
func (w *Workbook) WriteTable(ctx context.Context, name string, headers []string, rows []domain.ProductRow) (string, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	sheet := SheetName(name)

	f, created, err := w.openOrCreate()
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := replaceSheet(f, sheet); err != nil {
		return "", fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	if created && sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return "", fmt.Errorf("failed to remove default sheet: %w", err)
		}
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", fmt.Errorf("failed to write header row: %w", err)
	}

	for r, row := range rows {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return "", err
		}
		values := make([]interface{}, len(row))
		copy(values, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return "", fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	if created {
		err = f.SaveAs(w.path)
	} else {
		err = f.Save()
	}
	if err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	log.Printf("[EXCEL] Wrote sheet %q to %s (%d rows)", sheet, w.path, len(rows))
	return sheet, nil
}

// StoredName returns the sheet name WriteTable uses for name
func (w *Workbook) StoredName(name string) string {
	return SheetName(name)
}

// Close is a no-op; files are opened and closed per call
func (w *Workbook) Close() error {
	return nil
}

func (w *Workbook) openOrCreate() (*excelize.File, bool, error) {
	if _, err := os.Stat(w.path); errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open workbook: %w", err)
	}
	return f, false, nil
}

// replaceSheet leaves an empty sheet called name in f.
// Excel refuses to delete the last sheet, so a placeholder is used in that case.
func replaceSheet(f *excelize.File, name string) error {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx == -1 {
		_, err := f.NewSheet(name)
		return err
	}

	const placeholder = "__replacing__"
	onlySheet := f.SheetCount == 1
	if onlySheet {
		if _, err := f.NewSheet(placeholder); err != nil {
			return err
		}
	}
	if err := f.DeleteSheet(name); err != nil {
		return err
	}
	newIdx, err := f.NewSheet(name)
	if err != nil {
		return err
	}
	if onlySheet {
		f.SetActiveSheet(newIdx)
		return f.DeleteSheet(placeholder)
	}
	return nil
}

// typedCell converts a raw cell string to float64 or bool when the cell holds one
func typedCell(f *excelize.File, sheet string, col, row int, raw string) any {
	if raw == "" {
		return ""
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	cellType, err := f.GetCellType(sheet, ref)
	if err != nil {
		return raw
	}

	switch cellType {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return raw
}

// SheetName adapts a table name to Excel's sheet naming rules
func SheetName(name string) string {
	name = strings.Trim(sheetNameReplacer.Replace(strings.TrimSpace(name)), "'")
	if runes := []rune(name); len(runes) > maxSheetNameLength {
		name = strings.TrimSpace(string(runes[:maxSheetNameLength]))
	}
	if name == "" {
		return "Results"
	}
	return name
}
