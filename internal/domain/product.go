package domain

// Required column names, matched exactly against the header row
const (
	ColumnPrice  = "SALE_PRICE"
	ColumnColor  = "COLOR"
	ColumnSize   = "SIZE"
	ColumnGender = "GENDER"
)

// DefaultSourceTable is the table the product rows are read from
const DefaultSourceTable = "Products"

// ProductRow is one data record, positionally aligned with the header row.
// Cells keep whatever type the table source produced (string, float64, int64, ...).
type ProductRow []any

// Table is a header row plus its ordered data rows
type Table struct {
	Name     string       `json:"name"`
	Headers  []string     `json:"headers"`
	Products []ProductRow `json:"products"`
}

// ColumnPositions holds the zero-based offsets of the required columns.
// An offset of -1 means the column was not found in the header row.
type ColumnPositions struct {
	Price  int `json:"price"`
	Color  int `json:"color"`
	Size   int `json:"size"`
	Gender int `json:"gender"`
}

// Validate returns an *UnresolvableColumnError naming every missing column
func (p ColumnPositions) Validate() error {
	var missing []string
	if p.Price < 0 {
		missing = append(missing, ColumnPrice)
	}
	if p.Color < 0 {
		missing = append(missing, ColumnColor)
	}
	if p.Size < 0 {
		missing = append(missing, ColumnSize)
	}
	if p.Gender < 0 {
		missing = append(missing, ColumnGender)
	}
	if len(missing) > 0 {
		return &UnresolvableColumnError{Missing: missing}
	}
	return nil
}

// PriceSummary describes the coerced prices of a result set
type PriceSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// FilterOutcome is what one filter invocation hands back to the caller
type FilterOutcome struct {
	RunID      string       `json:"runId"`
	Message    string       `json:"message"`
	ResultName string       `json:"newSheetName,omitempty"`
	Headers    []string     `json:"headers"`
	Products   []ProductRow `json:"products"`
	Criteria   Criteria     `json:"criteria"`
	Matched    int          `json:"matched"`
	Total      int          `json:"total"`
	Summary    PriceSummary `json:"summary"`
}
