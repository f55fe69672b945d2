package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/spf13/cast"

	"github.com/prodfilter/backend/internal/domain"
)

// pqUndefinedTable is the SQLSTATE for "relation does not exist"
const pqUndefinedTable = "42P01"

// Column types used for result tables
const (
	typeNumeric = "DOUBLE PRECISION"
	typeText    = "TEXT"
)

// StoreConfig holds configuration for the Postgres table store
type StoreConfig struct {
	// OrderColumn, when set, orders source rows by this column
	OrderColumn string
}

var _ domain.TableStore = (*Store)(nil)

// Store reads product tables from and writes result tables to Postgres
type Store struct {
	db          *sqlx.DB
	orderColumn string
}

// NewStore creates a store on an existing connection pool
func NewStore(db *sqlx.DB, config StoreConfig) *Store {
	return &Store{db: db, orderColumn: config.OrderColumn}
}

// Open connects to databaseURL and returns a store
func Open(ctx context.Context, databaseURL string, config StoreConfig) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewStore(db, config), nil
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// ReadTable selects every row of the named table; column names become the header row
func (s *Store) ReadTable(ctx context.Context, name string) (*domain.Table, error) {
	rows, err := s.db.QueryxContext(ctx, selectTableSQL(name, s.orderColumn))
	if err != nil {
		if isUndefinedTable(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingTable, name)
		}
		return nil, fmt.Errorf("failed to query table %s: %w", name, err)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}

	table := &domain.Table{Name: name, Headers: headers, Products: []domain.ProductRow{}}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", name, err)
		}
		table.Products = append(table.Products, scannedRow(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", name, err)
	}

	log.Printf("[POSTGRES] Read table %q (%d columns, %d rows)", name, len(headers), len(table.Products))
	return table, nil
}

// WriteTable drops and recreates the named table, then bulk-loads rows with COPY.
// Columns holding only numbers become DOUBLE PRECISION, everything else TEXT.
func (s *Store) WriteTable(ctx context.Context, name string, headers []string, rows []domain.ProductRow) (string, error) {
	columns := uniqueColumnNames(headers)
	types := inferColumnTypes(len(columns), rows)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+pq.QuoteIdentifier(name)); err != nil {
		return "", fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(name, columns, types)); err != nil {
		return "", fmt.Errorf("failed to create table %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(name, columns...))
	if err != nil {
		return "", fmt.Errorf("failed to prepare copy into %s: %w", name, err)
	}
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, copyArgs(row, types)...); err != nil {
			stmt.Close()
			return "", fmt.Errorf("failed to copy row into %s: %w", name, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return "", fmt.Errorf("failed to flush copy into %s: %w", name, err)
	}
	if err := stmt.Close(); err != nil {
		return "", fmt.Errorf("failed to close copy into %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit table %s: %w", name, err)
	}

	log.Printf("[POSTGRES] Wrote table %q (%d rows)", name, len(rows))
	return name, nil
}

func selectTableSQL(name, orderColumn string) string {
	query := "SELECT * FROM " + pq.QuoteIdentifier(name)
	if orderColumn != "" {
		query += " ORDER BY " + pq.QuoteIdentifier(orderColumn)
	}
	return query
}

func createTableSQL(name string, columns, types []string) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = pq.QuoteIdentifier(col) + " " + types[i]
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", pq.QuoteIdentifier(name), strings.Join(defs, ", "))
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable
}

// scannedRow turns driver values into cells; pq returns NUMERIC and some text as []byte
func scannedRow(values []interface{}) domain.ProductRow {
	row := make(domain.ProductRow, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case nil:
			row[i] = ""
		case []byte:
			row[i] = string(val)
		default:
			row[i] = val
		}
	}
	return row
}

// uniqueColumnNames makes header names usable as SQL columns: blanks get a
// positional name and repeats get a numeric suffix
func uniqueColumnNames(headers []string) []string {
	seen := make(map[string]int, len(headers))
	columns := make([]string, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = name + "_" + strconv.Itoa(n)
		}
		columns[i] = name
	}
	return columns
}

func inferColumnTypes(width int, rows []domain.ProductRow) []string {
	types := make([]string, width)
	for c := 0; c < width; c++ {
		types[c] = typeNumeric
		seenValue := false
		for _, row := range rows {
			if c >= len(row) || row[c] == nil || row[c] == "" {
				continue
			}
			seenValue = true
			if !isNumber(row[c]) {
				types[c] = typeText
				break
			}
		}
		if !seenValue {
			types[c] = typeText
		}
	}
	return types
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// copyArgs aligns a row with the column types, padding short rows with NULL
func copyArgs(row domain.ProductRow, types []string) []interface{} {
	args := make([]interface{}, len(types))
	for c, colType := range types {
		if c >= len(row) || row[c] == nil || row[c] == "" {
			args[c] = nil
			continue
		}
		if colType == typeNumeric {
			args[c] = cast.ToFloat64(row[c])
			continue
		}
		args[c] = cast.ToString(row[c])
	}
	return args
}
