package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prodfilter/backend/internal/domain"
)

// MockTableSource is a mock implementation of domain.TableSource
type MockTableSource struct {
	tables    map[string]*domain.Table
	readError error
	readNames []string
}

func NewMockTableSource() *MockTableSource {
	return &MockTableSource{tables: make(map[string]*domain.Table)}
}

func (m *MockTableSource) ReadTable(ctx context.Context, name string) (*domain.Table, error) {
	m.readNames = append(m.readNames, name)
	if m.readError != nil {
		return nil, m.readError
	}
	table, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingTable, name)
	}
	return table, nil
}

// MockResultSink is a mock implementation of domain.ResultSink
type MockResultSink struct {
	writeError  error
	writeCalled bool
	name        string
	headers     []string
	rows        []domain.ProductRow
}

func NewMockResultSink() *MockResultSink {
	return &MockResultSink{}
}

func (m *MockResultSink) WriteTable(ctx context.Context, name string, headers []string, rows []domain.ProductRow) (string, error) {
	m.writeCalled = true
	if m.writeError != nil {
		return "", m.writeError
	}
	m.name = name
	m.headers = headers
	m.rows = rows
	return name, nil
}

// namingSink stores tables under trimmed, quote-free names
type namingSink struct {
	*MockResultSink
}

func (n namingSink) StoredName(name string) string {
	return strings.Trim(strings.TrimSpace(name), "'")
}

func productsTable() *domain.Table {
	return &domain.Table{
		Name:    "Products",
		Headers: []string{"SKU", "SALE_PRICE", "COLOR", "SIZE", "GENDER"},
		Products: []domain.ProductRow{
			{"A1", 19.99, "Red", "M", "Women"},
			{"B2", 45.00, "Blue", "L", "Men"},
			{"C3", 60.00, "Blue", "M", "Women"},
		},
	}
}

func fixedClock() time.Time {
	return time.Date(2026, time.March, 4, 15, 7, 9, 0, time.UTC)
}

func TestNewFilterService(t *testing.T) {
	t.Run("creates service with default values", func(t *testing.T) {
		svc := NewFilterService(NewMockTableSource(), NewMockResultSink(), FilterServiceConfig{})
		if svc == nil {
			t.Fatal("expected service to be created")
		}
		if svc.sourceTable != "Products" {
			t.Errorf("sourceTable = %q, want Products", svc.sourceTable)
		}
		if svc.resultPolicy != ResultPolicyTimestamp {
			t.Errorf("resultPolicy = %q, want %q", svc.resultPolicy, ResultPolicyTimestamp)
		}
		if svc.resultName != "Results" {
			t.Errorf("resultName = %q, want Results", svc.resultName)
		}
	})

	t.Run("creates service with custom values", func(t *testing.T) {
		svc := NewFilterService(NewMockTableSource(), NewMockResultSink(), FilterServiceConfig{
			SourceTable:  "Catalog",
			ResultPolicy: ResultPolicyFixed,
			ResultName:   "Matches",
		})
		if svc.sourceTable != "Catalog" {
			t.Errorf("sourceTable = %q, want Catalog", svc.sourceTable)
		}
		if svc.resultPolicy != ResultPolicyFixed {
			t.Errorf("resultPolicy = %q, want %q", svc.resultPolicy, ResultPolicyFixed)
		}
		if svc.resultName != "Matches" {
			t.Errorf("resultName = %q, want Matches", svc.resultName)
		}
	})
}

func TestFilterProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("writes matches to a timestamped result table", func(t *testing.T) {
		source := NewMockTableSource()
		source.tables["Products"] = productsTable()
		sink := NewMockResultSink()
		svc := NewFilterService(source, sink, FilterServiceConfig{Now: fixedClock})

		outcome, err := svc.FilterProducts(ctx, &domain.RawCriteria{MinPrice: "20", Color: "BLUE"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if sink.name != "Filtered 3/4/2026, 3:07:09 PM" {
			t.Errorf("result name = %q, want timestamped name", sink.name)
		}
		if outcome.ResultName != sink.name {
			t.Errorf("ResultName = %q, want %q", outcome.ResultName, sink.name)
		}
		if len(sink.rows) != 2 {
			t.Fatalf("written rows = %d, want 2", len(sink.rows))
		}
		if sink.rows[0][0] != "B2" || sink.rows[1][0] != "C3" {
			t.Errorf("written rows = %v, want B2 then C3", sink.rows)
		}
		if len(sink.headers) != 5 || sink.headers[1] != "SALE_PRICE" {
			t.Errorf("written headers = %v, want source headers", sink.headers)
		}
		if outcome.Matched != 2 || outcome.Total != 3 {
			t.Errorf("Matched/Total = %d/%d, want 2/3", outcome.Matched, outcome.Total)
		}
		if outcome.Summary.Min != 45 || outcome.Summary.Max != 60 {
			t.Errorf("Summary = %+v, want min 45 max 60", outcome.Summary)
		}
		if outcome.Message != "Done! You can see the results in your sheet 'Filtered 3/4/2026, 3:07:09 PM'!" {
			t.Errorf("Message = %q", outcome.Message)
		}
		if outcome.RunID == "" {
			t.Error("expected RunID to be set")
		}
	})

	t.Run("uses fixed result name when configured", func(t *testing.T) {
		source := NewMockTableSource()
		source.tables["Products"] = productsTable()
		sink := NewMockResultSink()
		svc := NewFilterService(source, sink, FilterServiceConfig{ResultPolicy: ResultPolicyFixed})

		outcome, err := svc.FilterProducts(ctx, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sink.name != "Results" {
			t.Errorf("result name = %q, want Results", sink.name)
		}
		if outcome.Matched != 3 {
			t.Errorf("Matched = %d, want 3", outcome.Matched)
		}
	})

	t.Run("returns ErrMissingTable when source table is absent", func(t *testing.T) {
		source := NewMockTableSource()
		sink := NewMockResultSink()
		svc := NewFilterService(source, sink, FilterServiceConfig{})

		_, err := svc.FilterProducts(ctx, &domain.RawCriteria{})
		if !errors.Is(err, domain.ErrMissingTable) {
			t.Errorf("error = %v, want ErrMissingTable", err)
		}
		if sink.writeCalled {
			t.Error("sink should not be written when the source is missing")
		}
	})

	t.Run("fails fast on unresolvable columns", func(t *testing.T) {
		source := NewMockTableSource()
		source.tables["Products"] = &domain.Table{
			Headers:  []string{"SALE_PRICE", "COLOUR", "SIZE", "GENDER"},
			Products: []domain.ProductRow{{10.0, "Red", "M", "Men"}},
		}
		sink := NewMockResultSink()
		svc := NewFilterService(source, sink, FilterServiceConfig{})

		_, err := svc.FilterProducts(ctx, &domain.RawCriteria{})
		if !errors.Is(err, domain.ErrUnresolvableColumn) {
			t.Errorf("error = %v, want ErrUnresolvableColumn", err)
		}
		if sink.writeCalled {
			t.Error("sink should not be written when columns are missing")
		}
	})

	t.Run("propagates source errors unchanged", func(t *testing.T) {
		readErr := errors.New("disk on fire")
		source := NewMockTableSource()
		source.readError = readErr
		svc := NewFilterService(source, NewMockResultSink(), FilterServiceConfig{})

		_, err := svc.FilterProducts(ctx, nil)
		if err != readErr {
			t.Errorf("error = %v, want %v", err, readErr)
		}
	})

	t.Run("wraps sink errors", func(t *testing.T) {
		writeErr := errors.New("quota exceeded")
		source := NewMockTableSource()
		source.tables["Products"] = productsTable()
		sink := NewMockResultSink()
		sink.writeError = writeErr
		svc := NewFilterService(source, sink, FilterServiceConfig{})

		_, err := svc.FilterProducts(ctx, nil)
		if !errors.Is(err, domain.ErrSinkFailure) {
			t.Errorf("error = %v, want ErrSinkFailure", err)
		}
		if !errors.Is(err, writeErr) {
			t.Errorf("error = %v, want to wrap %v", err, writeErr)
		}
	})

	t.Run("reads the configured source table", func(t *testing.T) {
		source := NewMockTableSource()
		source.tables["Catalog"] = productsTable()
		svc := NewFilterService(source, NewMockResultSink(), FilterServiceConfig{SourceTable: "Catalog"})

		if _, err := svc.FilterProducts(ctx, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(source.readNames) != 1 || source.readNames[0] != "Catalog" {
			t.Errorf("read tables = %v, want [Catalog]", source.readNames)
		}
	})

	t.Run("refuses a fixed result name equal to the source table", func(t *testing.T) {
		tests := []struct {
			name       string
			resultName string
			sink       func(*MockResultSink) domain.ResultSink
		}{
			{name: "same name", resultName: "Products", sink: func(m *MockResultSink) domain.ResultSink { return m }},
			{name: "different case", resultName: "products", sink: func(m *MockResultSink) domain.ResultSink { return m }},
			{name: "same once stored", resultName: "'PRODUCTS'", sink: func(m *MockResultSink) domain.ResultSink { return namingSink{m} }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				source := NewMockTableSource()
				source.tables["Products"] = productsTable()
				sink := NewMockResultSink()
				svc := NewFilterService(source, tt.sink(sink), FilterServiceConfig{
					ResultPolicy: ResultPolicyFixed,
					ResultName:   tt.resultName,
				})

				_, err := svc.FilterProducts(ctx, &domain.RawCriteria{Color: "blue"})
				if !errors.Is(err, domain.ErrInvalidRequest) {
					t.Errorf("error = %v, want ErrInvalidRequest", err)
				}
				if sink.writeCalled {
					t.Error("sink should not be written when it would replace the source")
				}
				if got := len(source.tables["Products"].Products); got != 3 {
					t.Errorf("source rows = %d, want 3", got)
				}
			})
		}
	})

	t.Run("preview ignores result name collisions", func(t *testing.T) {
		source := NewMockTableSource()
		source.tables["Products"] = productsTable()
		svc := NewFilterService(source, NewMockResultSink(), FilterServiceConfig{
			ResultPolicy: ResultPolicyFixed,
			ResultName:   "products",
		})

		if _, err := svc.Preview(ctx, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestPreview(t *testing.T) {
	source := NewMockTableSource()
	source.tables["Products"] = productsTable()
	sink := NewMockResultSink()
	svc := NewFilterService(source, sink, FilterServiceConfig{})

	outcome, err := svc.Preview(context.Background(), &domain.RawCriteria{Size: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.writeCalled {
		t.Error("preview should not write to the sink")
	}
	if outcome.ResultName != "" {
		t.Errorf("ResultName = %q, want empty", outcome.ResultName)
	}
	if outcome.Matched != 2 {
		t.Errorf("Matched = %d, want 2", outcome.Matched)
	}
	if outcome.Message != "Data filtered successfully!" {
		t.Errorf("Message = %q", outcome.Message)
	}
}

func TestGetProducts(t *testing.T) {
	source := NewMockTableSource()
	source.tables["Products"] = productsTable()
	svc := NewFilterService(source, NewMockResultSink(), FilterServiceConfig{})

	table, err := svc.GetProducts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Products) != 3 {
		t.Errorf("products = %d, want 3", len(table.Products))
	}
}
