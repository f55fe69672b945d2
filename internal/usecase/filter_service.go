package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prodfilter/backend/internal/domain"
)

// Result naming policies
const (
	// ResultPolicyTimestamp writes every run to a new "Filtered <timestamp>" table
	ResultPolicyTimestamp = "timestamp"
	// ResultPolicyFixed replaces a single fixed-name table on every run
	ResultPolicyFixed = "fixed"
)

// DefaultResultName is the fixed result table name
const DefaultResultName = "Results"

// resultTimestampLayout mirrors the en-US locale string of the spreadsheet host
const resultTimestampLayout = "1/2/2006, 3:04:05 PM"

// FilterServiceConfig holds configuration for the filter service
type FilterServiceConfig struct {
	SourceTable        string
	ResultPolicy       string
	ResultName         string
	EnableDebugLogging bool
	// Now is used for timestamped result names; defaults to time.Now
	Now func() time.Time
}

// FilterService runs one filter invocation end to end:
// read source -> resolve columns -> normalize criteria -> apply -> write sink
type FilterService struct {
	source       domain.TableSource
	sink         domain.ResultSink
	engine       *FilterEngine
	sourceTable  string
	resultPolicy string
	resultName   string
	now          func() time.Time
}

// NewFilterService creates a new filter service with dependencies
func NewFilterService(
	source domain.TableSource,
	sink domain.ResultSink,
	config FilterServiceConfig,
) *FilterService {
	sourceTable := config.SourceTable
	if sourceTable == "" {
		sourceTable = domain.DefaultSourceTable
	}

	resultPolicy := config.ResultPolicy
	if resultPolicy == "" {
		resultPolicy = ResultPolicyTimestamp
	}

	resultName := config.ResultName
	if resultName == "" {
		resultName = DefaultResultName
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &FilterService{
		source:       source,
		sink:         sink,
		engine:       NewFilterEngine(FilterEngineConfig{EnableDebugLogging: config.EnableDebugLogging}),
		sourceTable:  sourceTable,
		resultPolicy: resultPolicy,
		resultName:   resultName,
		now:          now,
	}
}

// GetProducts returns the full source table
func (s *FilterService) GetProducts(ctx context.Context) (*domain.Table, error) {
	return s.source.ReadTable(ctx, s.sourceTable)
}

// FilterProducts filters the source table and writes the matches to a new result table.
// Flow: read source -> resolve columns -> normalize -> apply -> write sink -> acknowledge
func (s *FilterService) FilterProducts(ctx context.Context, raw *domain.RawCriteria) (*domain.FilterOutcome, error) {
	return s.run(ctx, raw, true)
}

// Preview filters the source table without writing a result table
func (s *FilterService) Preview(ctx context.Context, raw *domain.RawCriteria) (*domain.FilterOutcome, error) {
	return s.run(ctx, raw, false)
}

func (s *FilterService) run(ctx context.Context, raw *domain.RawCriteria, write bool) (*domain.FilterOutcome, error) {
	runID := uuid.NewString()

	table, err := s.source.ReadTable(ctx, s.sourceTable)
	if err != nil {
		log.Printf("[FILTER] run=%s read %q failed: %v", runID, s.sourceTable, err)
		return nil, err
	}

	columns := ResolveColumns(table.Headers)
	if err := columns.Validate(); err != nil {
		log.Printf("[FILTER] run=%s %v", runID, err)
		return nil, err
	}

	criteria := NormalizeCriteria(raw)

	filtered, err := s.engine.Apply(ctx, table.Products, columns, criteria)
	if err != nil {
		return nil, err
	}

	log.Printf("[FILTER] run=%s matched %d of %d products", runID, len(filtered), len(table.Products))

	outcome := &domain.FilterOutcome{
		RunID:    runID,
		Message:  "Data filtered successfully!",
		Headers:  table.Headers,
		Products: filtered,
		Criteria: criteria,
		Matched:  len(filtered),
		Total:    len(table.Products),
		Summary:  SummarizePrices(filtered, columns),
	}

	if !write {
		return outcome, nil
	}

	requested := s.nextResultName()
	if err := s.checkResultName(requested); err != nil {
		log.Printf("[FILTER] run=%s %v", runID, err)
		return nil, err
	}
	name, err := s.sink.WriteTable(ctx, requested, table.Headers, filtered)
	if err != nil {
		log.Printf("[FILTER] run=%s write %q failed: %v", runID, requested, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrSinkFailure, err)
	}
	log.Printf("[FILTER] run=%s wrote %d rows to %q", runID, len(filtered), name)

	outcome.ResultName = name
	outcome.Message = fmt.Sprintf("Done! You can see the results in your sheet '%s'!", name)
	return outcome, nil
}

// nextResultName picks the result table name according to the configured policy
func (s *FilterService) nextResultName() string {
	if s.resultPolicy == ResultPolicyFixed {
		return s.resultName
	}
	return "Filtered " + s.now().Format(resultTimestampLayout)
}

// checkResultName rejects a result name that would overwrite the source table.
// Table names are compared case-insensitively, as spreadsheet hosts do.
func (s *FilterService) checkResultName(requested string) error {
	if strings.EqualFold(requested, s.sourceTable) {
		return fmt.Errorf("%w: result table %q would replace source table %q", domain.ErrInvalidRequest, requested, s.sourceTable)
	}
	if namer, ok := s.sink.(domain.TableNamer); ok {
		if stored := namer.StoredName(requested); strings.EqualFold(stored, s.sourceTable) {
			return fmt.Errorf("%w: result table %q is stored as %q and would replace source table %q",
				domain.ErrInvalidRequest, requested, stored, s.sourceTable)
		}
	}
	return nil
}
