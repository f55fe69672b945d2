package storage

import (
	"context"
	"fmt"
	"log"

	"github.com/prodfilter/backend/config"
	"github.com/prodfilter/backend/internal/domain"
	"github.com/prodfilter/backend/internal/infrastructure/excel"
	"github.com/prodfilter/backend/internal/infrastructure/memory"
	"github.com/prodfilter/backend/internal/infrastructure/postgres"
	"github.com/prodfilter/backend/internal/infrastructure/sheets"
)

// Backend is the table source and result sink selected by configuration
type Backend struct {
	Source domain.TableSource
	Sink   domain.ResultSink
	close  func() error
}

// Close releases the backend's resources
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open builds the backend named by cfg.Storage.Type
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Storage.Type {
	case config.StorageExcel:
		workbook := excel.NewWorkbook(cfg.Storage.WorkbookPath)
		log.Printf("[STORAGE] Using workbook %s", cfg.Storage.WorkbookPath)
		return &Backend{Source: workbook, Sink: workbook, close: workbook.Close}, nil

	case config.StoragePostgres:
		store, err := postgres.Open(ctx, cfg.Storage.DatabaseURL, postgres.StoreConfig{
			OrderColumn: cfg.Storage.OrderColumn,
		})
		if err != nil {
			return nil, err
		}
		log.Printf("[STORAGE] Using Postgres")
		return &Backend{Source: store, Sink: store, close: store.Close}, nil

	case config.StorageMemory:
		workbook, err := loadMemoryWorkbook(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Printf("[STORAGE] Using in-memory workbook %v loaded from %s", workbook.Names(), cfg.Storage.WorkbookPath)
		return &Backend{Source: workbook, Sink: workbook, close: workbook.Close}, nil

	case config.StorageSheets:
		client := sheets.NewClient(cfg.Sheets.APIKey, cfg.Sheets.BaseURL, cfg.Sheets.SpreadsheetID)
		if cfg.Server.Environment == "development" {
			client.SetDebug(true)
		}
		results := excel.NewWorkbook(cfg.Storage.WorkbookPath)
		log.Printf("[STORAGE] Reading spreadsheet %s, writing results to %s", cfg.Sheets.SpreadsheetID, cfg.Storage.WorkbookPath)
		return &Backend{Source: client, Sink: results, close: results.Close}, nil
	}

	return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
}

// loadMemoryWorkbook copies the source sheet of the configured workbook into memory.
// Result tables stay in memory; the file is never written.
func loadMemoryWorkbook(ctx context.Context, cfg *config.Config) (*memory.Workbook, error) {
	table, err := excel.NewWorkbook(cfg.Storage.WorkbookPath).ReadTable(ctx, cfg.Table.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s into memory: %w", cfg.Storage.WorkbookPath, err)
	}

	workbook := memory.NewWorkbook()
	if _, err := workbook.WriteTable(ctx, table.Name, table.Headers, table.Products); err != nil {
		return nil, err
	}
	return workbook, nil
}
