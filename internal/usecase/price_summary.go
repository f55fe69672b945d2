package usecase

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/prodfilter/backend/internal/domain"
)

// SummarizePrices computes count/min/max/mean/median over the coerced prices of rows.
// Infinite prices are left out so the summary stays JSON-encodable.
// An empty row set yields a zero summary.
func SummarizePrices(rows []domain.ProductRow, columns domain.ColumnPositions) domain.PriceSummary {
	if len(rows) == 0 || columns.Price < 0 {
		return domain.PriceSummary{}
	}

	prices := make(stats.Float64Data, 0, len(rows))
	for _, row := range rows {
		if price := rowPrice(row, columns); !math.IsInf(price, 0) {
			prices = append(prices, price)
		}
	}
	if len(prices) == 0 {
		return domain.PriceSummary{}
	}

	summary := domain.PriceSummary{Count: len(prices)}
	summary.Min, _ = prices.Min()
	summary.Max, _ = prices.Max()
	summary.Mean, _ = prices.Mean()
	summary.Median, _ = prices.Median()
	return summary
}
