package generator

import (
	domain "github.com/aq2208/gorder-seed/internal/entity"
	"github.com/shopspring/decimal"
)

// Totals sums quantity × unit price per logical order id.
func Totals(items []domain.OrderItem) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, it := range items {
		totals[it.OrderID] = totals[it.OrderID].Add(it.LineTotal())
	}
	return totals
}

// Aggregate writes each logical order's item total into every record sharing its id.
// Records whose order has no items get zero. It returns the distinct ids touched.
func Aggregate(records []domain.OrderRecord, items []domain.OrderItem) []string {
	totals := Totals(items)
	var ids []string
	seen := make(map[string]struct{})
	for i := range records {
		id := records[i].ID
		records[i].TotalAmount = totals[id].Round(2)
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
