// Package stats computes aggregate figures over a manager's months. The
// computation is pure: callers load the full month set with entries and
// every statistics request recomputes from scratch. Data volumes are small
// enough that no caching or incremental maintenance is kept.
package stats

import (
	"sort"

	"github.com/avilchesf/gestor-gastos/internal/model"
)

// Uncategorized is the bucket expenses without a category fall into.
const Uncategorized = "Sin categoría"

// CategoryTotal is the summed expense amount for one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// Summary aggregates a manager's full ledger. Invariants:
// Balance == TotalIncome - TotalExpense exactly, and the totals of
// ExpenseByCategory sum to TotalExpense.
type Summary struct {
	TotalIncome       float64         `json:"totalIncome"`
	TotalExpense      float64         `json:"totalExpense"`
	Balance           float64         `json:"balance"`
	ExpenseByCategory []CategoryTotal `json:"expenseByCategory"`
	AverageIncome     float64         `json:"averageIncome"`
	AverageExpense    float64         `json:"averageExpense"`
	OpenMonthCount    int             `json:"openMonthCount"`
	ClosedMonthCount  int             `json:"closedMonthCount"`
}

// Compute derives a Summary from all months of a manager. Averages divide
// by the number of months holding at least one entry; with no such months
// both averages are zero.
func Compute(months []model.Month) Summary {
	s := Summary{ExpenseByCategory: []CategoryTotal{}}

	byCategory := map[string]float64{}
	monthsWithData := 0

	for _, m := range months {
		if m.Closed {
			s.ClosedMonthCount++
		} else {
			s.OpenMonthCount++
		}
		if len(m.Incomes) > 0 || len(m.Expenses) > 0 {
			monthsWithData++
		}
		for _, in := range m.Incomes {
			s.TotalIncome += in.Amount
		}
		for _, e := range m.Expenses {
			s.TotalExpense += e.Amount
			cat := Uncategorized
			if e.Category != nil && *e.Category != "" {
				cat = *e.Category
			}
			byCategory[cat] += e.Amount
		}
	}

	s.Balance = s.TotalIncome - s.TotalExpense
	if monthsWithData > 0 {
		s.AverageIncome = s.TotalIncome / float64(monthsWithData)
		s.AverageExpense = s.TotalExpense / float64(monthsWithData)
	}

	for cat, total := range byCategory {
		s.ExpenseByCategory = append(s.ExpenseByCategory, CategoryTotal{Category: cat, Total: total})
	}
	// descending by summed amount; equal totals keep no particular order
	sort.SliceStable(s.ExpenseByCategory, func(i, j int) bool {
		return s.ExpenseByCategory[i].Total > s.ExpenseByCategory[j].Total
	})

	return s
}
