package model

import "time"

// Month is a time-bounded accounting period within a manager. A month is
// created open and can be closed exactly once; the closed flag never
// transitions back. Entry mutations are rejected while closed.
type Month struct {
	ID        uint64     `json:"id"`
	ManagerID uint64     `json:"managerId"`
	StartDate time.Time  `json:"startDate"`
	CloseDate *time.Time `json:"closeDate,omitempty"`
	Closed    bool       `json:"closed"`
	CreatedAt time.Time  `json:"createdAt"`
	Incomes   []Income   `json:"incomes"`
	Expenses  []Expense  `json:"expenses"`
}

// Income is a positive ledger entry belonging to a month.
type Income struct {
	ID          uint64    `json:"id"`
	MonthID     uint64    `json:"monthId"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Expense is a negative ledger entry belonging to a month. Category is
// optional; entries without one are reported under a single uncategorized
// bucket by the statistics endpoint.
type Expense struct {
	ID          uint64    `json:"id"`
	MonthID     uint64    `json:"monthId"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    *string   `json:"category,omitempty"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}
