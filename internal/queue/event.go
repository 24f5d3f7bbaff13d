// Package queue defines message payloads exchanged over the message broker.
package queue

// MonthClosedEvent is published when a month transitions to closed. It
// carries enough for downstream consumers to log or notify members without
// querying the primary database.
type MonthClosedEvent struct {
	MonthID     uint64 `json:"month_id"`
	ManagerID   uint64 `json:"manager_id"`
	ManagerName string `json:"manager_name"`
	ClosedByID  uint64 `json:"closed_by_id"`
	CloseDate   string `json:"close_date"`
	ClosedAt    string `json:"closed_at"`
}
