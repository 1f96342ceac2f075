package models

import "time"

// CategoryTotal aggregates the quantities held in one category.
type CategoryTotal struct {
	Category Category `json:"category"`
	Items    int      `json:"items"`
	Quantity int      `json:"quantity"`
}

// InventorySummary is the per-owner snapshot returned by the reporting service.
type InventorySummary struct {
	OwnerID       string          `json:"owner_id"`
	Categories    []CategoryTotal `json:"categories"`
	TotalItems    int             `json:"total_items"`
	TotalQuantity int             `json:"total_quantity"`
	GeneratedAt   time.Time       `json:"generated_at"`
}
