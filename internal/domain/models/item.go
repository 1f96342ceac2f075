package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category enumerates the closed set of inventory categories.
type Category string

const (
	CategoryNone        Category = ""
	CategoryElectronics Category = "Electronics"
	CategoryFurniture   Category = "Furniture"
	CategoryClothing    Category = "Clothing"
	CategoryBooks       Category = "Books"
)

// Categories lists every selectable category in display order.
var Categories = []Category{
	CategoryElectronics,
	CategoryFurniture,
	CategoryClothing,
	CategoryBooks,
}

// Valid reports whether c is unset or one of the known categories.
func (c Category) Valid() bool {
	if c == CategoryNone {
		return true
	}
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches free-form input against the closed set, ignoring case.
func ParseCategory(value string) (Category, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return CategoryNone, nil
	}
	for _, known := range Categories {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}
	return CategoryNone, fmt.Errorf("unknown category %q", value)
}

// InventoryItem is a persisted inventory record. Quantity is always >= 1 while
// the record exists.
type InventoryItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	Quantity  int       `json:"quantity"`
	OwnerID   string    `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the record shape decoded from the document store.
func (i InventoryItem) Validate() error {
	switch {
	case i.ID == "":
		return errors.New("item id is empty")
	case strings.TrimSpace(i.Name) == "":
		return errors.New("item name is empty")
	case i.Quantity < 1:
		return fmt.Errorf("item quantity %d is below 1", i.Quantity)
	case !i.Category.Valid():
		return fmt.Errorf("item category %q is not supported", i.Category)
	}
	return nil
}

// Filter narrows a listing on the client side. Zero values match everything.
type Filter struct {
	Name     string
	Category Category
}

// Matches applies the case-insensitive name substring and exact category rules.
func (f Filter) Matches(item InventoryItem) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Category != CategoryNone && item.Category != f.Category {
		return false
	}
	return true
}

// Apply returns the items matching f, preserving their order.
func (f Filter) Apply(items []InventoryItem) []InventoryItem {
	result := make([]InventoryItem, 0, len(items))
	for _, item := range items {
		if f.Matches(item) {
			result = append(result, item)
		}
	}
	return result
}
