package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeItems(w io.Writer, format string, items []models.InventoryItem) error {
	if format == "json" {
		return writeJSON(w, items)
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No items.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tQTY\tID")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", item.Name, displayCategory(item.Category), item.Quantity, item.ID)
	}
	return tw.Flush()
}

func writeItem(w io.Writer, format string, item *models.InventoryItem) error {
	if format == "json" {
		return writeJSON(w, item)
	}
	_, err := fmt.Fprintf(w, "%s (%s): %d\n", item.Name, displayCategory(item.Category), item.Quantity)
	return err
}

func writeSummary(w io.Writer, format string, summary *models.InventorySummary) error {
	if format == "json" {
		return writeJSON(w, summary)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tITEMS\tQTY")
	for _, total := range summary.Categories {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", displayCategory(total.Category), total.Items, total.Quantity)
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\n", summary.TotalItems, summary.TotalQuantity)
	return tw.Flush()
}

func displayCategory(c models.Category) string {
	if c == models.CategoryNone {
		return "-"
	}
	return string(c)
}
