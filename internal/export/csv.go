// Package export renders stock items as CSV for download by
// spreadsheet tools.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"stockops/internal/stock"
)

// Header is the fixed column order of the export.
var Header = []string{"type", "name", "category", "quantity", "status", "available", "price", "lastUpdated"}

// bom marks the output as UTF-8 for spreadsheet imports.
var bom = []byte{0xEF, 0xBB, 0xBF}

// Stock renders items in input order. An absent price becomes an empty
// cell so free and unpriced stay distinguishable downstream.
func Stock(items []stock.Item) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(bom)
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, it := range items {
		row := []string{
			string(it.Kind),
			it.Name,
			it.Category,
			strconv.Itoa(it.Quantity),
			it.State().Label(),
			strconv.FormatBool(it.Available),
			priceCell(it.PriceCents),
			time.Unix(it.UpdatedAt, 0).UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row %s: %w", it.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return buf.Bytes(), nil
}

func priceCell(cents *int64) string {
	if cents == nil {
		return ""
	}
	return strconv.FormatFloat(float64(*cents)/100, 'f', 2, 64)
}
