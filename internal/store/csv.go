// internal/store/csv.go
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	apperrors "dealbot/internal/common/errors"
	"dealbot/internal/common/logger"
)

// LoadFromCSV reads a deal snapshot exported as CSV. The header row
// names catalog fields; unrecognized columns are ignored so exports can
// carry extra bookkeeping columns.
func LoadFromCSV(path string, log logger.Logger) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewRecordLoadError("csv", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewRecordLoadError("csv", err)
	}
	if len(rows) < 1 {
		return nil, apperrors.NewRecordLoadError("csv", fmt.Errorf("file %s is empty", path))
	}

	header := rows[0]
	idCol := -1
	for i, col := range header {
		if normalizeHeader(col) == "deal_id" {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, apperrors.NewRecordLoadError("csv", fmt.Errorf("file %s has no deal_id column", path))
	}

	var records []Record
	skipped := 0
	for _, row := range rows[1:] {
		if idCol >= len(row) || strings.TrimSpace(row[idCol]) == "" {
			skipped++
			continue
		}
		values := make(map[string]string, len(header))
		for i, col := range header {
			if i >= len(row) {
				break
			}
			values[normalizeHeader(col)] = strings.TrimSpace(row[i])
		}
		records = append(records, Record{ID: strings.TrimSpace(row[idCol]), Values: values})
	}

	log.Info("Loaded deal records from csv", map[string]interface{}{
		"path":    path,
		"records": len(records),
		"skipped": skipped,
	})
	return New(records), nil
}

// normalizeHeader maps spreadsheet-style headers ("Dealer net price
// [USD]") onto catalog field ids.
func normalizeHeader(col string) string {
	lowered := strings.ToLower(strings.TrimSpace(col))
	lowered = strings.NewReplacer("[usd]", "", "(usd)", "").Replace(lowered)
	lowered = strings.TrimSpace(lowered)
	lowered = strings.ReplaceAll(lowered, " ", "_")
	switch lowered {
	case "dealer_net_price", "dealer_price", "net_price":
		return "dealer_net_price"
	case "remaining_qty", "remaining_quantity", "qty":
		return "remaining_qty"
	case "part_number", "part_no", "sku":
		return "part_number"
	case "end_date", "expiration_date":
		return "end_date"
	case "product_family", "family":
		return "product_family"
	case "customer", "client":
		return "customer"
	case "deal_id", "deal_number":
		return "deal_id"
	default:
		return lowered
	}
}
