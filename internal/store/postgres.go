// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"dealbot/internal/catalog"
	"dealbot/internal/common/config"
	apperrors "dealbot/internal/common/errors"
	"dealbot/internal/common/logger"
)

// LoadFromPostgres reads the externally-ingested deal table into a
// snapshot. NULL columns become the unknown marker on the way in.
func LoadFromPostgres(ctx context.Context, db *sql.DB, cfg config.PostgresConfig, log logger.Logger) (*Store, error) {
	query := fmt.Sprintf(
		`SELECT deal_id, customer, part_number, remaining_qty, dealer_net_price, product_family, end_date FROM %s`,
		cfg.DealsTable,
	)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewRecordLoadError("postgres", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var dealID sql.NullString
		var cols [6]sql.NullString
		if err := rows.Scan(&dealID, &cols[0], &cols[1], &cols[2], &cols[3], &cols[4], &cols[5]); err != nil {
			return nil, apperrors.NewRecordLoadError("postgres", err)
		}
		if !dealID.Valid || dealID.String == "" {
			log.Warn("Skipping deal row without deal_id", nil)
			continue
		}

		records = append(records, Record{
			ID: dealID.String,
			Values: map[string]string{
				"deal_id":          dealID.String,
				"customer":         nullToUnknown(cols[0]),
				"part_number":      nullToUnknown(cols[1]),
				"remaining_qty":    nullToUnknown(cols[2]),
				"dealer_net_price": nullToUnknown(cols[3]),
				"product_family":   nullToUnknown(cols[4]),
				"end_date":         nullToUnknown(cols[5]),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRecordLoadError("postgres", err)
	}

	log.Info("Loaded deal records from postgres", map[string]interface{}{
		"table":   cfg.DealsTable,
		"records": len(records),
	})
	return New(records), nil
}

func nullToUnknown(v sql.NullString) string {
	if !v.Valid || v.String == "" {
		return catalog.UnknownMarker
	}
	return v.String
}
