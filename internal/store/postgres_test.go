// internal/store/postgres_test.go
package store

import (
	"context"
	"testing"

	"dealbot/internal/catalog"
	"dealbot/internal/common/config"
	apperrors "dealbot/internal/common/errors"
	"dealbot/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dealColumns = []string{
	"deal_id", "customer", "part_number", "remaining_qty",
	"dealer_net_price", "product_family", "end_date",
}

func TestLoadFromPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(dealColumns).
		AddRow("10000001", "ACME Corp", "X9Y8Z7", "25", "1234.5", "Controllers", "2026-03-31").
		AddRow("10000002", "Globex Industries", nil, "40", nil, "Sensors", "2026-06-30")

	mock.ExpectQuery("SELECT (.+) FROM master_deals").WillReturnRows(rows)

	s, err := LoadFromPostgres(context.Background(), db,
		config.PostgresConfig{DealsTable: "master_deals"}, logger.NewTestLogger(t))
	require.NoError(t, err)
	require.Equal(t, 2, s.Size())

	r, ok := s.ByID("10000002")
	require.True(t, ok)
	assert.Equal(t, catalog.UnknownMarker, r.Value("part_number"))
	assert.Equal(t, catalog.UnknownMarker, r.Value("dealer_net_price"))
	assert.Equal(t, "Sensors", r.Value("product_family"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadFromPostgresSkipsRowsWithoutID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(dealColumns).
		AddRow(nil, "ACME Corp", "X9Y8Z7", "25", "1234.5", "Controllers", "2026-03-31").
		AddRow("10000001", "ACME Corp", "X9Y8Z7", "25", "1234.5", "Controllers", "2026-03-31")

	mock.ExpectQuery("SELECT (.+) FROM master_deals").WillReturnRows(rows)

	s, err := LoadFromPostgres(context.Background(), db,
		config.PostgresConfig{DealsTable: "master_deals"}, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Size())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadFromPostgresQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM master_deals").
		WillReturnError(assert.AnError)

	_, err = LoadFromPostgres(context.Background(), db,
		config.PostgresConfig{DealsTable: "master_deals"}, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeRecordLoadFailed, apperrors.CodeOf(err))
}
