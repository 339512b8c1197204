// internal/store/csv_test.go
package store

import (
	"os"
	"path/filepath"
	"testing"

	"dealbot/internal/catalog"
	apperrors "dealbot/internal/common/errors"
	"dealbot/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deals.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromCSV(t *testing.T) {
	path := writeCSV(t,
		"Deal ID,Customer,Part Number,Remaining Qty,Dealer net price [USD],Product Family,End Date\n"+
			"10000001,ACME Corp,X9Y8Z7,25,1234.5,Controllers,2026-03-31\n"+
			"10000002,Globex Industries,A1B2C3/ABA,40,,Sensors,2026-06-30\n")

	s, err := LoadFromCSV(path, logger.NewTestLogger(t))
	require.NoError(t, err)
	require.Equal(t, 2, s.Size())

	r, ok := s.ByID("10000001")
	require.True(t, ok)
	assert.Equal(t, "ACME Corp", r.Value("customer"))
	assert.Equal(t, "1234.5", r.Value("dealer_net_price"))

	// Blank cells come back as the explicit unknown marker.
	r2, ok := s.ByID("10000002")
	require.True(t, ok)
	assert.Equal(t, catalog.UnknownMarker, r2.Value("dealer_net_price"))
}

func TestLoadFromCSVSkipsBlankIDs(t *testing.T) {
	path := writeCSV(t,
		"deal_id,customer\n"+
			",ACME Corp\n"+
			"10000001,ACME Corp\n")

	s, err := LoadFromCSV(path, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Size())
}

func TestLoadFromCSVMissingIDColumn(t *testing.T) {
	path := writeCSV(t, "customer,part_number\nACME Corp,X9Y8Z7\n")

	_, err := LoadFromCSV(path, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeRecordLoadFailed, apperrors.CodeOf(err))
}

func TestLoadFromCSVMissingFile(t *testing.T) {
	_, err := LoadFromCSV(filepath.Join(t.TempDir(), "nope.csv"), logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeRecordLoadFailed, apperrors.CodeOf(err))
}
