// internal/store/store_test.go
package store

import (
	"testing"

	"dealbot/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords() []Record {
	return []Record{
		{ID: "10000002", Values: map[string]string{
			"deal_id":          "10000002",
			"customer":         "Globex Industries",
			"part_number":      "A1B2C3/ABA",
			"remaining_qty":    "40",
			"dealer_net_price": "2500",
			"product_family":   "Sensors",
			"end_date":         "2026-06-30",
		}},
		{ID: "10000001", Values: map[string]string{
			"deal_id":          "10000001",
			"customer":         "ACME Corp",
			"part_number":      "X9Y8Z7",
			"remaining_qty":    "25",
			"dealer_net_price": "1234.5",
			"product_family":   "Controllers",
			"end_date":         "2026-03-31",
		}},
	}
}

func TestNewFillsMissingFieldsWithUnknown(t *testing.T) {
	s := New([]Record{{ID: "10000009", Values: map[string]string{"customer": "ACME Corp"}}})

	r, ok := s.ByID("10000009")
	require.True(t, ok)
	assert.Equal(t, catalog.UnknownMarker, r.Value("dealer_net_price"))
	assert.Equal(t, catalog.UnknownMarker, r.Value("end_date"))
	assert.Equal(t, "ACME Corp", r.Value("customer"))
}

func TestAllSortedByID(t *testing.T) {
	s := New(testRecords())
	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "10000001", all[0].ID)
	assert.Equal(t, "10000002", all[1].ID)
}

func TestNormalizeSKU(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"a1b2c3/aba", "A1B2C3"},
		{"A1B2C3-XL", "A1B2C3"},
		{"A1B2C3 ABA", "A1B2C3"},
		{"  x9y8z7  ", "X9Y8Z7"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeSKU(tt.in), "input %q", tt.in)
	}
}

func TestByPartNumber(t *testing.T) {
	s := New(testRecords())

	// Suffix variants resolve to the same base part.
	matches := s.ByPartNumber("A1B2C3-V2")
	require.Len(t, matches, 1)
	assert.Equal(t, "10000002", matches[0].ID)

	assert.Empty(t, s.ByPartNumber("NOPE99"))
	assert.Empty(t, s.ByPartNumber(""))
}

func TestByCustomerSubstring(t *testing.T) {
	s := New(testRecords())

	matches := s.ByCustomer("acme")
	require.Len(t, matches, 1)
	assert.Equal(t, "10000001", matches[0].ID)
}

func TestByCustomerFuzzy(t *testing.T) {
	s := New(testRecords())

	// One-character typo falls through to the fuzzy pass.
	matches := s.ByCustomer("globex industreis")
	require.Len(t, matches, 1)
	assert.Equal(t, "10000002", matches[0].ID)
}

func TestByCustomerNoMatch(t *testing.T) {
	s := New(testRecords())
	assert.Empty(t, s.ByCustomer("initech"))
}
