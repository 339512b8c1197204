// internal/catalog/catalog_test.go
package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	f, ok := Lookup("dealer_net_price")
	require.True(t, ok)
	assert.Equal(t, TypeCurrency, f.Type)
	assert.Equal(t, "Dealer Net Price", f.DisplayName)

	_, ok = Lookup("margin")
	assert.False(t, ok)
}

func TestFieldIDsSorted(t *testing.T) {
	ids := FieldIDs()
	require.Len(t, ids, 7)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		fieldID  string
		raw      string
		expected string
	}{
		{"currency with grouping", "dealer_net_price", "1234.5", "$1,234.50"},
		{"currency small", "dealer_net_price", "99", "$99.00"},
		{"currency already formatted", "dealer_net_price", "$2,500.00", "$2,500.00"},
		{"number integral", "remaining_qty", "25.0", "25"},
		{"number fractional", "remaining_qty", "12.5", "12.5"},
		{"date iso passthrough", "end_date", "2026-03-31", "2026-03-31"},
		{"date us style", "end_date", "03/31/2026", "2026-03-31"},
		{"string untouched", "customer", "ACME Corp", "ACME Corp"},
		{"unknown passthrough", "dealer_net_price", "unknown", "unknown"},
		{"empty becomes unknown", "customer", "", "unknown"},
		{"unparseable date untouched", "end_date", "Q3 2026", "Q3 2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := MustLookup(tt.fieldID)
			assert.Equal(t, tt.expected, FormatValue(f, tt.raw))
		})
	}
}

func TestMustLookupPanicsOnUnknownField(t *testing.T) {
	assert.Panics(t, func() { MustLookup("nope") })
}
