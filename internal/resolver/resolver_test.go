// internal/resolver/resolver_test.go
package resolver

import (
	"testing"

	"dealbot/internal/brain"
	"dealbot/internal/common/config"
	"dealbot/internal/common/logger"
	"dealbot/internal/models"
	"dealbot/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBrain(t *testing.T) *brain.Brain {
	t.Helper()
	b, err := brain.Load(
		config.BrainConfig{SeedEnabled: true},
		config.ResolverConfig{AcceptThreshold: 0.55, FuzzyScale: 0.6, FuzzyMinLen: 4},
		logger.NewTestLogger(t),
	)
	require.NoError(t, err)
	return b
}

func testStore() *store.Store {
	return store.New([]store.Record{
		{ID: "10000001", Values: map[string]string{
			"deal_id":          "10000001",
			"customer":         "ACME Corp",
			"part_number":      "X9Y8Z7",
			"remaining_qty":    "25",
			"dealer_net_price": "1234.5",
			"product_family":   "Controllers",
			"end_date":         "2026-03-31",
		}},
		{ID: "10000002", Values: map[string]string{
			"deal_id":          "10000002",
			"customer":         "Globex Industries",
			"part_number":      "A1B2C3/ABA",
			"remaining_qty":    "unknown",
			"dealer_net_price": "2500",
			"product_family":   "Sensors",
			"end_date":         "2026-06-30",
		}},
		{ID: "10000003", Values: map[string]string{
			"deal_id":          "10000003",
			"customer":         "Globex Industries",
			"part_number":      "A1B2C3/ABB",
			"remaining_qty":    "10",
			"dealer_net_price": "2600",
			"product_family":   "Sensors",
			"end_date":         "2026-06-30",
		}},
	})
}

func newTestResolver(t *testing.T) *Resolver {
	return New(testBrain(t), testStore())
}

func TestAnswerCurrencyFormatting(t *testing.T) {
	r := newTestResolver(t)

	res := r.Answer(models.Question{RawText: "What's the dealer net price for ACME Corp?"})
	require.Equal(t, models.StatusAnswered, res.Status)
	assert.Equal(t, "$1,234.50", res.Value)
	assert.Equal(t, "10000001", res.RecordID)
	assert.Equal(t, "dealer_net_price", res.FieldID)
}

func TestAnswerByDealID(t *testing.T) {
	r := newTestResolver(t)

	res := r.Answer(models.Question{RawText: "When does deal 10000001 expire?"})
	require.Equal(t, models.StatusAnswered, res.Status)
	assert.Equal(t, "2026-03-31", res.Value)
}

func TestAnswerUnknownValueIsNotFound(t *testing.T) {
	r := newTestResolver(t)

	res := r.Answer(models.Question{RawText: "How many units are left for part A1B2C3/ABA?"})
	require.Equal(t, models.StatusNotFound, res.Status)
	assert.Equal(t, "remaining_qty", res.FieldID)
	assert.Contains(t, res.Explanation, "Remaining Quantity")
	assert.Empty(t, res.Value)
}

func TestAnswerMultiVariantPartJoinsValues(t *testing.T) {
	r := newTestResolver(t)

	// Two records share the A1B2C3 base; both prices come back.
	res := r.Answer(models.Question{RawText: "What's the net price for A1B2C3?"})
	require.Equal(t, models.StatusAnswered, res.Status)
	assert.Equal(t, "$2,500.00; $2,600.00", res.Value)
}

func TestAnswerAmbiguousCustomer(t *testing.T) {
	r := newTestResolver(t)

	res := r.Answer(models.Question{RawText: "What's the end date for Globex Industries?"})
	assert.Equal(t, models.StatusAmbiguous, res.Status)
}

func TestAnswerNoEntityManyRecords(t *testing.T) {
	r := newTestResolver(t)

	res := r.Answer(models.Question{RawText: "What's the net price?"})
	assert.Equal(t, models.StatusAmbiguous, res.Status)
}

func TestAnswerNoEntitySingleRecordDefaults(t *testing.T) {
	single := store.New([]store.Record{{ID: "10000009", Values: map[string]string{
		"deal_id":          "10000009",
		"customer":         "ACME Corp",
		"part_number":      "X9Y8Z7",
		"remaining_qty":    "5",
		"dealer_net_price": "100",
		"product_family":   "Controllers",
		"end_date":         "2026-12-31",
	}}})
	r := New(testBrain(t), single)

	res := r.Answer(models.Question{RawText: "how many left?"})
	require.Equal(t, models.StatusAnswered, res.Status)
	assert.Equal(t, "5", res.Value)
	assert.Equal(t, "10000009", res.RecordID)
}

func TestAnswerNoMatch(t *testing.T) {
	r := newTestResolver(t)

	res := r.Answer(models.Question{RawText: "tell me a joke about databases please thanks"})
	assert.Equal(t, models.StatusNoMatch, res.Status)
	assert.NotEmpty(t, res.Explanation)
}

func TestAnswerUnknownDealID(t *testing.T) {
	r := newTestResolver(t)

	res := r.Answer(models.Question{RawText: "What's the price on deal 99999999?"})
	require.Equal(t, models.StatusNotFound, res.Status)
	assert.Contains(t, res.Explanation, "99999999")
}

func TestAnswerUsesOCRTextForEntity(t *testing.T) {
	r := newTestResolver(t)

	res := r.Answer(models.Question{
		RawText: "what's the remaining qty",
		OCRText: "Quote sheet - Part X9Y8Z7 rev 2",
	})
	require.Equal(t, models.StatusAnswered, res.Status)
	assert.Equal(t, "25", res.Value)
	assert.Equal(t, "10000001", res.RecordID)
}

func TestAnswerDeterministic(t *testing.T) {
	r := newTestResolver(t)

	questions := []models.Question{
		{RawText: "What's the dealer net price for ACME Corp?"},
		{RawText: "What's the end date for Globex Industries?"},
		{RawText: "how many left for A1B2C3?"},
		{RawText: "nonsense question entirely"},
	}
	for _, q := range questions {
		first := r.Answer(q)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, r.Answer(q), "question %q", q.RawText)
		}
	}
}

func TestExtractEntity(t *testing.T) {
	s := testStore()
	tests := []struct {
		name  string
		text  string
		kind  EntityKind
		value string
	}{
		{"deal id wins", "price for 10000001 part X9Y8Z7", EntityDealID, "10000001"},
		{"part number", "qty for X9Y8Z7 please", EntityPart, "X9Y8Z7"},
		{"part with suffix", "price of a1b2c3/aba", EntityPart, "A1B2C3/ABA"},
		{"customer name", "end date for ACME Corp", EntityCustomer, "ACME Corp"},
		{"nothing", "what is the price", EntityNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ExtractEntity(tt.text, s)
			assert.Equal(t, tt.kind, ref.Kind)
			assert.Equal(t, tt.value, ref.Value)
		})
	}
}
