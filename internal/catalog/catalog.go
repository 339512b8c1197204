// internal/catalog/catalog.go
package catalog

import (
	"fmt"
	"sort"
)

// Version is the field catalog schema version. Brain artifacts declare
// which catalog version they target; a mismatch on the major component
// is a load-time failure.
const Version = "2.0"

// ValueType drives answer formatting.
type ValueType string

const (
	TypeString   ValueType = "string"
	TypeNumber   ValueType = "number"
	TypeCurrency ValueType = "currency"
	TypeDate     ValueType = "date"
)

// Field is one canonical attribute of a deal record.
type Field struct {
	ID          string
	DisplayName string
	Type        ValueType
}

// The closed schema. Every deal record carries a value for every field;
// absent values arrive as the explicit "unknown" marker.
var fields = []Field{
	{ID: "deal_id", DisplayName: "Deal ID", Type: TypeString},
	{ID: "customer", DisplayName: "Customer", Type: TypeString},
	{ID: "part_number", DisplayName: "Part Number", Type: TypeString},
	{ID: "remaining_qty", DisplayName: "Remaining Quantity", Type: TypeNumber},
	{ID: "dealer_net_price", DisplayName: "Dealer Net Price", Type: TypeCurrency},
	{ID: "product_family", DisplayName: "Product Family", Type: TypeString},
	{ID: "end_date", DisplayName: "End Date", Type: TypeDate},
}

var fieldsByID = func() map[string]Field {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		m[f.ID] = f
	}
	return m
}()

// Fields returns the catalog in a stable order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// FieldIDs returns the canonical field identifiers sorted alphabetically.
func FieldIDs() []string {
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, f.ID)
	}
	sort.Strings(ids)
	return ids
}

// Lookup resolves a field id; the bool reports existence.
func Lookup(id string) (Field, bool) {
	f, ok := fieldsByID[id]
	return f, ok
}

// MustLookup panics on an unknown field id. Callers use it only for
// ids already validated against the catalog.
func MustLookup(id string) Field {
	f, ok := fieldsByID[id]
	if !ok {
		panic(fmt.Sprintf("unknown catalog field: %s", id))
	}
	return f
}

// Has reports whether id is a catalog field.
func Has(id string) bool {
	_, ok := fieldsByID[id]
	return ok
}
