// internal/store/store.go
package store

import (
	"sort"
	"strings"

	"dealbot/internal/catalog"

	"github.com/agext/levenshtein"
)

// Record is one quoted deal. Values cover every catalog field; a field
// with no data holds the explicit unknown marker, never an empty string.
type Record struct {
	ID     string
	Values map[string]string
}

// Value returns the raw stored value for a catalog field.
func (r Record) Value(fieldID string) string {
	if v, ok := r.Values[fieldID]; ok {
		return v
	}
	return catalog.UnknownMarker
}

// Store is a read-only snapshot of deal records for one run. Loaded
// once, then shared across goroutines without locking.
type Store struct {
	records []Record
	byID    map[string]int
}

// New builds a store from loaded records, filling any missing catalog
// fields with the unknown marker and fixing iteration order by record id.
func New(records []Record) *Store {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[string]int, len(sorted))
	for i := range sorted {
		if sorted[i].Values == nil {
			sorted[i].Values = make(map[string]string)
		}
		for _, f := range catalog.Fields() {
			if v, ok := sorted[i].Values[f.ID]; !ok || strings.TrimSpace(v) == "" {
				sorted[i].Values[f.ID] = catalog.UnknownMarker
			}
		}
		byID[sorted[i].ID] = i
	}
	return &Store{records: sorted, byID: byID}
}

// Size returns the number of records in the snapshot.
func (s *Store) Size() int {
	return len(s.records)
}

// All returns the records in id order.
func (s *Store) All() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// ByID looks up a record by its identifier.
func (s *Store) ByID(id string) (Record, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Record{}, false
	}
	return s.records[i], true
}

// NormalizeSKU uppercases a part reference and cuts it at the first
// slash, dash, or space, leaving the base part number vendors quote
// with suffix variants stripped.
func NormalizeSKU(sku string) string {
	upper := strings.ToUpper(strings.TrimSpace(sku))
	if i := strings.IndexAny(upper, "/- "); i >= 0 {
		return upper[:i]
	}
	return upper
}

// ByPartNumber returns every record whose normalized part number shares
// the reference's base. Results are in id order.
func (s *Store) ByPartNumber(reference string) []Record {
	base := NormalizeSKU(reference)
	if base == "" {
		return nil
	}
	var out []Record
	for _, r := range s.records {
		stored := NormalizeSKU(r.Value("part_number"))
		if stored != "" && stored != catalog.UnknownMarker && stored == base {
			out = append(out, r)
		}
	}
	return out
}

// customerMatchThreshold is the minimum Levenshtein similarity for a
// fuzzy customer-name hit when no substring match exists.
const customerMatchThreshold = 0.85

// ByCustomer returns records whose customer name contains the reference
// (case-insensitive), falling back to close fuzzy matches for typos.
// Results are in id order.
func (s *Store) ByCustomer(reference string) []Record {
	ref := strings.ToLower(strings.TrimSpace(reference))
	if ref == "" {
		return nil
	}

	var out []Record
	for _, r := range s.records {
		name := strings.ToLower(r.Value("customer"))
		if name == catalog.UnknownMarker {
			continue
		}
		if strings.Contains(name, ref) || strings.Contains(ref, name) {
			out = append(out, r)
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, r := range s.records {
		name := strings.ToLower(r.Value("customer"))
		if name == catalog.UnknownMarker {
			continue
		}
		if levenshtein.Similarity(name, ref, nil) >= customerMatchThreshold {
			out = append(out, r)
		}
	}
	return out
}
