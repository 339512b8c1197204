// internal/harness/generator.go
package harness

import (
	"fmt"
	"math/rand"
	"strings"

	"dealbot/internal/catalog"
	"dealbot/internal/models"
	"dealbot/internal/store"
)

// questionTemplates holds per-category phrasings with one %s slot for
// the record reference. Every template resolves through the synonym
// layer on its own merits; the generator only supplies the entity.
var questionTemplates = map[string][]string{
	"remaining_qty": {
		"How many units are left for %s?",
		"What's the remaining qty for %s?",
		"How many do we have for %s?",
		"Quantity on hand for %s",
	},
	"dealer_net_price": {
		"What's the dealer net price for %s?",
		"What's the net price for %s?",
		"Unit price for %s",
		"How much is %s?",
	},
	"product_family": {
		"What product family is %s?",
		"What's the product line for %s?",
		"What series is %s?",
		"What type of product is %s?",
	},
	"end_date": {
		"When does deal %s expire?",
		"What's the end date for %s?",
		"What's the expiration date for %s?",
		"Valid until when for %s?",
	},
	"customer": {
		"Who is the customer for %s?",
		"What's the customer name for %s?",
		"Which end user is on %s?",
	},
	"part_number": {
		"What's the part number for %s?",
		"Which part is on %s?",
	},
	"deal_id": {
		"What's the deal id for %s?",
		"What's the deal number for %s?",
	},
}

// ocrTemplates phrase the question without a record reference; the
// reference travels in the supplementary OCR text instead, the way a
// scanned quote carries it.
var ocrTemplates = map[string][]string{
	"remaining_qty": {
		"How many units are left?",
		"What's the remaining qty on this one?",
	},
	"dealer_net_price": {
		"What's the dealer net price here?",
		"What's the net price on this quote?",
	},
	"product_family": {
		"What product family is this?",
	},
	"end_date": {
		"When does this deal expire?",
		"What's the end date on this?",
	},
	"customer": {
		"Who is the customer on this quote?",
	},
	"part_number": {
		"What's the part number on this deal?",
	},
	"deal_id": {
		"What's the deal number on this document?",
	},
}

// Generator produces deterministic test cases from the record snapshot.
// Identical (snapshot, seed, size, category) input yields the identical
// case list, which is what makes baseline comparison meaningful.
type Generator struct {
	store         *store.Store
	rng           *rand.Rand
	categories    []string
	partBaseCount map[string]int
	customerCount map[string]int
}

func NewGenerator(s *store.Store, seed int64) *Generator {
	partBaseCount := make(map[string]int)
	customerCount := make(map[string]int)
	for _, r := range s.All() {
		if base := store.NormalizeSKU(r.Value("part_number")); base != "" && !strings.EqualFold(base, catalog.UnknownMarker) {
			partBaseCount[base]++
		}
		if c := r.Value("customer"); c != catalog.UnknownMarker {
			customerCount[strings.ToLower(c)]++
		}
	}

	categories := make([]string, 0, len(questionTemplates))
	for _, id := range catalog.FieldIDs() {
		if _, ok := questionTemplates[id]; ok {
			categories = append(categories, id)
		}
	}

	return &Generator{
		store:         s,
		rng:           rand.New(rand.NewSource(seed)),
		categories:    categories,
		partBaseCount: partBaseCount,
		customerCount: customerCount,
	}
}

// Generate builds n cases, restricted to one category when it is
// non-empty. Records whose target value is unknown are skipped, so
// every generated case has a concrete expected answer.
func (g *Generator) Generate(n int, category string) ([]models.TestCase, error) {
	if category != "" {
		if _, ok := questionTemplates[category]; !ok {
			return nil, fmt.Errorf("unknown category %q", category)
		}
	}

	records := g.store.All()
	if len(records) == 0 {
		return nil, fmt.Errorf("record snapshot is empty")
	}

	cases := make([]models.TestCase, 0, n)
	attempts := 0
	maxAttempts := n * 20
	for len(cases) < n && attempts < maxAttempts {
		attempts++

		cat := category
		if cat == "" {
			cat = g.categories[g.rng.Intn(len(g.categories))]
		}
		rec := records[g.rng.Intn(len(records))]

		raw := rec.Value(cat)
		if strings.EqualFold(raw, catalog.UnknownMarker) {
			continue
		}

		entity, ok := g.pickEntity(rec, cat)
		if !ok {
			continue
		}

		field := catalog.MustLookup(cat)
		tc := models.TestCase{
			ID:            fmt.Sprintf("case-%04d", len(cases)+1),
			ExpectedField: cat,
			ExpectedValue: catalog.FormatValue(field, raw),
			Category:      cat,
		}

		// Roughly a quarter of the batch carries the record reference
		// in OCR text rather than the question itself.
		if ocr := ocrTemplates[cat]; len(ocr) > 0 && g.rng.Intn(4) == 0 {
			tc.Question = ocr[g.rng.Intn(len(ocr))]
			tc.OCRText = entity
		} else {
			templates := questionTemplates[cat]
			tc.Question = fmt.Sprintf(templates[g.rng.Intn(len(templates))], entity)
		}
		cases = append(cases, tc)
	}

	if len(cases) < n {
		return cases, fmt.Errorf("generated only %d of %d cases; snapshot too sparse", len(cases), n)
	}
	return cases, nil
}

// pickEntity chooses an unambiguous record reference to embed in the
// question. Asking for a field by its own value would be circular, so
// that reference kind is excluded per category.
func (g *Generator) pickEntity(rec store.Record, category string) (string, bool) {
	var candidates []string

	if category != "deal_id" {
		candidates = append(candidates, rec.ID)
	}
	if category != "part_number" {
		part := rec.Value("part_number")
		if base := store.NormalizeSKU(part); base != "" && !strings.EqualFold(base, catalog.UnknownMarker) && g.partBaseCount[base] == 1 {
			candidates = append(candidates, part)
		}
	}
	if category != "customer" {
		cust := rec.Value("customer")
		if cust != catalog.UnknownMarker && g.customerCount[strings.ToLower(cust)] == 1 {
			candidates = append(candidates, cust)
		}
	}

	if len(candidates) == 0 {
		return "", false
	}
	return candidates[g.rng.Intn(len(candidates))], true
}
