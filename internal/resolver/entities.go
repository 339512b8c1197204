// internal/resolver/entities.go
package resolver

import (
	"regexp"
	"strings"

	"dealbot/internal/catalog"
	"dealbot/internal/store"
)

// EntityKind classifies what kind of record reference was found in the
// question text.
type EntityKind string

const (
	EntityNone     EntityKind = "none"
	EntityDealID   EntityKind = "deal_id"
	EntityPart     EntityKind = "part_number"
	EntityCustomer EntityKind = "customer"
)

// EntityRef is one extracted record reference.
type EntityRef struct {
	Kind  EntityKind
	Value string
}

var dealIDPattern = regexp.MustCompile(`\b\d{8}\b`)

// skuPattern matches part-number shaped tokens: 5+ alphanumerics with
// an optional short suffix after a slash or dash. Pure-digit hits are
// filtered out afterwards so deal ids never masquerade as parts.
var skuPattern = regexp.MustCompile(`\b[A-Z0-9]{5,}(?:[/\-][A-Z0-9]{1,3})?\b`)

var hasDigit = regexp.MustCompile(`\d`)
var hasLetter = regexp.MustCompile(`[A-Z]`)

// ExtractEntity finds the strongest record reference in the combined
// question text. Precedence: deal id, then part number, then a known
// customer name from the snapshot. Scanning order is fixed, so the
// same text always yields the same reference.
func ExtractEntity(text string, s *store.Store) EntityRef {
	if id := dealIDPattern.FindString(text); id != "" {
		return EntityRef{Kind: EntityDealID, Value: id}
	}

	if sku := extractSKU(text); sku != "" {
		return EntityRef{Kind: EntityPart, Value: sku}
	}

	if name := matchKnownCustomer(text, s); name != "" {
		return EntityRef{Kind: EntityCustomer, Value: name}
	}

	return EntityRef{Kind: EntityNone}
}

func extractSKU(text string) string {
	upper := strings.ToUpper(text)
	for _, m := range skuPattern.FindAllString(upper, -1) {
		base := m
		if i := strings.IndexAny(base, "/-"); i >= 0 {
			base = base[:i]
		}
		if hasDigit.MatchString(base) && hasLetter.MatchString(base) {
			return m
		}
	}
	return ""
}

// matchKnownCustomer scans snapshot customer names against the text.
// Longer names are tried first so "ACME Corp East" wins over "ACME Corp".
func matchKnownCustomer(text string, s *store.Store) string {
	lowered := strings.ToLower(text)

	var best string
	for _, r := range s.All() {
		name := r.Value("customer")
		if name == catalog.UnknownMarker {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(name)) && len(name) > len(best) {
			best = name
		}
	}
	return best
}
