// internal/validator/validator.go
package validator

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"dealbot/internal/backend"
	"dealbot/internal/brain"
	"dealbot/internal/catalog"
	"dealbot/internal/common/logger"
	"dealbot/internal/harness"
	"dealbot/internal/resolver"
	"dealbot/internal/store"
)

// ViolationCode classifies validator findings.
type ViolationCode string

const (
	CodeFieldUncovered    ViolationCode = "FIELD_UNCOVERED"
	CodeDuplicatePattern  ViolationCode = "DUPLICATE_PATTERN"
	CodeEmptyPattern      ViolationCode = "EMPTY_PATTERN"
	CodeNonPositiveWeight ViolationCode = "NON_POSITIVE_WEIGHT"
	CodeUnknownField      ViolationCode = "UNKNOWN_FIELD"
	CodeVersionMismatch   ViolationCode = "VERSION_MISMATCH"
	CodeMalformedArtifact ViolationCode = "MALFORMED_ARTIFACT"
	CodeLowAccuracy       ViolationCode = "LOW_ACCURACY"
)

// Violation is one actionable validator finding. Findings are reported,
// never silently fixed.
type Violation struct {
	Code    ViolationCode `json:"code"`
	Field   string        `json:"field,omitempty"`
	Pattern string        `json:"pattern,omitempty"`
	Message string        `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s", v.Code, v.Message)
}

// ValidateBrain checks the loaded brain's structural invariants: total
// coverage of the field catalog and only positive-weight patterns.
// Violations come back in a fixed order.
func ValidateBrain(b *brain.Brain) []Violation {
	var violations []Violation

	coverage := b.FieldCoverage()
	for _, f := range catalog.Fields() {
		if coverage[f.ID] == 0 {
			violations = append(violations, Violation{
				Code:    CodeFieldUncovered,
				Field:   f.ID,
				Message: fmt.Sprintf("field %s has no synonym patterns", f.ID),
			})
		}
	}

	for _, p := range b.Patterns() {
		e, _ := b.Entry(p)
		if strings.TrimSpace(p) == "" {
			violations = append(violations, Violation{
				Code:    CodeEmptyPattern,
				Field:   e.FieldID,
				Message: fmt.Sprintf("field %s has an empty pattern", e.FieldID),
			})
		}
		if e.Weight <= 0 {
			violations = append(violations, Violation{
				Code:    CodeNonPositiveWeight,
				Field:   e.FieldID,
				Pattern: p,
				Message: fmt.Sprintf("pattern %q on field %s has non-positive weight %g", p, e.FieldID, e.Weight),
			})
		}
	}

	sortViolations(violations)
	return violations
}

// ValidateArtifact checks a raw brain artifact file: schema shape,
// catalog-version compatibility, known fields only, no empty or
// non-positive-weight patterns, and no pattern string mapping to two
// different fields. Duplicates across fields can only be caught here,
// before layered loading collapses them.
func ValidateArtifact(path string) ([]Violation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := brain.ParseArtifact(raw)
	if err != nil {
		return []Violation{{
			Code:    CodeMalformedArtifact,
			Message: fmt.Sprintf("artifact %s is malformed: %v", path, err),
		}}, nil
	}

	var violations []Violation
	if major(doc.CatalogVersion) != major(catalog.Version) {
		violations = append(violations, Violation{
			Code:    CodeVersionMismatch,
			Message: fmt.Sprintf("artifact targets catalog %s, running catalog is %s", doc.CatalogVersion, catalog.Version),
		})
	}

	owner := make(map[string]string) // normalized pattern -> field
	fieldIDs := make([]string, 0, len(doc.Fields))
	for id := range doc.Fields {
		fieldIDs = append(fieldIDs, id)
	}
	sort.Strings(fieldIDs)

	for _, fieldID := range fieldIDs {
		if !catalog.Has(fieldID) {
			violations = append(violations, Violation{
				Code:    CodeUnknownField,
				Field:   fieldID,
				Message: fmt.Sprintf("artifact field %q is not in the catalog", fieldID),
			})
			continue
		}
		set := doc.Fields[fieldID]
		if len(set.Patterns) == 0 {
			violations = append(violations, Violation{
				Code:    CodeFieldUncovered,
				Field:   fieldID,
				Message: fmt.Sprintf("artifact field %s has an empty pattern set", fieldID),
			})
		}
		for _, p := range set.Patterns {
			norm := brain.Normalize(p.Pattern)
			if norm == "" {
				violations = append(violations, Violation{
					Code:    CodeEmptyPattern,
					Field:   fieldID,
					Pattern: p.Pattern,
					Message: fmt.Sprintf("field %s pattern %q is empty after normalization", fieldID, p.Pattern),
				})
				continue
			}
			if p.Weight <= 0 {
				violations = append(violations, Violation{
					Code:    CodeNonPositiveWeight,
					Field:   fieldID,
					Pattern: norm,
					Message: fmt.Sprintf("field %s pattern %q has non-positive weight %g", fieldID, norm, p.Weight),
				})
			}
			if prev, seen := owner[norm]; seen && prev != fieldID {
				violations = append(violations, Violation{
					Code:    CodeDuplicatePattern,
					Field:   fieldID,
					Pattern: norm,
					Message: fmt.Sprintf("pattern %q maps to both %s and %s", norm, prev, fieldID),
				})
			} else {
				owner[norm] = fieldID
			}
		}
	}

	sortViolations(violations)
	return violations, nil
}

// BatteryOptions tunes the synthetic accuracy battery.
type BatteryOptions struct {
	Size        int
	Seed        int64
	MinAccuracy float64
	Concurrency int
}

// RunBattery drives a generated question pool through the resolver and
// flags any category falling below the accuracy floor. A finding here
// is a Violation, not an informational score: it means the brain lost
// comprehension somewhere.
func RunBattery(ctx context.Context, b *brain.Brain, s *store.Store, opts BatteryOptions, log logger.Logger) ([]Violation, error) {
	if opts.Size <= 0 {
		opts.Size = 500
	}
	if opts.MinAccuracy <= 0 {
		opts.MinAccuracy = 0.9
	}

	cases, err := harness.NewGenerator(s, opts.Seed).Generate(opts.Size, "")
	if err != nil {
		return nil, err
	}

	h := harness.New(
		backend.NewLocal(resolver.New(b, s)),
		harness.Options{Concurrency: opts.Concurrency},
		log,
	)
	results, _ := h.Run(ctx, cases)
	summary := harness.Summarize(results, "battery", opts.Seed, false)

	var violations []Violation
	cats := make([]string, 0, len(summary.Categories))
	for c := range summary.Categories {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		cs := summary.Categories[c]
		if cs.Accuracy < opts.MinAccuracy {
			violations = append(violations, Violation{
				Code:  CodeLowAccuracy,
				Field: c,
				Message: fmt.Sprintf("category %s accuracy %.3f below floor %.3f (%d/%d correct)",
					c, cs.Accuracy, opts.MinAccuracy, cs.Correct, cs.Correct+cs.Incorrect),
			})
		}
	}
	return violations, nil
}

func major(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

func sortViolations(v []Violation) {
	sort.Slice(v, func(i, j int) bool {
		if v[i].Code != v[j].Code {
			return v[i].Code < v[j].Code
		}
		if v[i].Field != v[j].Field {
			return v[i].Field < v[j].Field
		}
		return v[i].Pattern < v[j].Pattern
	})
}
