// internal/resolver/resolver.go
package resolver

import (
	"fmt"
	"strings"

	"dealbot/internal/brain"
	"dealbot/internal/catalog"
	"dealbot/internal/models"
	"dealbot/internal/store"
)

// Resolver answers free-text questions against an immutable brain and
// record snapshot. Every call is a pure function of its inputs, so
// identical questions yield byte-identical results and concurrent use
// needs no locking.
type Resolver struct {
	brain *brain.Brain
	store *store.Store
}

func New(b *brain.Brain, s *store.Store) *Resolver {
	return &Resolver{brain: b, store: s}
}

// Answer resolves the question to a field and record, then returns the
// formatted stored value or a structured cannot-answer result.
func (r *Resolver) Answer(q models.Question) models.AnswerResult {
	combined := q.CombinedText()

	match := r.brain.ResolveField(combined)
	if match.IsNone() {
		explanation := "Could not map the question to a known deal field. Try rephrasing."
		if match.Ambiguous {
			explanation = "The question matches several deal fields equally well. Please be more specific."
		}
		return models.AnswerResult{
			Status:      models.StatusNoMatch,
			Explanation: explanation,
		}
	}
	return r.answerField(combined, match.FieldID)
}

// AnswerForField answers with the target field already decided, used by
// backends that delegate field resolution to an external model.
func (r *Resolver) AnswerForField(q models.Question, fieldID string) models.AnswerResult {
	return r.answerField(q.CombinedText(), fieldID)
}

func (r *Resolver) answerField(combined, fieldID string) models.AnswerResult {
	field := catalog.MustLookup(fieldID)

	records, entity := r.selectRecords(combined)
	switch {
	case len(records) == 0 && entity.Kind == EntityNone && r.store.Size() > 1:
		return models.AnswerResult{
			Status:      models.StatusAmbiguous,
			FieldID:     field.ID,
			Explanation: "Several deals are in scope. Include a deal ID, part number, or customer name.",
		}
	case len(records) == 0:
		return models.AnswerResult{
			Status:      models.StatusNotFound,
			FieldID:     field.ID,
			Explanation: notFoundExplanation(entity),
		}
	case len(records) > 1 && entity.Kind != EntityPart:
		return models.AnswerResult{
			Status:      models.StatusAmbiguous,
			FieldID:     field.ID,
			Explanation: fmt.Sprintf("%d records match %q. Please include a deal ID or part number.", len(records), entity.Value),
		}
	}

	// Several records sharing one part-number base is a quote with
	// suffix variants: answer with all values, not an ambiguity.
	values := make([]string, 0, len(records))
	for _, rec := range records {
		raw := rec.Value(field.ID)
		if strings.EqualFold(strings.TrimSpace(raw), catalog.UnknownMarker) {
			return models.AnswerResult{
				Status:      models.StatusNotFound,
				RecordID:    rec.ID,
				FieldID:     field.ID,
				Explanation: fmt.Sprintf("The %s is not recorded for deal %s.", field.DisplayName, rec.ID),
			}
		}
		values = append(values, catalog.FormatValue(field, raw))
	}

	return models.AnswerResult{
		Status:      models.StatusAnswered,
		Value:       strings.Join(values, "; "),
		RecordID:    records[0].ID,
		FieldID:     field.ID,
		Explanation: fmt.Sprintf("%s for deal %s.", field.DisplayName, records[0].ID),
	}
}

// selectRecords picks the target record set for the question. With no
// entity reference and exactly one record in scope, that record is the
// target; otherwise the reference decides.
func (r *Resolver) selectRecords(combined string) ([]store.Record, EntityRef) {
	entity := ExtractEntity(combined, r.store)

	switch entity.Kind {
	case EntityDealID:
		if rec, ok := r.store.ByID(entity.Value); ok {
			return []store.Record{rec}, entity
		}
		return nil, entity
	case EntityPart:
		return r.store.ByPartNumber(entity.Value), entity
	case EntityCustomer:
		return r.store.ByCustomer(entity.Value), entity
	default:
		if r.store.Size() == 1 {
			return r.store.All(), entity
		}
		return nil, entity
	}
}

func notFoundExplanation(entity EntityRef) string {
	switch entity.Kind {
	case EntityNone:
		return "No record reference found in the question. Include a deal ID, part number, or customer name."
	default:
		return fmt.Sprintf("No deal record matches %q.", entity.Value)
	}
}
