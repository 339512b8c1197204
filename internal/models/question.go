// internal/models/question.go
package models

// Question is one resolver invocation: the typed text plus optional
// OCR-extracted supplementary text (e.g. a photographed quote sheet).
type Question struct {
	RawText string `json:"rawText"`
	OCRText string `json:"ocrText,omitempty"`
}

// CombinedText joins the typed text and OCR text for entity extraction.
// OCR text often carries the entity reference (part number, customer)
// while the typed text carries the intent.
func (q Question) CombinedText() string {
	if q.OCRText == "" {
		return q.RawText
	}
	return q.RawText + " " + q.OCRText
}

// AnswerStatus classifies every resolver outcome. Scoring depends on the
// distinction: NoMatch is a comprehension failure, NotFound is data absence.
type AnswerStatus string

const (
	StatusAnswered  AnswerStatus = "answered"
	StatusAmbiguous AnswerStatus = "ambiguous"
	StatusNotFound  AnswerStatus = "not_found"
	StatusNoMatch   AnswerStatus = "no_match"
)

// MatchResult is the synonym brain's verdict for a normalized question.
// FieldID is empty when no field reached the acceptance threshold.
type MatchResult struct {
	FieldID        string  `json:"fieldId"`
	Confidence     float64 `json:"confidence"`
	MatchedPattern string  `json:"matchedPattern"`
	Ambiguous      bool    `json:"ambiguous,omitempty"`
}

// IsNone reports whether the match failed to land on a field.
func (m MatchResult) IsNone() bool {
	return m.FieldID == ""
}

// AnswerResult is the terminal output of a resolution.
type AnswerResult struct {
	Status      AnswerStatus `json:"status"`
	Value       string       `json:"value,omitempty"`
	RecordID    string       `json:"recordId,omitempty"`
	FieldID     string       `json:"fieldId,omitempty"`
	Explanation string       `json:"explanation"`
}
