// internal/brain/normalize.go
package brain

import (
	"strings"
	"unicode"
)

// abbreviations expands shorthand seen in real dealer questions. Applied
// token-wise after punctuation stripping, so "p/n" is handled earlier by
// the pre-replacer.
var abbreviations = map[string]string{
	"qty":   "quantity",
	"pcs":   "pieces",
	"pc":    "piece",
	"cust":  "customer",
	"exp":   "expiration",
	"avail": "available",
	"num":   "number",
}

var preReplacer = strings.NewReplacer(
	"p/n", "part number",
	"what's", "what is",
	"whats", "what is",
)

// Normalize canonicalizes question text for pattern comparison:
// lower-case, strip punctuation, collapse whitespace, expand known
// abbreviations. Matching correctness depends on patterns and questions
// going through the identical pipeline.
func Normalize(text string) string {
	lowered := preReplacer.Replace(strings.ToLower(text))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	for i, tok := range tokens {
		if full, ok := abbreviations[tok]; ok {
			tokens[i] = full
		}
	}
	return strings.Join(tokens, " ")
}

// Tokens returns the normalized token list of text.
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}
