// internal/brain/match.go
package brain

import (
	"strings"

	"dealbot/internal/models"

	"github.com/agext/levenshtein"
)

// candidate is one scored field during resolution.
type candidate struct {
	fieldID    string
	confidence float64
	pattern    string
	tokenCount int
}

// ResolveField maps a free-text question onto a canonical field.
// Matching is tiered: exact phrase containment, then token-subset,
// then fuzzy distance as a last resort. Pure function of the question
// and the loaded brain; iteration order is fixed, so identical input
// always yields the identical result.
func (b *Brain) ResolveField(questionText string) models.MatchResult {
	norm := Normalize(questionText)
	if norm == "" {
		return models.MatchResult{}
	}
	questionTokens := strings.Fields(norm)

	best := b.matchExact(norm)
	if len(best) == 0 {
		best = b.matchTokenSubset(questionTokens)
	}
	if len(best) == 0 {
		best = b.matchFuzzy(norm)
	}
	if len(best) == 0 {
		return models.MatchResult{}
	}

	winner, ambiguous := pickWinner(best)
	if ambiguous {
		return models.MatchResult{Ambiguous: true}
	}
	if winner.confidence < b.cfg.AcceptThreshold {
		return models.MatchResult{}
	}
	return models.MatchResult{
		FieldID:        winner.fieldID,
		Confidence:     winner.confidence,
		MatchedPattern: winner.pattern,
	}
}

// matchExact finds patterns appearing verbatim as a phrase in the
// question. Confidence is 1.0 regardless of pattern weight.
func (b *Brain) matchExact(norm string) []candidate {
	padded := " " + norm + " "
	var out []candidate
	for _, p := range b.ordered {
		if strings.Contains(padded, " "+p+" ") {
			e := b.patterns[p]
			out = append(out, candidate{
				fieldID:    e.FieldID,
				confidence: 1.0,
				pattern:    p,
				tokenCount: len(strings.Fields(p)),
			})
		}
	}
	return out
}

// matchTokenSubset accepts patterns whose tokens all appear in the
// question, any order. Confidence scales by pattern weight and the
// coverage ratio of pattern tokens over question tokens, capped below
// 1.0 so exact matches always outrank it.
func (b *Brain) matchTokenSubset(questionTokens []string) []candidate {
	if len(questionTokens) == 0 {
		return nil
	}
	present := make(map[string]bool, len(questionTokens))
	for _, t := range questionTokens {
		present[t] = true
	}

	var out []candidate
	for _, p := range b.ordered {
		patternTokens := strings.Fields(p)
		if len(patternTokens) < 2 {
			// Single-token subsets are identical to exact containment,
			// which already failed.
			continue
		}
		all := true
		for _, t := range patternTokens {
			if !present[t] {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		e := b.patterns[p]
		coverage := float64(len(patternTokens)) / float64(len(questionTokens))
		if coverage > 1 {
			coverage = 1
		}
		conf := e.Weight * (0.5 + 0.49*coverage)
		out = append(out, candidate{
			fieldID:    e.FieldID,
			confidence: conf,
			pattern:    p,
			tokenCount: len(patternTokens),
		})
	}
	return out
}

// matchFuzzy scores the question against every pattern by Levenshtein
// similarity, scaled down so a fuzzy hit never beats the lower tiers.
// Skipped entirely for very short questions, where edit distance is
// mostly noise.
func (b *Brain) matchFuzzy(norm string) []candidate {
	if len(norm) < b.cfg.FuzzyMinLen {
		return nil
	}

	var out []candidate
	bestConf := 0.0
	for _, p := range b.ordered {
		sim := levenshtein.Similarity(norm, p, nil)
		e := b.patterns[p]
		conf := sim * e.Weight * b.cfg.FuzzyScale
		c := candidate{
			fieldID:    e.FieldID,
			confidence: conf,
			pattern:    p,
			tokenCount: len(strings.Fields(p)),
		}
		switch {
		case conf > bestConf:
			bestConf = conf
			out = []candidate{c}
		case conf == bestConf && conf > 0:
			out = append(out, c)
		}
	}
	return out
}

// pickWinner applies the tie-break: highest confidence, then the more
// specific (longer) pattern. Distinct fields still tied after both
// rules means the question is genuinely ambiguous.
func pickWinner(cands []candidate) (candidate, bool) {
	best := cands[0]
	tied := []candidate{best}
	for _, c := range cands[1:] {
		switch {
		case c.confidence > best.confidence,
			c.confidence == best.confidence && c.tokenCount > best.tokenCount:
			best = c
			tied = []candidate{c}
		case c.confidence == best.confidence && c.tokenCount == best.tokenCount:
			tied = append(tied, c)
		}
	}

	for _, c := range tied {
		if c.fieldID != best.fieldID {
			return candidate{}, true
		}
	}
	return best, false
}
