// internal/backend/ollama.go
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"dealbot/internal/brain"
	"dealbot/internal/common/config"
	apperrors "dealbot/internal/common/errors"
	"dealbot/internal/common/httpclient"
	"dealbot/internal/common/logger"
	"dealbot/internal/models"
	"dealbot/internal/resolver"
)

// modelSpec describes one Ollama model tag the backend can route to.
type modelSpec struct {
	Tag              string
	Prompt           string
	ColdStartTimeout time.Duration
}

// Larger models get a longer cold-start allowance; first use of a model
// triggers a one-time warm-up ping so real calls are not charged the
// model load time.
var modelRegistry = map[string]modelSpec{
	"mistral": {
		Tag: "mistral",
		Prompt: "You are a synonym-suggestion assistant. The user will give a natural " +
			"language question and you must return a JSON list of matching field " +
			"names. Return only these exact field names:\n" +
			"- \"Remaining qty\"\n- \"Dealer net price [USD]\"\n- \"Customer\"\n" +
			"- \"Product family\"\n- \"End date\"\n- \"Part number\"\n- \"Deal ID\"\n\nQuestion:\n%q",
		ColdStartTimeout: 30 * time.Second,
	},
	"openchat": {
		Tag: "openchat",
		Prompt: "Determine which fields the user is asking about in: %q\n" +
			"Return a JSON list, using exactly these field names: Remaining qty, " +
			"Dealer net price [USD], Customer, Product family, End date, Part number, Deal ID.",
		ColdStartTimeout: 30 * time.Second,
	},
	"mixtral": {
		Tag: "mixtral",
		Prompt: "Identify the fields referenced in the question (JSON array of objects " +
			"with field + confidence 0-100). Fields: Remaining qty, Dealer net price [USD], " +
			"Customer, Product family, End date, Part number, Deal ID.\n\nQuestion: %s",
		ColdStartTimeout: 90 * time.Second,
	},
}

// fieldAliases maps the display names the prompts use back onto catalog ids.
var fieldAliases = map[string]string{
	"remaining qty":          "remaining_qty",
	"remaining quantity":     "remaining_qty",
	"dealer net price [usd]": "dealer_net_price",
	"dealer net price":       "dealer_net_price",
	"customer":               "customer",
	"product family":         "product_family",
	"end date":               "end_date",
	"part number":            "part_number",
	"deal id":                "deal_id",
}

// minSuggestionConfidence filters object-form model output.
const minSuggestionConfidence = 70

// Ollama delegates field resolution to a local Ollama model, then
// answers from the record snapshot. With learning enabled, phrasings
// the brain could not resolve but the model could are written back as
// learned synonyms.
type Ollama struct {
	cfg      config.OllamaConfig
	client   *httpclient.Client
	resolver *resolver.Resolver
	brain    *brain.Brain
	log      logger.Logger

	warmMu sync.Mutex
	warmed map[string]bool
}

func NewOllama(cfg config.OllamaConfig, r *resolver.Resolver, b *brain.Brain, log logger.Logger) *Ollama {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Ollama{
		cfg:      cfg,
		client:   httpclient.NewClient(timeout, 1, time.Second),
		resolver: r,
		brain:    b,
		log:      log,
		warmed:   make(map[string]bool),
	}
}

func (o *Ollama) Name() string {
	return "ollama"
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (o *Ollama) Answer(ctx context.Context, q models.Question) (models.AnswerResult, error) {
	combined := q.CombinedText()

	fieldID, err := o.suggestField(ctx, combined)
	if err != nil {
		return models.AnswerResult{}, err
	}
	if fieldID == "" {
		// The brain's own tiers often understand phrasings the model
		// does not, so an unusable suggestion falls through to the
		// regular resolution path instead of giving up.
		o.log.Debug("No usable field suggestion, falling back to brain", map[string]interface{}{
			"question": q.RawText,
		})
		return o.resolver.Answer(q), nil
	}

	if o.cfg.LearnSynonyms {
		o.maybeLearn(combined, fieldID)
	}

	return o.resolver.AnswerForField(q, fieldID), nil
}

// suggestField asks the routed model which catalog field the question
// targets and returns the first recognizable suggestion.
func (o *Ollama) suggestField(ctx context.Context, question string) (string, error) {
	modelName := o.routeModel(question)
	spec := modelRegistry[modelName]

	if err := o.warmUp(ctx, spec); err != nil {
		o.log.Warn("Model warm-up failed, proceeding anyway", map[string]interface{}{
			"model": modelName,
			"error": err.Error(),
		})
	}

	var resp generateResponse
	err := o.client.PostJSON(ctx, o.cfg.BaseURL+"/api/generate", generateRequest{
		Model:  spec.Tag,
		Prompt: fmt.Sprintf(spec.Prompt, question),
		Stream: false,
	}, &resp)
	if err != nil {
		return "", apperrors.NewTransportError(o.cfg.BaseURL, err)
	}

	for _, name := range extractFieldNames(resp.Response) {
		if fieldID, ok := fieldAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
			return fieldID, nil
		}
	}
	return "", nil
}

// routeModel picks a model by question shape: the large model for
// compound questions, the conversational one for polite phrasing, the
// default otherwise. Unknown configured defaults fall back to mistral.
func (o *Ollama) routeModel(question string) string {
	q := strings.ToLower(question)
	for _, k := range []string{" and ", " with ", " including "} {
		if strings.Contains(q, k) {
			return "mixtral"
		}
	}
	for _, k := range []string{"could you", "would you", "please", "thank"} {
		if strings.Contains(q, k) {
			return "openchat"
		}
	}
	if _, ok := modelRegistry[o.cfg.DefaultModel]; ok {
		return o.cfg.DefaultModel
	}
	return "mistral"
}

func (o *Ollama) warmUp(ctx context.Context, spec modelSpec) error {
	o.warmMu.Lock()
	if o.warmed[spec.Tag] {
		o.warmMu.Unlock()
		return nil
	}
	o.warmMu.Unlock()

	warmCtx, cancel := context.WithTimeout(ctx, spec.ColdStartTimeout)
	defer cancel()

	err := o.client.PostJSON(warmCtx, o.cfg.BaseURL+"/api/generate", generateRequest{
		Model:  spec.Tag,
		Prompt: "ping",
		Stream: false,
	}, nil)
	if err != nil {
		return err
	}

	o.warmMu.Lock()
	o.warmed[spec.Tag] = true
	o.warmMu.Unlock()
	return nil
}

var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)
var quotedPattern = regexp.MustCompile(`"([^"]+)"`)
var fieldKeyPattern = regexp.MustCompile(`"field"\s*:\s*"([^"]+)"`)

// extractFieldNames pulls field suggestions out of free-form model
// output: a JSON array of strings, an array of {field, confidence}
// objects, or as a last resort any quoted strings in the text.
func extractFieldNames(raw string) []string {
	snippet := jsonArrayPattern.FindString(raw)
	if snippet == "" {
		return dedupe(matchGroups(quotedPattern, raw))
	}

	var asStrings []string
	if err := json.Unmarshal([]byte(snippet), &asStrings); err == nil {
		return dedupe(asStrings)
	}

	var asObjects []struct {
		Field      string  `json:"field"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(snippet), &asObjects); err == nil {
		var out []string
		for _, obj := range asObjects {
			if obj.Confidence >= minSuggestionConfidence {
				out = append(out, obj.Field)
			}
		}
		return dedupe(out)
	}

	if names := matchGroups(fieldKeyPattern, snippet); len(names) > 0 {
		return dedupe(names)
	}
	return dedupe(matchGroups(quotedPattern, snippet))
}

func matchGroups(re *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// maybeLearn records the phrasing as a learned synonym when the brain
// alone could not resolve it.
func (o *Ollama) maybeLearn(combined, fieldID string) {
	if !o.brain.ResolveField(combined).IsNone() {
		return
	}
	norm := brain.Normalize(combined)
	if norm == "" {
		return
	}
	if err := o.brain.AppendLearned(norm, fieldID); err != nil {
		o.log.Warn("Failed to record learned synonym", map[string]interface{}{
			"pattern": norm,
			"field":   fieldID,
			"error":   err.Error(),
		})
		return
	}
	o.log.Info("Learned new synonym", map[string]interface{}{
		"pattern": norm,
		"field":   fieldID,
	})
}
