// internal/brain/brain.go
package brain

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"dealbot/internal/catalog"
	"dealbot/internal/common/config"
	apperrors "dealbot/internal/common/errors"
	"dealbot/internal/common/logger"

	"github.com/xeipuuv/gojsonschema"
)

// Entry is one loaded synonym pattern.
type Entry struct {
	FieldID string
	Weight  float64
	Source  string
}

// Brain is the immutable synonym mapping built once at startup. All
// per-question resolution is a pure read against it, so a single
// instance is shared across goroutines without locking.
type Brain struct {
	version        string
	catalogVersion string
	patterns       map[string]Entry // normalized pattern -> entry
	ordered        []string         // patterns sorted for deterministic iteration
	cfg            config.ResolverConfig
	learnedPath    string
	log            logger.Logger
}

const sourceSeed = "seed"
const sourceArtifact = "artifact"
const sourceLearned = "learned"

// artifactSchema validates the brain JSON before it is trusted. Loading
// proceeds only on a clean document.
const artifactSchema = `{
  "type": "object",
  "required": ["version", "catalog_version", "fields"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "catalog_version": {"type": "string", "minLength": 1},
    "fields": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["patterns"],
        "properties": {
          "patterns": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["pattern", "weight"],
              "properties": {
                "pattern": {"type": "string", "minLength": 1},
                "weight": {"type": "number", "minimum": 0}
              }
            }
          }
        }
      }
    }
  }
}`

// Artifact is the decoded brain JSON document.
type Artifact struct {
	Version        string                 `json:"version"`
	CatalogVersion string                 `json:"catalog_version"`
	Fields         map[string]ArtifactSet `json:"fields"`
}

type ArtifactSet struct {
	Patterns []ArtifactPattern `json:"patterns"`
}

type ArtifactPattern struct {
	Pattern string  `json:"pattern"`
	Weight  float64 `json:"weight"`
}

// ParseArtifact schema-validates and decodes a brain artifact. It does
// not check catalog-version compatibility; loading does that.
func ParseArtifact(raw []byte) (*Artifact, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(artifactSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			issues = append(issues, e.String())
		}
		return nil, fmt.Errorf("schema validation: %s", strings.Join(issues, "; "))
	}

	var doc Artifact
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	return &doc, nil
}

// Load builds the brain from its layered sources, highest priority
// first: JSON artifact, embedded seed, learned CSV. A pattern defined
// by a higher layer is never overridden by a lower one.
func Load(cfg config.BrainConfig, resolverCfg config.ResolverConfig, log logger.Logger) (*Brain, error) {
	b := &Brain{
		version:        "unversioned",
		catalogVersion: catalog.Version,
		patterns:       make(map[string]Entry),
		cfg:            resolverCfg,
		learnedPath:    cfg.LearnedPath,
		log:            log,
	}

	if cfg.ArtifactPath != "" {
		if _, err := os.Stat(cfg.ArtifactPath); err == nil {
			if err := b.loadArtifact(cfg.ArtifactPath); err != nil {
				return nil, err
			}
		} else {
			log.Warn("Brain artifact not found, continuing with seed brain", map[string]interface{}{
				"path": cfg.ArtifactPath,
			})
		}
	}

	if cfg.SeedEnabled {
		b.loadSeed()
	}

	if cfg.LearnedPath != "" {
		if err := b.loadLearned(cfg.LearnedPath); err != nil {
			// Learned synonyms are advisory; a broken CSV must not stop startup.
			log.Warn("Failed to load learned synonyms", map[string]interface{}{
				"path":  cfg.LearnedPath,
				"error": err.Error(),
			})
		}
	}

	if len(b.patterns) == 0 {
		return nil, apperrors.NewBrainLoadError(fmt.Errorf("no synonym patterns loaded from any source"))
	}

	b.reindex()

	log.Info("Synonym brain loaded", map[string]interface{}{
		"version":  b.version,
		"patterns": len(b.patterns),
		"fields":   len(b.FieldCoverage()),
	})
	return b, nil
}

func (b *Brain) loadArtifact(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewBrainLoadError(fmt.Errorf("reading artifact %s: %w", path, err))
	}

	doc, err := ParseArtifact(raw)
	if err != nil {
		return apperrors.NewBrainLoadError(fmt.Errorf("artifact %s: %w", path, err))
	}

	if !versionCompatible(doc.CatalogVersion, catalog.Version) {
		return apperrors.NewBrainVersionError(doc.CatalogVersion, catalog.Version)
	}
	b.version = doc.Version

	added := 0
	for fieldID, set := range doc.Fields {
		if !catalog.Has(fieldID) {
			return apperrors.NewBrainLoadError(fmt.Errorf("artifact references unknown field %q", fieldID))
		}
		for _, p := range set.Patterns {
			if b.add(p.Pattern, fieldID, p.Weight, sourceArtifact) {
				added++
			}
		}
	}

	b.log.Info("Loaded brain artifact", map[string]interface{}{
		"path":     path,
		"version":  doc.Version,
		"patterns": added,
	})
	return nil
}

func (b *Brain) loadSeed() {
	added := 0
	fieldIDs := make([]string, 0, len(seedBrain))
	for fieldID := range seedBrain {
		fieldIDs = append(fieldIDs, fieldID)
	}
	sort.Strings(fieldIDs)

	for _, fieldID := range fieldIDs {
		for _, p := range seedBrain[fieldID] {
			if b.add(p.Pattern, fieldID, p.Weight, sourceSeed) {
				added++
			}
		}
	}
	b.log.Debug("Loaded seed brain", map[string]interface{}{"patterns": added})
}

// loadLearned reads the learned-synonym CSV (pattern,field_id,source,added_at).
// Rows naming unknown fields are skipped, not fatal.
func (b *Brain) loadLearned(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return err
	}

	added, skipped := 0, 0
	for _, row := range rows {
		if len(row) < 2 {
			skipped++
			continue
		}
		pattern, fieldID := row[0], row[1]
		if !catalog.Has(fieldID) {
			skipped++
			continue
		}
		if b.add(pattern, fieldID, 0.8, sourceLearned) {
			added++
		}
	}

	b.log.Info("Loaded learned synonyms", map[string]interface{}{
		"path":    path,
		"added":   added,
		"skipped": skipped,
	})
	return nil
}

// add inserts a normalized pattern unless a higher-priority layer
// already owns it. Returns true when the pattern was stored.
func (b *Brain) add(pattern, fieldID string, weight float64, source string) bool {
	norm := Normalize(pattern)
	if norm == "" || weight <= 0 {
		return false
	}
	if _, exists := b.patterns[norm]; exists {
		return false
	}
	b.patterns[norm] = Entry{FieldID: fieldID, Weight: weight, Source: source}
	return true
}

func (b *Brain) reindex() {
	b.ordered = make([]string, 0, len(b.patterns))
	for p := range b.patterns {
		b.ordered = append(b.ordered, p)
	}
	sort.Strings(b.ordered)
}

// versionCompatible compares major components ("2.1" targets "2.0").
func versionCompatible(artifact, current string) bool {
	return majorOf(artifact) == majorOf(current)
}

func majorOf(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

// Version returns the loaded artifact version, or "unversioned" when
// running on the seed brain alone.
func (b *Brain) Version() string {
	return b.version
}

// Patterns returns every loaded pattern with its entry, in sorted order.
func (b *Brain) Patterns() []string {
	out := make([]string, len(b.ordered))
	copy(out, b.ordered)
	return out
}

// Entry looks up a loaded pattern.
func (b *Brain) Entry(pattern string) (Entry, bool) {
	e, ok := b.patterns[Normalize(pattern)]
	return e, ok
}

// FieldCoverage counts patterns per field, used by the validator and
// the diagnostics endpoint.
func (b *Brain) FieldCoverage() map[string]int {
	cov := make(map[string]int)
	for _, e := range b.patterns {
		cov[e.FieldID]++
	}
	return cov
}

// AppendLearned records a newly learned synonym in the learned CSV and
// in the live map, unless the pattern already resolves to some field.
// Only the Ollama backend calls this, and only when learning is enabled;
// it is not safe to call concurrently with resolution.
func (b *Brain) AppendLearned(pattern, fieldID string) error {
	if !catalog.Has(fieldID) {
		return fmt.Errorf("unknown field %q", fieldID)
	}
	norm := Normalize(pattern)
	if norm == "" {
		return fmt.Errorf("empty pattern after normalization")
	}
	if existing, ok := b.patterns[norm]; ok {
		if existing.FieldID != fieldID {
			return fmt.Errorf("pattern %q already maps to field %q", norm, existing.FieldID)
		}
		return nil
	}
	if b.learnedPath == "" {
		return fmt.Errorf("no learned synonym path configured")
	}

	f, err := os.OpenFile(b.learnedPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{norm, fieldID, sourceLearned, time.Now().UTC().Format(time.RFC3339)}); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	b.patterns[norm] = Entry{FieldID: fieldID, Weight: 0.8, Source: sourceLearned}
	b.reindex()
	return nil
}
