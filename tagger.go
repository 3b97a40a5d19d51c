package main

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

const classifierSystemPrompt = "You are a classification assistant."

// PromptCache memoizes parsed service responses by prompt for the lifetime
// of the process. Byte-identical prompts across rows hit the service at
// most once per run; nothing is persisted.
type PromptCache struct {
	entries map[string]tagResponse
}

func NewPromptCache() *PromptCache {
	return &PromptCache{entries: make(map[string]tagResponse)}
}

func (c *PromptCache) get(key string) (tagResponse, bool) {
	resp, ok := c.entries[key]
	return resp, ok
}

func (c *PromptCache) put(key string, resp tagResponse) {
	c.entries[key] = resp
}

func (c *PromptCache) Len() int {
	return len(c.entries)
}

func promptCacheKey(prompt string) string {
	sum := md5.Sum([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// tagResponse is the wire shape of the service's JSON answer, before
// validation. Cached entries hold this shape so validation always runs,
// cached or not.
type tagResponse struct {
	RootCause        string   `json:"root_cause"`
	SymptomCondition []string `json:"symptom_condition"`
	SymptomComponent []string `json:"symptom_component"`
	FixCondition     []string `json:"fix_condition"`
	FixComponent     []string `json:"fix_component"`
	Confidence       float64  `json:"confidence"`
}

func defaultTagResponse() tagResponse {
	return tagResponse{
		RootCause:        NotMentioned,
		SymptomCondition: []string{NotMentioned, "", ""},
		SymptomComponent: []string{NotMentioned, "", ""},
		FixCondition:     []string{NotMentioned, "", ""},
		FixComponent:     []string{NotMentioned, "", ""},
		Confidence:       0.0,
	}
}

// Tagger classifies records against the closed taxonomy by delegating to
// the external service and validating whatever comes back. The cache is
// injected so tests can start from a known (usually empty) state.
type Tagger struct {
	classifier Classifier
	taxonomy   *Taxonomy
	cache      *PromptCache
}

func NewTagger(classifier Classifier, taxonomy *Taxonomy, cache *PromptCache) *Tagger {
	return &Tagger{classifier: classifier, taxonomy: taxonomy, cache: cache}
}

// TagRecord runs one record through the service and returns the validated
// result. Service failures of any kind degrade to the sentinel default
// with zero confidence; they never abort the batch.
func (t *Tagger) TagRecord(complaint, cause, correction string) TagResult {
	complaint = strings.TrimSpace(complaint)
	cause = strings.TrimSpace(cause)
	correction = strings.TrimSpace(correction)

	if complaint == "" && cause == "" && correction == "" {
		// Nothing to classify; skip the service entirely.
		return validateTagResponse(defaultTagResponse(), t.taxonomy)
	}

	prompt := buildClassificationPrompt(complaint, cause, correction, t.taxonomy)
	key := promptCacheKey(prompt)

	resp, ok := t.cache.get(key)
	if !ok {
		raw, err := t.classifier.Classify(classifierSystemPrompt, prompt)
		if err != nil {
			log.Printf("classification service failed, using defaults: %v", err)
			resp = defaultTagResponse()
		} else {
			parsed, perr := parseTagResponse(raw)
			if perr != nil {
				log.Printf("classification response unparseable, using defaults: %v", perr)
				resp = defaultTagResponse()
			} else {
				resp = parsed
			}
		}
		t.cache.put(key, resp)
	}

	// Validation is the only defense against the untrusted service; it
	// applies unconditionally, including to cached responses.
	return validateTagResponse(resp, t.taxonomy)
}

func buildClassificationPrompt(complaint, cause, correction string, tax *Taxonomy) string {
	taxonomyStr := strings.Join([]string{
		"Root Cause options: " + strings.Join(tax.RootCause, ", "),
		"Symptom Condition options: " + strings.Join(tax.SymptomCondition, ", "),
		"Symptom Component options: " + strings.Join(tax.SymptomComponent, ", "),
		"Fix Condition options: " + strings.Join(tax.FixCondition, ", "),
		"Fix Component options: " + strings.Join(tax.FixComponent, ", "),
	}, "\n")

	return fmt.Sprintf(`You are an expert in industrial maintenance classification.

ANALYZE THE FOLLOWING MAINTENANCE RECORD:
Complaint: %s
Cause: %s
Correction: %s

CLASSIFY USING ONLY THESE PREDEFINED CATEGORIES:
%s

CLASSIFICATION RULES:
1. Extract Root Cause from the Cause field
2. Extract Symptom Conditions (up to 3) from Complaint field
3. Extract Symptom Components (up to 3) from Complaint field
4. Extract Fix Conditions (up to 3) from Correction field
5. Extract Fix Components (up to 3) from Correction field
6. Use "Not Mentioned" if nothing matches
7. Use ONLY terms from the provided options
8. At least ONE Symptom Condition, ONE Symptom Component, ONE Fix Condition, and ONE Fix Component must be identified if possible

RETURN JSON FORMAT:
{
  "root_cause": "one option from Root Cause list",
  "symptom_condition": ["option1", "option2", "option3"],
  "symptom_component": ["option1", "option2", "option3"],
  "fix_condition": ["option1", "option2", "option3"],
  "fix_component": ["option1", "option2", "option3"],
  "confidence": 0.95
}`, complaint, cause, correction, taxonomyStr)
}

// parseTagResponse extracts the JSON payload, tolerating a fenced
// ```json code block around it.
func parseTagResponse(raw string) (tagResponse, error) {
	var resp tagResponse
	if err := json.Unmarshal([]byte(extractJSONBlock(raw)), &resp); err != nil {
		return tagResponse{}, fmt.Errorf("parsing classification response: %w", err)
	}
	return resp, nil
}

func extractJSONBlock(s string) string {
	s = strings.TrimSpace(s)
	if _, after, found := strings.Cut(s, "```json"); found {
		if body, _, ok := strings.Cut(after, "```"); ok {
			return strings.TrimSpace(body)
		}
		return strings.TrimSpace(after)
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// validateTagResponse repairs the untrusted response against the taxonomy.
// Single-label axis: a non-member that is not the sentinel is replaced and
// confidence scales by 0.8. Multi-label axes: each bad element is replaced
// and confidence scales by 0.9 per element, compounding. Lists end up
// exactly MaxAxisLabels wide.
func validateTagResponse(resp tagResponse, tax *Taxonomy) TagResult {
	conf := resp.Confidence

	root := resp.RootCause
	if root != NotMentioned && !containsLabel(tax.RootCause, root) {
		root = NotMentioned
		conf *= 0.8
	}

	result := TagResult{
		RootCause:        root,
		SymptomCondition: validateAxisLabels(resp.SymptomCondition, tax.SymptomCondition, &conf),
		SymptomComponent: validateAxisLabels(resp.SymptomComponent, tax.SymptomComponent, &conf),
		FixCondition:     validateAxisLabels(resp.FixCondition, tax.FixCondition, &conf),
		FixComponent:     validateAxisLabels(resp.FixComponent, tax.FixComponent, &conf),
	}

	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	result.Confidence = conf
	return result
}

func validateAxisLabels(labels, allowed []string, conf *float64) []string {
	if labels == nil {
		// Missing field in the response: default list, no penalty.
		return []string{NotMentioned, "", ""}
	}

	valid := make([]string, 0, len(labels))
	for _, label := range labels {
		if label == "" || label == NotMentioned || containsLabel(allowed, label) {
			valid = append(valid, label)
			continue
		}
		valid = append(valid, NotMentioned)
		*conf *= 0.9
	}

	for len(valid) < MaxAxisLabels {
		valid = append(valid, "")
	}
	return valid[:MaxAxisLabels]
}

func containsLabel(allowed []string, label string) bool {
	for _, l := range allowed {
		if l == label {
			return true
		}
	}
	return false
}

// tagOutputColumns is the fixed layout of the classification columns merged
// into the table.
var tagOutputColumns = []string{
	"Root Cause",
	"Symptom Condition 1", "Symptom Condition 2", "Symptom Condition 3",
	"Symptom Component 1", "Symptom Component 2", "Symptom Component 3",
	"Fix Condition 1", "Fix Condition 2", "Fix Condition 3",
	"Fix Component 1", "Fix Component 2", "Fix Component 3",
	"Confidence",
}

// MergeTagResults adds one column per taxonomy axis slot plus the
// confidence score. Empty multi-label slots are written as the sentinel so
// the output never carries blanks in tag columns.
func MergeTagResults(t *Table, results []TagResult) {
	rows := len(results)
	cols := make(map[string][]Cell, len(tagOutputColumns))
	for _, name := range tagOutputColumns {
		cols[name] = make([]Cell, rows)
	}

	for i, r := range results {
		cols["Root Cause"][i] = Cell{Value: r.RootCause}
		fillAxisCells(cols, "Symptom Condition", i, r.SymptomCondition)
		fillAxisCells(cols, "Symptom Component", i, r.SymptomComponent)
		fillAxisCells(cols, "Fix Condition", i, r.FixCondition)
		fillAxisCells(cols, "Fix Component", i, r.FixComponent)
		cols["Confidence"][i] = Cell{Value: formatFloat(r.Confidence)}
	}

	for _, name := range tagOutputColumns {
		t.AddColumn(name, cols[name])
	}
}

func fillAxisCells(cols map[string][]Cell, prefix string, row int, labels []string) {
	for slot := 0; slot < MaxAxisLabels; slot++ {
		value := NotMentioned
		if slot < len(labels) && labels[slot] != "" {
			value = labels[slot]
		}
		cols[fmt.Sprintf("%s %d", prefix, slot+1)][row] = Cell{Value: value}
	}
}

// CountLowConfidence returns how many results fall below the manual-review
// threshold.
func CountLowConfidence(results []TagResult, threshold float64) int {
	n := 0
	for _, r := range results {
		if r.Confidence < threshold {
			n++
		}
	}
	return n
}
