package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

const issueSystemPrompt = "You are an expert in vehicle repair classification."

// issueTaxonomy is the built-in label set for the issue/component/action
// pass. Unlike the workbook taxonomy it ships with the binary, and the
// service's answer is reported as returned rather than repaired.
var issueTaxonomy = struct {
	Issues     []string
	Components []string
	Actions    []string
}{
	Issues: []string{
		"Material problems (peeling, delaminating, bubbling, sticky)",
		"Stitching failures",
		"Heating malfunctions",
		"Super Cruise/driver assistance failures",
		"Noise (clicking, rubbing)",
		"Horn malfunctions",
		"Electrical faults/DTCs",
		"Loose/protruding components",
		"Broken internal circuits",
		"Off-center alignment",
	},
	Components: []string{
		"Steering wheel (main component)",
		"Heated module",
		"Super Cruise/driver assistance module",
		"Leather/material covering",
		"Trim/bezel",
		"Electrical harness/wiring",
		"Control buttons/switches",
		"Horn mechanism",
		"Airbag assembly",
		"BCM (Body Control Module)",
	},
	Actions: []string{
		"Part replacement",
		"Pre-authorization (PRA)",
		"Circuit testing/diagnosis",
		"Module programming",
		"DTC clearing",
		"Torquing/alignment",
		"Road testing",
		"Technical assistance consultation",
		"Disassembly/reassembly",
		"System verification",
	},
}

// issueTagResponse is the wire shape of the issue/component/action answer.
// Absent fields unmarshal to nil and surface as empty columns.
type issueTagResponse struct {
	Issues     []string `json:"issues"`
	Components []string `json:"components"`
	Actions    []string `json:"actions"`
}

// IssueTags is one row's output for the three derived columns,
// comma-joined. Empty when the service found nothing or failed.
type IssueTags struct {
	Issues     string
	Components string
	Actions    string
}

// IssueTagger is the second classification pass: free-form multi-label
// extraction against the built-in taxonomy. It shares the prompt-cache
// discipline of the taxonomy tagger, so byte-identical prompts hit the
// service at most once per run, failures included.
type IssueTagger struct {
	classifier Classifier
	cache      map[string]issueTagResponse
}

func NewIssueTagger(classifier Classifier) *IssueTagger {
	return &IssueTagger{classifier: classifier, cache: make(map[string]issueTagResponse)}
}

// TagRecord classifies one record's customer and correction text. Rows with
// both fields blank skip the service and get empty tags; service failures
// of any kind degrade to empty tags and never abort the batch.
func (t *IssueTagger) TagRecord(customer, correction string) IssueTags {
	customer = strings.TrimSpace(customer)
	correction = strings.TrimSpace(correction)

	if customer == "" && correction == "" {
		return IssueTags{}
	}

	prompt := buildIssuePrompt(customer, correction)
	key := promptCacheKey(prompt)

	resp, ok := t.cache[key]
	if !ok {
		raw, err := t.classifier.Classify(issueSystemPrompt, prompt)
		if err != nil {
			log.Printf("issue classification failed, using empty tags: %v", err)
		} else if perr := json.Unmarshal([]byte(extractJSONBlock(raw)), &resp); perr != nil {
			log.Printf("issue classification response unparseable, using empty tags: %v", perr)
			resp = issueTagResponse{}
		}
		t.cache[key] = resp
	}

	return IssueTags{
		Issues:     strings.Join(resp.Issues, ", "),
		Components: strings.Join(resp.Components, ", "),
		Actions:    strings.Join(resp.Actions, ", "),
	}
}

func buildIssuePrompt(customer, correction string) string {
	taxonomyStr := strings.Join([]string{
		"Issue options: " + strings.Join(issueTaxonomy.Issues, ", "),
		"Component options: " + strings.Join(issueTaxonomy.Components, ", "),
		"Action options: " + strings.Join(issueTaxonomy.Actions, ", "),
	}, "\n")

	return fmt.Sprintf(`You are an expert in vehicle repair classification.

CLASSIFY ONLY USING THESE TAXONOMY OPTIONS:
%s

Analyze the following service record and extract:
- issues
- components
- actions

Text 1 (Customer Verbatim): %s
Text 2 (Correction Verbatim): %s

Return strictly in this JSON format:
{
"issues": ["..."],
"components": ["..."],
"actions": ["..."]
}

Rules:
- Use only the provided taxonomy options (exact or closest match).
- At least 1 issue, 1 component, and 1 action should be returned if identifiable.
- If nothing is found, return an empty list [] for that field.`, taxonomyStr, customer, correction)
}

var issueOutputColumns = []string{"ISSUES", "COMPONENTS", "ACTIONS"}

// MergeIssueTags adds the three issue/component/action columns to the table.
func MergeIssueTags(t *Table, tags []IssueTags) {
	rows := len(tags)
	cols := make(map[string][]Cell, len(issueOutputColumns))
	for _, name := range issueOutputColumns {
		cols[name] = make([]Cell, rows)
	}
	for i, tag := range tags {
		cols["ISSUES"][i] = Cell{Value: tag.Issues}
		cols["COMPONENTS"][i] = Cell{Value: tag.Components}
		cols["ACTIONS"][i] = Cell{Value: tag.Actions}
	}
	for _, name := range issueOutputColumns {
		t.AddColumn(name, cols[name])
	}
}
