package main

import (
	"strconv"
	"strings"
)

// ruleFacts is everything a rule may look at: the case-folded
// concatenation of the record's text fields plus a few numeric fields.
type ruleFacts struct {
	text      string
	repairAge float64
	km        float64
	totalCost float64
	laborCost float64
}

func (f ruleFacts) partsCost() float64 {
	return f.totalCost - f.laborCost
}

func (f ruleFacts) has(term string) bool {
	return strings.Contains(f.text, term)
}

func (f ruleFacts) hasAny(terms ...string) bool {
	for _, t := range terms {
		if f.has(t) {
			return true
		}
	}
	return false
}

// RuleTags are the five heuristic labels derived per record.
type RuleTags struct {
	Complexity       string
	System           string
	FailureMode      string
	Urgency          string
	DiagnosticMethod string
}

// taggingRule pairs a label with its predicate. Rules live in ordered
// tables and the first match wins, so the order of each table is load
// bearing and must not be rearranged.
type taggingRule struct {
	label string
	match func(ruleFacts) bool
}

var complexityRules = []taggingRule{
	{"High", func(f ruleFacts) bool {
		return f.partsCost() > 1000 || (f.has("replaced") && (f.has("module") || f.has("programming")))
	}},
	{"Medium", func(f ruleFacts) bool { return f.partsCost() > 300 || f.has("replaced") }},
	{"Low", func(f ruleFacts) bool { return f.hasAny("adjusted", "cleaned", "checked") }},
}

var systemRules = []taggingRule{
	{"Driver Assistance", func(f ruleFacts) bool { return f.hasAny("super cruise", "driver assist") }},
	{"Comfort System", func(f ruleFacts) bool { return f.has("heated") && f.has("wheel") }},
	{"Electrical System", func(f ruleFacts) bool { return f.has("horn") }},
	{"Interior Trim", func(f ruleFacts) bool { return f.has("wheel") && f.hasAny("trim", "cover", "plastic") }},
	{"Steering System", func(f ruleFacts) bool { return f.has("wheel") }},
}

var failureModeRules = []taggingRule{
	{"Material Degradation", func(f ruleFacts) bool {
		return f.hasAny("coming apart", "peeling", "fraying", "bubbling")
	}},
	{"Assembly Issue", func(f ruleFacts) bool { return f.hasAny("loose", "protruding") }},
	{"Functional Failure", func(f ruleFacts) bool { return f.hasAny("inop", "not working", "malfunction") }},
	{"Electronic/Software Issue", func(f ruleFacts) bool { return f.hasAny("dtc", "code", "light", "message") }},
	{"NVH Issue", func(f ruleFacts) bool { return f.hasAny("noise", "clicking", "rubbing") }},
}

var urgencyRules = []taggingRule{
	{"Immediate", func(f ruleFacts) bool { return f.repairAge == 0 }},
	{"Safety Critical", func(f ruleFacts) bool { return f.hasAny("safety", "airbag") }},
	{"Early Failure", func(f ruleFacts) bool { return f.km != 0 && f.km < 20000 && f.repairAge < 6 }},
	{"Long-term Issue", func(f ruleFacts) bool { return f.repairAge > 24 }},
}

var diagnosticMethodRules = []taggingRule{
	{"Technical Assistance", func(f ruleFacts) bool { return f.hasAny("tac case", "technical assistance") }},
	{"Diagnostic Scan", func(f ruleFacts) bool { return f.hasAny("dtc", "scan") }},
	{"Circuit Testing", func(f ruleFacts) bool { return f.has("test") && f.has("circuit") }},
	{"Software Reprogramming", func(f ruleFacts) bool { return f.has("prog") }},
	{"Pre-authorization Required", func(f ruleFacts) bool { return f.has("pra") }},
	{"Direct Replacement", func(f ruleFacts) bool { return f.has("replace") }},
}

func evalRules(rules []taggingRule, fallback string, f ruleFacts) string {
	for _, r := range rules {
		if r.match(f) {
			return r.label
		}
	}
	return fallback
}

// DeriveTags is a pure function from record facts to the five heuristic
// tags. No external calls; the only failure mode is non-numeric input,
// which coerces to 0 before this runs.
func DeriveTags(f ruleFacts) RuleTags {
	return RuleTags{
		Complexity:       evalRules(complexityRules, "Medium", f),
		System:           evalRules(systemRules, "Other", f),
		FailureMode:      evalRules(failureModeRules, "Unknown", f),
		Urgency:          evalRules(urgencyRules, "Normal", f),
		DiagnosticMethod: evalRules(diagnosticMethodRules, "Visual Inspection", f),
	}
}

// coerceNumber strips everything except digits and dots before parsing,
// so values like "1,200 km" still yield a number. Anything unparseable is
// 0.
func coerceNumber(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// rowRuleFacts gathers the facts for one row using the configured column
// names; absent columns read as empty/zero.
func rowRuleFacts(t *Table, row int, cfg Config) ruleFacts {
	var parts []string
	for _, col := range cfg.RuleTextColumns {
		if v := strings.TrimSpace(t.StringAt(col, row)); v != "" {
			parts = append(parts, v)
		}
	}
	return ruleFacts{
		text:      strings.ToLower(strings.Join(parts, " ")),
		repairAge: coerceNumber(t.StringAt(cfg.RepairAgeColumn, row)),
		km:        coerceNumber(t.StringAt(cfg.KMColumn, row)),
		totalCost: coerceNumber(t.StringAt(cfg.TotalCostColumn, row)),
		laborCost: coerceNumber(t.StringAt(cfg.LaborCostColumn, row)),
	}
}

var ruleOutputColumns = []string{
	"REPAIR_COMPLEXITY",
	"VEHICLE_SYSTEM",
	"FAILURE_MODE",
	"REPAIR_URGENCY",
	"DIAGNOSTIC_METHOD",
}

// MergeRuleTags derives the heuristic tags for every row and adds the five
// tag columns to the table.
func MergeRuleTags(t *Table, cfg Config) {
	rows := t.RowCount()
	cols := make(map[string][]Cell, len(ruleOutputColumns))
	for _, name := range ruleOutputColumns {
		cols[name] = make([]Cell, rows)
	}

	for i := 0; i < rows; i++ {
		tags := DeriveTags(rowRuleFacts(t, i, cfg))
		cols["REPAIR_COMPLEXITY"][i] = Cell{Value: tags.Complexity}
		cols["VEHICLE_SYSTEM"][i] = Cell{Value: tags.System}
		cols["FAILURE_MODE"][i] = Cell{Value: tags.FailureMode}
		cols["REPAIR_URGENCY"][i] = Cell{Value: tags.Urgency}
		cols["DIAGNOSTIC_METHOD"][i] = Cell{Value: tags.DiagnosticMethod}
	}

	for _, name := range ruleOutputColumns {
		t.AddColumn(name, cols[name])
	}
}
