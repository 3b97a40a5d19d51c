package main

import (
	"log"
)

func main() {
	cfg := LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	table, err := LoadTable(cfg.InputPath, cfg.RecordsSheet)
	if err != nil {
		log.Fatalf("Failed to load records: %v", err)
	}
	taxonomy, err := LoadTaxonomy(cfg.InputPath, cfg.TaxonomySheet)
	if err != nil {
		log.Fatalf("Failed to load taxonomy: %v", err)
	}

	log.Println("Profiling columns...")
	profiles := ProfileTable(table)
	for _, col := range table.Columns {
		log.Printf("profile %s", profiles[col].describe())
	}

	log.Println("Cleaning data...")
	cleaned, insights := CleanTable(table, profiles)
	for _, insight := range insights {
		log.Printf("clean: %s", insight)
	}

	log.Println("Classifying records...")
	classifier := NewClassifier(cfg)
	tagger := NewTagger(classifier, taxonomy, NewPromptCache())
	rows := cleaned.RowCount()
	results := make([]TagResult, rows)
	for i := 0; i < rows; i++ {
		results[i] = tagger.TagRecord(
			cleaned.StringAt(cfg.ComplaintColumn, i),
			cleaned.StringAt(cfg.CauseColumn, i),
			cleaned.StringAt(cfg.CorrectionColumn, i),
		)
		log.Printf("tagged row %d/%d confidence=%.2f", i+1, rows, results[i].Confidence)
	}
	MergeTagResults(cleaned, results)

	log.Println("Extracting issue/component/action tags...")
	issueTagger := NewIssueTagger(classifier)
	issueTags := make([]IssueTags, rows)
	for i := 0; i < rows; i++ {
		issueTags[i] = issueTagger.TagRecord(
			cleaned.StringAt(cfg.ComplaintColumn, i),
			cleaned.StringAt(cfg.CorrectionColumn, i),
		)
	}
	MergeIssueTags(cleaned, issueTags)

	log.Println("Deriving rule-based tags...")
	MergeRuleTags(cleaned, cfg)

	if err := WriteTable(cleaned, cfg.OutputPath); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	if low := CountLowConfidence(results, cfg.LLMConfidence); low > 0 {
		log.Printf("WARNING: %d rows need manual review (confidence below %.2f)", low, cfg.LLMConfidence)
	}
	log.Println("Done.")
}
