package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	InputPath     string `yaml:"input_path"`
	OutputPath    string `yaml:"output_path"`
	RecordsSheet  string `yaml:"records_sheet"`
	TaxonomySheet string `yaml:"taxonomy_sheet"`

	LLMProvider    string  `yaml:"llm_provider"`
	LLMModel       string  `yaml:"llm_model"`
	LLMEndpoint    string  `yaml:"llm_endpoint"`
	LLMTemperature float64 `yaml:"llm_temperature"`
	LLMConfidence  float64 `yaml:"llm_confidence_threshold"`

	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`

	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`

	ComplaintColumn  string `yaml:"complaint_column"`
	CauseColumn      string `yaml:"cause_column"`
	CorrectionColumn string `yaml:"correction_column"`

	RuleTextColumns []string `yaml:"rule_text_columns"`
	RepairAgeColumn string   `yaml:"repair_age_column"`
	KMColumn        string   `yaml:"km_column"`
	TotalCostColumn string   `yaml:"total_cost_column"`
	LaborCostColumn string   `yaml:"labor_cost_column"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.InputPath, "INPUT_PATH")
	envOverride(&cfg.OutputPath, "OUTPUT_PATH")
	envOverride(&cfg.RecordsSheet, "RECORDS_SHEET")
	envOverride(&cfg.TaxonomySheet, "TAXONOMY_SHEET")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.LLMEndpoint, "LLM_ENDPOINT")
	envOverrideFloat(&cfg.LLMTemperature, "LLM_TEMPERATURE")
	envOverrideFloat(&cfg.LLMConfidence, "LLM_CONFIDENCE_THRESHOLD")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.ComplaintColumn, "COMPLAINT_COLUMN")
	envOverride(&cfg.CauseColumn, "CAUSE_COLUMN")
	envOverride(&cfg.CorrectionColumn, "CORRECTION_COLUMN")
	envOverride(&cfg.RepairAgeColumn, "REPAIR_AGE_COLUMN")
	envOverride(&cfg.KMColumn, "KM_COLUMN")
	envOverride(&cfg.TotalCostColumn, "TOTAL_COST_COLUMN")
	envOverride(&cfg.LaborCostColumn, "LABOR_COST_COLUMN")

	if names := os.Getenv("RULE_TEXT_COLUMNS"); names != "" {
		cfg.RuleTextColumns = nil
		for _, name := range strings.Split(names, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				cfg.RuleTextColumns = append(cfg.RuleTextColumns, name)
			}
		}
	}

	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.RecordsSheet == "" {
		cfg.RecordsSheet = "Task"
	}
	if cfg.TaxonomySheet == "" {
		cfg.TaxonomySheet = "Taxonomy"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.LLMEndpoint == "" {
		cfg.LLMEndpoint = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.LLMTemperature == 0 {
		cfg.LLMTemperature = 0.1
	}
	if cfg.LLMConfidence == 0 {
		cfg.LLMConfidence = 0.70
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = 30
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "./tagged_output.xlsx"
	}
	if cfg.ComplaintColumn == "" {
		cfg.ComplaintColumn = "Complaint"
	}
	if cfg.CauseColumn == "" {
		cfg.CauseColumn = "Cause"
	}
	if cfg.CorrectionColumn == "" {
		cfg.CorrectionColumn = "Correction"
	}
	if len(cfg.RuleTextColumns) == 0 {
		cfg.RuleTextColumns = []string{
			cfg.ComplaintColumn,
			cfg.CauseColumn,
			cfg.CorrectionColumn,
		}
	}
	if cfg.RepairAgeColumn == "" {
		cfg.RepairAgeColumn = "REPAIR_AGE"
	}
	if cfg.KMColumn == "" {
		cfg.KMColumn = "KM"
	}
	if cfg.TotalCostColumn == "" {
		cfg.TotalCostColumn = "TOTALCOST"
	}
	if cfg.LaborCostColumn == "" {
		cfg.LaborCostColumn = "LBRCOST"
	}
}

// Validate reports config problems that should stop the run before any work.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.InputPath) == "" {
		return fmt.Errorf("input_path is required")
	}
	switch cfg.LLMProvider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unknown llm_provider %q (want anthropic or openai)", cfg.LLMProvider)
	}
	return nil
}

func envOverride(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envOverrideInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid %s: %v", key, err)
		}
		*target = n
	}
}

func envOverrideFloat(target *float64, key string) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Fatalf("Invalid %s: %v", key, err)
		}
		*target = f
	}
}
