// File path: internal/core/config.go
package core

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/dataset"
)

// Config carries every tunable of the query core. Zero values mean "use
// the default"; CacheDatasets is a pointer so an explicit false survives
// merging.
type Config struct {
	CatalogPath        string         `json:"catalog_path"`
	SemanticFloor      float64        `json:"semantic_floor"`
	ResultRowBudget    int            `json:"result_row_budget"`
	ScanRowBudget      int            `json:"scan_row_budget"`
	DefaultTopK        int            `json:"default_topk"`
	DeadlineMS         int            `json:"deadline_ms"`
	EmbeddingModelName string         `json:"embedding_model_name"`
	CacheDatasets      *bool          `json:"cache_datasets"`
	Dataset            dataset.Config `json:"dataset"`
}

// Merge overlays non-zero fields of override onto c.
func (c Config) Merge(override Config) Config {
	merged := c
	if override.CatalogPath != "" {
		merged.CatalogPath = override.CatalogPath
	}
	if override.SemanticFloor != 0 {
		merged.SemanticFloor = override.SemanticFloor
	}
	if override.ResultRowBudget != 0 {
		merged.ResultRowBudget = override.ResultRowBudget
	}
	if override.ScanRowBudget != 0 {
		merged.ScanRowBudget = override.ScanRowBudget
	}
	if override.DefaultTopK != 0 {
		merged.DefaultTopK = override.DefaultTopK
	}
	if override.DeadlineMS != 0 {
		merged.DeadlineMS = override.DeadlineMS
	}
	if override.EmbeddingModelName != "" {
		merged.EmbeddingModelName = override.EmbeddingModelName
	}
	if override.CacheDatasets != nil {
		merged.CacheDatasets = override.CacheDatasets
	}
	merged.Dataset = c.Dataset.Merge(override.Dataset)
	return merged
}

func (c *Config) applyDefaults() {
	if c.CatalogPath == "" {
		c.CatalogPath = "catalog.json"
	}
	if c.SemanticFloor == 0 {
		c.SemanticFloor = 0.35
	}
	if c.ResultRowBudget == 0 {
		c.ResultRowBudget = 10000
	}
	if c.ScanRowBudget == 0 {
		c.ScanRowBudget = 1000000
	}
	if c.DefaultTopK == 0 {
		c.DefaultTopK = 10
	}
	if c.DeadlineMS == 0 {
		c.DeadlineMS = 15000
	}
	if c.CacheDatasets == nil {
		cache := true
		c.CacheDatasets = &cache
	}
	c.Dataset.CacheDatasets = *c.CacheDatasets
}

// LoadConfig reads an optional JSON config file and overlays the
// AGENTBI_* environment on top of it.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("core: read config %s: %w", path, err)
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("core: parse config %s: %w", path, err)
		}
	}
	cfg = cfg.Merge(envConfig())
	cfg.applyDefaults()
	return cfg, nil
}

func envConfig() Config {
	var cfg Config
	cfg.CatalogPath = strings.TrimSpace(os.Getenv("AGENTBI_CATALOG"))
	if v, err := strconv.ParseFloat(os.Getenv("AGENTBI_SEMANTIC_FLOOR"), 64); err == nil {
		cfg.SemanticFloor = v
	}
	cfg.ResultRowBudget = envInt("AGENTBI_RESULT_ROW_BUDGET")
	cfg.ScanRowBudget = envInt("AGENTBI_SCAN_ROW_BUDGET")
	cfg.DefaultTopK = envInt("AGENTBI_DEFAULT_TOPK")
	cfg.DeadlineMS = envInt("AGENTBI_DEADLINE_MS")
	cfg.EmbeddingModelName = strings.TrimSpace(os.Getenv("AGENTBI_EMBEDDING_MODEL"))
	if v := strings.TrimSpace(os.Getenv("AGENTBI_CACHE_DATASETS")); v != "" {
		cache := v != "false" && v != "0"
		cfg.CacheDatasets = &cache
	}
	cfg.Dataset.Backend = strings.TrimSpace(os.Getenv("AGENTBI_DATASET_BACKEND"))
	cfg.Dataset.Dir = strings.TrimSpace(os.Getenv("AGENTBI_DATASET_DIR"))
	cfg.Dataset.DSN = strings.TrimSpace(os.Getenv("AGENTBI_DATASET_DSN"))
	cfg.Dataset.Driver = strings.TrimSpace(os.Getenv("AGENTBI_DATASET_DRIVER"))
	return cfg
}

func envInt(name string) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(name)))
	if err != nil {
		return 0
	}
	return v
}
