// File path: internal/dataset/config.go
package dataset

import "strings"

const (
	BackendMemory = "memory"
	BackendSQL    = "sql"

	defaultDriver = "sqlite"
	defaultDir    = "data"
)

// Config selects and tunes the dataset backend.
type Config struct {
	Backend       string `json:"backend"`
	Dir           string `json:"dir"`
	Driver        string `json:"driver"`
	DSN           string `json:"dsn"`
	CacheDatasets bool   `json:"cache_datasets"`
}

// Merge overlays non-zero fields of override onto c.
func (c Config) Merge(override Config) Config {
	merged := c
	if override.Backend != "" {
		merged.Backend = override.Backend
	}
	if override.Dir != "" {
		merged.Dir = override.Dir
	}
	if override.Driver != "" {
		merged.Driver = override.Driver
	}
	if override.DSN != "" {
		merged.DSN = override.DSN
	}
	if override.CacheDatasets {
		merged.CacheDatasets = true
	}
	return merged
}

func (c *Config) applyDefaults() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Dir == "" {
		c.Dir = defaultDir
	}
	if c.Driver == "" {
		c.Driver = defaultDriver
	}
}
