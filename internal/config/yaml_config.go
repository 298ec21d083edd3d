package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"sellerdesk/internal/listing"
)

// YAMLConfig represents the structure of the sellerdesk.yaml file.
// Lists and templates that are easier to manage in YAML than env vars.
type YAMLConfig struct {
	Templates   []listing.Template `yaml:"templates"`
	BannedWords []string           `yaml:"banned_words"`
	Keywords    KeywordsConfig     `yaml:"keywords"`
}

// KeywordsConfig tunes the keyword research pipeline.
type KeywordsConfig struct {
	ClusterThreshold float64 `yaml:"cluster_threshold"` // exclusive trigram similarity, default 0.5
	ExpansionCount   int     `yaml:"expansion_count"`   // phrases requested from the LLM, max 30
}

// DefaultBannedWords are rejected in every listing unless the YAML config
// replaces them. Terms match as substrings, so each must be safe inside
// ordinary words; medical claims are covered by the policy checks.
var DefaultBannedWords = []string{
	"best seller",
	"guaranteed",
	"free shipping",
	"eco-friendly",
	"non-toxic",
	"anti-bacterial",
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "sellerdesk.yaml".
// Returns defaults without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	return LoadYAMLConfigFile(getEnv("CONFIG_FILE", "sellerdesk.yaml"))
}

// LoadYAMLConfigFile loads the YAML configuration from path.
func LoadYAMLConfigFile(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return defaults(&YAMLConfig{}), nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return defaults(&cfg), nil
}

func defaults(cfg *YAMLConfig) *YAMLConfig {
	if cfg.BannedWords == nil {
		cfg.BannedWords = append([]string(nil), DefaultBannedWords...)
	}
	if cfg.Keywords.ClusterThreshold <= 0 || cfg.Keywords.ClusterThreshold >= 1 {
		cfg.Keywords.ClusterThreshold = 0.5
	}
	if cfg.Keywords.ExpansionCount <= 0 || cfg.Keywords.ExpansionCount > 30 {
		cfg.Keywords.ExpansionCount = 30
	}
	return cfg
}
