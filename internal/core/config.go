// Package core contains the release-notes assembly pipeline: hierarchy
// reconstruction, per-item and release-level summarization with
// retry/fallback handling, text sanitation, and document assembly.
package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/relnotes/pkg/models"
)

// ConfigurationManager loads and validates the run configuration from
// the .relnotes.yaml file and the environment.
type ConfigurationManager interface {
	Load() (*models.RunConfig, error)
	Validate(cfg *models.RunConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	// basePath is the directory where .relnotes.yaml resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultRunConfig returns a RunConfig populated with sensible defaults.
func defaultRunConfig() *models.RunConfig {
	return &models.RunConfig{
		Model: models.ModelConfig{
			Name:        "gpt-4o",
			BaseURL:     "https://api.openai.com/v1",
			TokenBudget: 128000,
			MaxRetries:  3,
			Concurrency: 4,
		},
		Output: models.OutputConfig{
			Folder: "release-notes",
			HTML:   true,
		},
		Cache: models.CacheConfig{
			Addr:    "localhost:6379",
			TTLDays: 30,
		},
		ParentTypes:  []models.WorkItemType{models.TypeEpic, models.TypeFeature},
		DesiredTypes: []models.WorkItemType{models.TypeBug, models.TypeUserStory, models.TypeTask},
	}
}

// Load reads .relnotes.yaml from the base path using Viper, overlays
// defaults for missing keys, and resolves credentials from the
// environment (AZURE_DEVOPS_PAT, OPENAI_API_KEY). The returned value is
// treated as immutable for the rest of the run.
func (cm *viperConfigManager) Load() (*models.RunConfig, error) {
	cfg := defaultRunConfig()

	v := viper.New()
	v.SetConfigName(".relnotes")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("model.name", cfg.Model.Name)
	v.SetDefault("model.base_url", cfg.Model.BaseURL)
	v.SetDefault("model.token_budget", cfg.Model.TokenBudget)
	v.SetDefault("model.max_retries", cfg.Model.MaxRetries)
	v.SetDefault("model.concurrency", cfg.Model.Concurrency)
	v.SetDefault("output.folder", cfg.Output.Folder)
	v.SetDefault("output.html", cfg.Output.HTML)
	v.SetDefault("cache.addr", cfg.Cache.Addr)
	v.SetDefault("cache.ttl_days", cfg.Cache.TTLDays)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading .relnotes.yaml: %w", err)
		}
		// No config file found -- defaults plus environment only.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding .relnotes.yaml: %w", err)
	}

	// Missing lists fall back to defaults rather than empty sets.
	if len(cfg.ParentTypes) == 0 {
		cfg.ParentTypes = defaultRunConfig().ParentTypes
	}
	if len(cfg.DesiredTypes) == 0 {
		cfg.DesiredTypes = defaultRunConfig().DesiredTypes
	}

	// Credentials come from the environment, never from the file.
	cfg.Tracker.PAT = os.Getenv("AZURE_DEVOPS_PAT")
	cfg.Model.APIKey = os.Getenv("OPENAI_API_KEY")

	return cfg, nil
}

// Validate checks the run configuration for invalid values and returns
// a clear error identifying every problem found.
func (cm *viperConfigManager) Validate(cfg *models.RunConfig) error {
	if cfg == nil {
		return fmt.Errorf("run configuration is nil")
	}

	var errs []string

	if cfg.Solution.Name == "" {
		errs = append(errs, "solution.name must not be empty")
	}
	if cfg.Tracker.Organization == "" {
		errs = append(errs, "tracker.organization must not be empty")
	}
	if cfg.Tracker.Project == "" {
		errs = append(errs, "tracker.project must not be empty")
	}
	if cfg.Tracker.Query == "" && len(cfg.Tracker.Queries) == 0 {
		errs = append(errs, "tracker.query or tracker.queries must be set")
	}
	if cfg.Model.MaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("model.max_retries must be non-negative, got %d", cfg.Model.MaxRetries))
	}
	if cfg.Model.Concurrency < 1 {
		errs = append(errs, fmt.Sprintf("model.concurrency must be at least 1, got %d", cfg.Model.Concurrency))
	}
	if cfg.Model.TokenBudget < 1 {
		errs = append(errs, fmt.Sprintf("model.token_budget must be positive, got %d", cfg.Model.TokenBudget))
	}
	if len(cfg.DesiredTypes) == 0 {
		errs = append(errs, "desired_types must list at least one work item type")
	}
	if cfg.Cache.Enabled && cfg.Cache.Addr == "" {
		errs = append(errs, "cache.addr must be set when cache.enabled is true")
	}
	if cfg.Notify.Enabled && cfg.Notify.SlackWebhook == "" {
		errs = append(errs, "notifications.slack_webhook must be set when notifications.enabled is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ResolveQueryID maps a saved-query name (or raw id) to the query id to
// run. An empty name selects the default tracker.query.
func ResolveQueryID(cfg *models.RunConfig, name string) (string, error) {
	if name == "" {
		if cfg.Tracker.Query != "" {
			return cfg.Tracker.Query, nil
		}
		if len(cfg.Tracker.Queries) > 0 {
			return cfg.Tracker.Queries[0].ID, nil
		}
		return "", fmt.Errorf("no query configured")
	}
	for _, q := range cfg.Tracker.Queries {
		if q.Name == name || q.ID == name {
			return q.ID, nil
		}
	}
	// Not a configured name -- assume the caller passed a raw query id.
	return name, nil
}
