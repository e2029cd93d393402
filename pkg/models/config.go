package models

// SavedQuery names a saved work-item query in the tracker.
type SavedQuery struct {
	Name string `yaml:"name" mapstructure:"name"`
	ID   string `yaml:"id" mapstructure:"id"`
}

// SolutionConfig describes the software the release notes are for.
// Summary is fed to the summarizer so generated prose has product
// context.
type SolutionConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Summary string `yaml:"summary" mapstructure:"summary"`
}

// TrackerConfig holds the connection settings for the work-item
// tracker. PAT is resolved from the environment at load time and is
// never read ad hoc inside core logic.
type TrackerConfig struct {
	Organization string       `yaml:"organization" mapstructure:"organization"`
	Project      string       `yaml:"project" mapstructure:"project"`
	Query        string       `yaml:"query" mapstructure:"query"`
	Queries      []SavedQuery `yaml:"queries,omitempty" mapstructure:"queries"`
	PAT          string       `yaml:"-" mapstructure:"-"`
}

// ModelConfig holds the summarizer model settings.
type ModelConfig struct {
	Name           string `yaml:"name" mapstructure:"name"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	TokenBudget    int    `yaml:"token_budget" mapstructure:"token_budget"`
	MaxRetries     int    `yaml:"max_retries" mapstructure:"max_retries"`
	Concurrency    int    `yaml:"concurrency" mapstructure:"concurrency"`
	FeatureRollups bool   `yaml:"feature_rollups" mapstructure:"feature_rollups"`
	APIKey         string `yaml:"-" mapstructure:"-"`
}

// OutputConfig holds the output sink settings.
type OutputConfig struct {
	Folder string `yaml:"folder" mapstructure:"folder"`
	HTML   bool   `yaml:"html" mapstructure:"html"`
}

// CacheConfig holds the optional Redis summary-cache settings.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
	DB      int    `yaml:"db" mapstructure:"db"`
	TTLDays int    `yaml:"ttl_days" mapstructure:"ttl_days"`
}

// NotificationConfig holds settings for announcing completed runs.
type NotificationConfig struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	SlackWebhook string `yaml:"slack_webhook" mapstructure:"slack_webhook"`
}

// RunConfig is the immutable configuration value for one generation
// run, loaded from .relnotes.yaml plus the environment and passed into
// the core at the start of the run.
type RunConfig struct {
	Solution SolutionConfig     `yaml:"solution" mapstructure:"solution"`
	Tracker  TrackerConfig      `yaml:"tracker" mapstructure:"tracker"`
	Model    ModelConfig        `yaml:"model" mapstructure:"model"`
	Output   OutputConfig       `yaml:"output" mapstructure:"output"`
	Cache    CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Notify   NotificationConfig `yaml:"notifications" mapstructure:"notifications"`

	// ParentTypes are the work item types that act as grouping branches
	// in the hierarchy (typically Epic and Feature).
	ParentTypes []WorkItemType `yaml:"parent_types" mapstructure:"parent_types"`

	// DesiredTypes is the allow-list of leaf types to render, in display
	// priority order (earlier types are rendered first within a section).
	DesiredTypes []WorkItemType `yaml:"desired_types" mapstructure:"desired_types"`
}

// IsParentType reports whether t is one of the configured grouping types.
func (c *RunConfig) IsParentType(t WorkItemType) bool {
	for _, pt := range c.ParentTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// IsDesiredType reports whether t is on the rendering allow-list.
func (c *RunConfig) IsDesiredType(t WorkItemType) bool {
	for _, dt := range c.DesiredTypes {
		if dt == t {
			return true
		}
	}
	return false
}
