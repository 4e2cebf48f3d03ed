package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Config represents the cardbridge configuration
type Config struct {
	Trello      TrelloConfig
	Jira        JiraConfig
	Members     map[string]string // Trello member ID -> Jira short code
	Labels      LabelConfig
	Sections    map[string]string // CSV column -> heading to extract
	Attachments AttachmentConfig
	Workers     int
	LogFile     string
	StateFile   string
}

// TrelloConfig holds source API settings
type TrelloConfig struct {
	APIKey  string        `yaml:"api_key"`
	Token   string        `yaml:"token"`
	BoardID string        `yaml:"board_id"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"-"` // Custom YAML handling below
}

// JiraConfig holds import-side mapping rules
type JiraConfig struct {
	KeyPrefix     string                       `yaml:"key_prefix"`
	VersionPrefix string                       `yaml:"version_prefix"`
	ExtraLabels   []string                     `yaml:"extra_labels"`
	Statuses      map[string]map[string]string `yaml:"statuses"` // issue type (or "default") -> column -> status
}

// LabelConfig renames or drops Trello labels on the way to Jira
type LabelConfig struct {
	Rename map[string]string `yaml:"rename"`
	Drop   []string          `yaml:"drop"`
}

// AttachmentConfig controls the local attachment cache and its server
type AttachmentConfig struct {
	Dir        string   `yaml:"dir"`
	BaseURL    string   `yaml:"base_url"`
	Listen     string   `yaml:"listen"`
	Exclude    []string `yaml:"exclude"`
	ImageWidth int      `yaml:"image_width"`
}

// rawConfig mirrors Config on disk, with durations as strings
type rawConfig struct {
	Trello struct {
		APIKey  string `yaml:"api_key"`
		Token   string `yaml:"token"`
		BoardID string `yaml:"board_id"`
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"trello"`
	Jira        JiraConfig        `yaml:"jira"`
	Members     map[string]string `yaml:"members,omitempty"`
	Labels      LabelConfig       `yaml:"labels"`
	Sections    map[string]string `yaml:"sections,omitempty"`
	Attachments AttachmentConfig  `yaml:"attachments"`
	Workers     int               `yaml:"workers"`
	LogFile     string            `yaml:"log_file"`
	StateFile   string            `yaml:"state_file"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Trello: TrelloConfig{
			BaseURL: "https://api.trello.com/1",
			Timeout: 30 * time.Second,
		},
		Jira: JiraConfig{
			KeyPrefix:     "TRELLO",
			VersionPrefix: "v1.",
			ExtraLabels:   []string{"Migrated-from-Trello"},
			Statuses:      map[string]map[string]string{},
		},
		Members: map[string]string{},
		Labels: LabelConfig{
			Rename: map[string]string{},
			Drop:   []string{},
		},
		Sections: map[string]string{"Workaround": "workaround"},
		Attachments: AttachmentConfig{
			Dir:        filepath.Join(xdg.CacheHome, "cardbridge", "attachments"),
			BaseURL:    "http://localhost:3000",
			Listen:     ":3000",
			Exclude:    []string{},
			ImageWidth: 600,
		},
		Workers:   8,
		LogFile:   filepath.Join(os.TempDir(), "cardbridge.log"),
		StateFile: StateFilePath(),
	}
}

// ConfigPath returns the path to the config file
// Uses ~/.config on all platforms for consistency
// Can be overridden for testing
var ConfigPath = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to XDG if home dir unavailable
		return filepath.Join(xdg.ConfigHome, "cardbridge", "config.yaml")
	}
	return filepath.Join(home, ".config", "cardbridge", "config.yaml")
}

// StateFilePath returns the default path to the migration manifest
// Can be overridden for testing
var StateFilePath = func() string {
	return filepath.Join(xdg.DataHome, "cardbridge", "state.json")
}

// Load reads configuration from the config file, then applies environment
// overrides. A missing file yields the defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	switch {
	case err == nil:
		if err := cfg.decode(data); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
		// Defaults only
	default:
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.ExpandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	return cfg, nil
}

// decode overlays YAML data onto c. Keys missing from the file keep their
// current values.
func (c *Config) decode(data []byte) error {
	raw := c.toRaw()
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	timeout, err := time.ParseDuration(raw.Trello.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout format '%s': %w", raw.Trello.Timeout, err)
	}

	c.Trello = TrelloConfig{
		APIKey:  raw.Trello.APIKey,
		Token:   raw.Trello.Token,
		BoardID: raw.Trello.BoardID,
		BaseURL: raw.Trello.BaseURL,
		Timeout: timeout,
	}
	c.Jira = raw.Jira
	c.Members = nonNilMap(raw.Members)
	c.Labels = raw.Labels
	c.Labels.Rename = nonNilMap(c.Labels.Rename)
	if c.Labels.Drop == nil {
		c.Labels.Drop = []string{}
	}
	c.Sections = nonNilMap(raw.Sections)
	c.Attachments = raw.Attachments
	if c.Attachments.Exclude == nil {
		c.Attachments.Exclude = []string{}
	}
	if c.Jira.Statuses == nil {
		c.Jira.Statuses = map[string]map[string]string{}
	}
	c.Workers = raw.Workers
	c.LogFile = raw.LogFile
	c.StateFile = raw.StateFile
	return nil
}

func (c *Config) toRaw() rawConfig {
	var raw rawConfig
	raw.Trello.APIKey = c.Trello.APIKey
	raw.Trello.Token = c.Trello.Token
	raw.Trello.BoardID = c.Trello.BoardID
	raw.Trello.BaseURL = c.Trello.BaseURL
	raw.Trello.Timeout = c.Trello.Timeout.String()
	raw.Jira = c.Jira
	raw.Members = c.Members
	raw.Labels = c.Labels
	raw.Sections = c.Sections
	raw.Attachments = c.Attachments
	raw.Workers = c.Workers
	raw.LogFile = c.LogFile
	raw.StateFile = c.StateFile
	return raw
}

// applyEnv lets the environment override credentials and the attachment
// location, so secrets need not live in the config file.
func (c *Config) applyEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"TRELLO_API_KEY", &c.Trello.APIKey},
		{"TRELLO_TOKEN", &c.Trello.Token},
		{"TRELLO_BOARD_ID", &c.Trello.BoardID},
		{"ATTACHMENT_DIRECTORY", &c.Attachments.Dir},
		{"ATTACHMENT_BASE_URL", &c.Attachments.BaseURL},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// Save writes configuration to the config file
func (c *Config) Save() error {
	configPath := ConfigPath()
	configDir := filepath.Dir(configPath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c.toRaw())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Trello.BaseURL == "" {
		return fmt.Errorf("trello.base_url cannot be empty")
	}
	if c.Trello.Timeout <= 0 {
		return fmt.Errorf("trello.timeout must be positive")
	}
	if c.Jira.KeyPrefix == "" {
		return fmt.Errorf("jira.key_prefix cannot be empty")
	}
	if c.Attachments.Dir == "" {
		return fmt.Errorf("attachments.dir cannot be empty")
	}
	if c.Attachments.ImageWidth <= 0 {
		return fmt.Errorf("attachments.image_width must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.StateFile == "" {
		return fmt.Errorf("state_file cannot be empty")
	}

	for _, pattern := range c.Attachments.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid attachments.exclude pattern '%s'", pattern)
		}
	}

	return nil
}

// RequireTrello reports missing API credentials. Only commands that talk to
// Trello need them.
func (c *Config) RequireTrello() error {
	if c.Trello.APIKey == "" || c.Trello.Token == "" {
		return fmt.Errorf("trello api_key and token are required (set TRELLO_API_KEY and TRELLO_TOKEN)")
	}
	if c.Trello.BoardID == "" {
		return fmt.Errorf("trello board_id is required (set TRELLO_BOARD_ID)")
	}
	return nil
}

// ExpandPaths expands any ~ or relative paths to absolute paths
func (c *Config) ExpandPaths() error {
	var err error

	c.Attachments.Dir, err = expandPath(c.Attachments.Dir)
	if err != nil {
		return fmt.Errorf("failed to expand attachments.dir: %w", err)
	}

	c.LogFile, err = expandPath(c.LogFile)
	if err != nil {
		return fmt.Errorf("failed to expand log_file: %w", err)
	}

	c.StateFile, err = expandPath(c.StateFile)
	if err != nil {
		return fmt.Errorf("failed to expand state_file: %w", err)
	}

	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}

	// Expand ~ to home directory
	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if len(path) == 1 {
			return homeDir, nil
		}
		path = filepath.Join(homeDir, path[1:])
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return absPath, nil
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
