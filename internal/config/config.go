package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/veldt/labelsmith/internal/store"
	"gopkg.in/yaml.v3"
)

// Config represents the labelsmith configuration
type Config struct {
	HistoryLimit       int    `yaml:"history_limit"`
	DBLocation         string `yaml:"db_location,omitempty"`
	DefaultFontFamily  string `yaml:"default_font_family"`
	DefaultFontSize    int    `yaml:"default_font_size"`
	DefaultLineSpacing int    `yaml:"default_line_spacing"`
	DefaultLabelSize   string `yaml:"default_label_size"`
	DefaultOrientation string `yaml:"default_orientation"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		HistoryLimit:       40,
		DefaultFontFamily:  "DejaVu Serif",
		DefaultFontSize:    70,
		DefaultLineSpacing: store.SpacingSingle,
		DefaultLabelSize:   "62",
		DefaultOrientation: "standard",
	}
}

// DefaultStyle returns the line style the editor starts from.
func (c *Config) DefaultStyle() store.LineStyle {
	return store.LineStyle{
		Font:        c.DefaultFontFamily,
		Size:        c.DefaultFontSize,
		Align:       store.AlignCenter,
		LineSpacing: c.DefaultLineSpacing,
		Color:       store.ColorBlack,
	}
}

// ConfigManager manages configuration persistence
type ConfigManager struct {
	configPath string
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() (*ConfigManager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "labelsmith")
	configPath := filepath.Join(configDir, "config.yaml")

	return &ConfigManager{
		configPath: configPath,
	}, nil
}

// NewConfigManagerWithPath creates a config manager with custom config path
func NewConfigManagerWithPath(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// Load reads the configuration from file, or returns default if file doesn't exist
func (cm *ConfigManager) Load() (*Config, error) {
	if _, err := os.Stat(cm.configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cm.validateAndSetDefaults(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Save writes the configuration to file
func (cm *ConfigManager) Save(config *Config) error {
	if err := cm.validateAndSetDefaults(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateAndSetDefaults validates configuration and sets defaults for missing fields
func (cm *ConfigManager) validateAndSetDefaults(config *Config) error {
	defaults := DefaultConfig()

	if config.HistoryLimit == 0 {
		config.HistoryLimit = defaults.HistoryLimit
	}
	if config.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be greater than 0")
	}
	if config.HistoryLimit > 1000 {
		return fmt.Errorf("history_limit cannot exceed 1000 entries")
	}

	if config.DefaultFontFamily == "" {
		config.DefaultFontFamily = defaults.DefaultFontFamily
	}
	if config.DefaultFontSize <= 0 {
		config.DefaultFontSize = defaults.DefaultFontSize
	}
	switch config.DefaultLineSpacing {
	case 0:
		config.DefaultLineSpacing = defaults.DefaultLineSpacing
	case store.SpacingSingle, store.SpacingOneHalf, store.SpacingDouble:
	default:
		return fmt.Errorf("default_line_spacing must be one of 100, 150, 200")
	}
	if config.DefaultLabelSize == "" {
		config.DefaultLabelSize = defaults.DefaultLabelSize
	}
	if config.DefaultOrientation == "" {
		config.DefaultOrientation = defaults.DefaultOrientation
	}

	return nil
}

// GetConfigPath returns the path to the config file
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// Update modifies a specific configuration value
func (cm *ConfigManager) Update(key, value string) error {
	config, err := cm.Load()
	if err != nil {
		return err
	}

	switch key {
	case "history-limit":
		var historyLimit int
		if _, err := fmt.Sscanf(value, "%d", &historyLimit); err != nil {
			return fmt.Errorf("invalid integer value for history-limit: %s", value)
		}
		config.HistoryLimit = historyLimit
	case "db-location":
		config.DBLocation = value
	case "default-font-family":
		config.DefaultFontFamily = value
	case "default-font-size":
		var size int
		if _, err := fmt.Sscanf(value, "%d", &size); err != nil {
			return fmt.Errorf("invalid integer value for default-font-size: %s", value)
		}
		config.DefaultFontSize = size
	case "default-line-spacing":
		var spacing int
		if _, err := fmt.Sscanf(value, "%d", &spacing); err != nil {
			return fmt.Errorf("invalid integer value for default-line-spacing: %s", value)
		}
		config.DefaultLineSpacing = spacing
	case "default-label-size":
		config.DefaultLabelSize = value
	case "default-orientation":
		if value != "standard" && value != "rotated" {
			return fmt.Errorf("invalid value for default-orientation: %s (must be 'standard' or 'rotated')", value)
		}
		config.DefaultOrientation = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	return cm.Save(config)
}

// Get returns the value for a specific configuration key
func (cm *ConfigManager) Get(key string) (string, error) {
	config, err := cm.Load()
	if err != nil {
		return "", err
	}

	switch key {
	case "history-limit":
		return fmt.Sprintf("%d", config.HistoryLimit), nil
	case "db-location":
		if config.DBLocation == "" {
			return "[default]", nil
		}
		return config.DBLocation, nil
	case "default-font-family":
		return config.DefaultFontFamily, nil
	case "default-font-size":
		return fmt.Sprintf("%d", config.DefaultFontSize), nil
	case "default-line-spacing":
		return fmt.Sprintf("%d", config.DefaultLineSpacing), nil
	case "default-label-size":
		return config.DefaultLabelSize, nil
	case "default-orientation":
		return config.DefaultOrientation, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// List returns all configuration keys and values
func (cm *ConfigManager) List() (map[string]string, error) {
	config, err := cm.Load()
	if err != nil {
		return nil, err
	}

	result := map[string]string{
		"history-limit":        fmt.Sprintf("%d", config.HistoryLimit),
		"db-location":          config.DBLocation,
		"default-font-family":  config.DefaultFontFamily,
		"default-font-size":    fmt.Sprintf("%d", config.DefaultFontSize),
		"default-line-spacing": fmt.Sprintf("%d", config.DefaultLineSpacing),
		"default-label-size":   config.DefaultLabelSize,
		"default-orientation":  config.DefaultOrientation,
	}

	if result["db-location"] == "" {
		result["db-location"] = "[default]"
	}

	return result, nil
}
