/*
Package config provides settings loading and validation for composenet.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/oarkflow/composenet/internal/augment"
)

// DefaultFile is looked up in the working directory when no settings file
// is given.
const DefaultFile = ".composenet.yaml"

// Config represents the composenet settings
type Config struct {
	// Driver given to networks that get declared
	Driver string `yaml:"driver,omitempty"`

	// Suffix appended to every label
	Suffix string `yaml:"suffix,omitempty"`

	// Sentinel network attached to every service after the label networks
	Sentinel string `yaml:"sentinel,omitempty"`

	// Indent of the emitted YAML
	Indent int `yaml:"indent,omitempty"`

	// Strict validates the augmented descriptor with compose-go
	Strict bool `yaml:"strict,omitempty"`

	// Include other settings files
	Includes []string `yaml:"includes,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Driver:   augment.DefaultDriver,
		Suffix:   augment.DefaultSuffix,
		Sentinel: augment.DefaultSentinel,
		Indent:   augment.DefaultIndent,
	}
}

// Load loads settings from a file. Values in the file win over values from
// its includes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	baseDir := filepath.Dir(path)
	for _, include := range cfg.Includes {
		includePath := include
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(baseDir, include)
		}

		// Support glob patterns
		matches, err := filepath.Glob(includePath)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %s: %w", include, err)
		}

		for _, match := range matches {
			includeCfg, err := Load(match)
			if err != nil {
				return nil, fmt.Errorf("failed to load include %s: %w", match, err)
			}

			if err := mergo.Merge(&cfg, includeCfg, mergo.WithAppendSlice); err != nil {
				return nil, fmt.Errorf("failed to merge include %s: %w", match, err)
			}
		}
	}

	return &cfg, nil
}

// ApplyDefaults fills every unset field from Default.
func (c *Config) ApplyDefaults() error {
	if err := mergo.Merge(c, Default()); err != nil {
		return fmt.Errorf("failed to apply defaults: %w", err)
	}
	return nil
}

// Compose network names: letters, digits, '.', '_' and '-'.
var networkNameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// Validate validates the settings
func (c *Config) Validate() error {
	if c.Driver == "" {
		return fmt.Errorf("driver is required")
	}
	if c.Sentinel == "" {
		return fmt.Errorf("sentinel is required")
	}
	if !networkNameRe.MatchString(c.Sentinel) {
		return fmt.Errorf("invalid sentinel network name: %q", c.Sentinel)
	}
	if c.Indent < 2 || c.Indent > 9 {
		return fmt.Errorf("indent must be between 2 and 9, got %d", c.Indent)
	}
	return nil
}

// DefaultTemplate returns the default settings template
func DefaultTemplate() string {
	return `# composenet settings file
# Flags and COMPOSENET_* environment variables override these values.

# Driver for networks that are not declared yet
driver: overlay

# Appended to every label: "billing" becomes "billing_dependencies_net"
suffix: _dependencies_net

# Attached to every service after the label networks
sentinel: traefik_net

# Indentation of the emitted YAML
indent: 2

# Validate the result with the compose loader before printing it
strict: false

# Other settings files to merge in (globs allowed)
# includes:
#   - ./composenet.d/*.yaml
`
}
