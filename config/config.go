package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultScrollbackLines is used when ScrollbackLines is not configured.
const DefaultScrollbackLines = 3500

// ErrEmptyProgram is returned by BuildProg when no command can be derived.
var ErrEmptyProgram = errors.New("config: empty program")

// HyperlinkRule turns text matching Regex into a link. Format may refer to
// capture groups as $0, $1, ... in the manner of regexp.Expand.
type HyperlinkRule struct {
	Regex  string `toml:"regex" yaml:"regex"`
	Format string `toml:"format" yaml:"format"`
}

// Config holds the front end settings.
type Config struct {
	// FontSize is the font size in points. Default: 12
	FontSize float64 `toml:"font_size" yaml:"font_size"`

	// DPI converts points to pixels. Default: 96
	DPI float64 `toml:"dpi" yaml:"dpi"`

	// Font is the base text style.
	Font TextStyle `toml:"font" yaml:"font"`

	// Program is the argv spawned in new tabs. Default: $SHELL or /bin/sh.
	Program []string `toml:"program" yaml:"program"`

	WorkDir string   `toml:"work_dir" yaml:"work_dir"`
	Env     []string `toml:"env" yaml:"env"`

	// ScrollbackLines limits terminal history; nil means DefaultScrollbackLines.
	ScrollbackLines *int `toml:"scrollback_lines" yaml:"scrollback_lines"`

	HyperlinkRules []HyperlinkRule `toml:"hyperlink_rules" yaml:"hyperlink_rules"`

	// AtlasSize is the initial glyph atlas side length. Default: 128
	AtlasSize int `toml:"atlas_size" yaml:"atlas_size"`

	// MaxAtlasSize caps atlas growth. Default: 8192
	MaxAtlasSize int `toml:"max_atlas_size" yaml:"max_atlas_size"`

	// PaintRetryLimit bounds atlas rebuilds within a single paint. Default: 4
	PaintRetryLimit int `toml:"paint_retry_limit" yaml:"paint_retry_limit"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		FontSize:        12,
		DPI:             96,
		Font:            DefaultTextStyle(),
		HyperlinkRules:  DefaultHyperlinkRules(),
		AtlasSize:       128,
		MaxAtlasSize:    8192,
		PaintRetryLimit: 4,
	}
}

// DefaultHyperlinkRules matches common URL schemes and bare mail addresses.
func DefaultHyperlinkRules() []HyperlinkRule {
	return []HyperlinkRule{
		{Regex: `\b\w+://(?:[\w.-]+)\.[a-z]{2,15}\S*\b`, Format: "$0"},
		{Regex: `\bfile://\S*\b`, Format: "$0"},
		{Regex: `\b\w+@[\w-]+(?:\.[\w-]+)+\b`, Format: "mailto:$0"},
	}
}

// Scrollback returns the effective scrollback limit.
func (c *Config) Scrollback() int {
	if c.ScrollbackLines == nil {
		return DefaultScrollbackLines
	}
	return *c.ScrollbackLines
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: invalid " + e.Field + ": " + e.Reason
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.FontSize <= 0 {
		return &ConfigError{Field: "font_size", Reason: "must be positive"}
	}
	if c.DPI <= 0 {
		return &ConfigError{Field: "dpi", Reason: "must be positive"}
	}
	if len(c.Font.Font) == 0 {
		return &ConfigError{Field: "font", Reason: "must name at least one family"}
	}
	if c.ScrollbackLines != nil && *c.ScrollbackLines < 0 {
		return &ConfigError{Field: "scrollback_lines", Reason: "must be non-negative"}
	}
	if c.AtlasSize < 16 {
		return &ConfigError{Field: "atlas_size", Reason: "must be at least 16"}
	}
	if c.MaxAtlasSize < c.AtlasSize {
		return &ConfigError{Field: "max_atlas_size", Reason: "must be at least atlas_size"}
	}
	if c.PaintRetryLimit < 1 {
		return &ConfigError{Field: "paint_retry_limit", Reason: "must be at least 1"}
	}
	for i, r := range c.HyperlinkRules {
		if _, err := regexp.Compile(r.Regex); err != nil {
			return &ConfigError{
				Field:  fmt.Sprintf("hyperlink_rules[%d]", i),
				Reason: err.Error(),
			}
		}
	}
	return nil
}

// ParseError is returned when a config file cannot be decoded.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return "config: parse " + e.Path + ": " + e.Message
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads the config file at path. A missing file yields DefaultConfig.
// The format is chosen by extension: .yaml/.yml for YAML, anything else TOML.
// Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := Parse(path, data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data into cfg. The path is used only to select the format
// and for error messages.
func Parse(path string, data []byte, cfg *Config) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}

// BuildProg returns the command to spawn in a new tab. A non-empty override
// replaces the configured program.
func (c *Config) BuildProg(override []string) (*exec.Cmd, error) {
	argv := override
	if len(argv) == 0 {
		argv = c.Program
	}
	if len(argv) == 0 {
		shell := os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}
		argv = []string{shell}
	}
	if argv[0] == "" {
		return nil, ErrEmptyProgram
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = c.WorkDir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")
	return cmd, nil
}
