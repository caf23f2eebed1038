package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"icsgen/internal/ics"
)

// OutputConfig controls where `icsgen build` and `icsgen watch` write the
// rendered calendar.
type OutputConfig struct {
	// Dir is the directory the calendar file is written into.
	Dir string `yaml:"dir" json:"dir"`
	// Filename is the base name without extension (default "calendar").
	Filename string `yaml:"filename" json:"filename"`
	// Extension includes the leading dot (default ".ics").
	Extension string `yaml:"extension" json:"extension"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the HTTP API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for `icsgen serve`.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// UIDDomain scopes generated event UIDs ("<n>@<uid_domain>").
	UIDDomain string `yaml:"uid_domain" json:"uid_domain"`
	// ProductID is written as the calendar PRODID.
	ProductID string `yaml:"product_id" json:"product_id"`

	// LineEnding selects the output line separator. Supported values:
	//   - "auto" (default): CRLF on Windows, LF elsewhere
	//   - "crlf"
	//   - "lf"
	LineEnding string `yaml:"line_ending" json:"line_ending"`

	// Timezone is the IANA zone whose wall-clock time is written for
	// start/end values (e.g. "Asia/Seoul"). Empty means the host zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// EscapeText enables RFC 5545 escaping of free-text fields.
	EscapeText bool `yaml:"escape_text" json:"escape_text"`

	// NaturalDates accepts phrases like "tomorrow 9am" for start/end.
	NaturalDates bool `yaml:"natural_dates" json:"natural_dates"`

	// EventsFile is a YAML file listing the events to render.
	EventsFile string `yaml:"events_file" json:"events_file"`

	Output OutputConfig `yaml:"output" json:"output"`

	// RefreshCron is a cron schedule (e.g. "*/15 * * * *") on which
	// `icsgen watch` rebuilds the output.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Watch additionally rebuilds whenever EventsFile changes on disk.
	Watch bool `yaml:"watch" json:"watch"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:     "127.0.0.1:8080",
		LogLevel:   "info",
		UIDDomain:  ics.DefaultUIDDomain,
		ProductID:  ics.DefaultProductID,
		LineEnding: "auto",
		EventsFile: "events.yaml",
		Output: OutputConfig{
			Dir:       ".",
			Filename:  ics.DefaultFilename,
			Extension: ics.DefaultExtension,
		},
		RefreshCron: "*/15 * * * *",
		Watch:       true,
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.UIDDomain == "" {
		c.UIDDomain = ics.DefaultUIDDomain
	}
	if c.ProductID == "" {
		c.ProductID = ics.DefaultProductID
	}
	switch strings.ToLower(c.LineEnding) {
	case "crlf", "lf", "auto":
		c.LineEnding = strings.ToLower(c.LineEnding)
	default:
		// Unknown or empty; let the platform decide.
		c.LineEnding = "auto"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "."
	}
	if c.Output.Filename == "" {
		c.Output.Filename = ics.DefaultFilename
	}
	if c.Output.Extension == "" {
		c.Output.Extension = ics.DefaultExtension
	} else if !strings.HasPrefix(c.Output.Extension, ".") {
		c.Output.Extension = "." + c.Output.Extension
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
}

// ResolveLineEnding returns the configured line ending; "auto" picks the
// host platform's convention.
func (c *Config) ResolveLineEnding() ics.LineEnding {
	if le, err := ics.ParseLineEnding(c.LineEnding); err == nil {
		return le
	}
	return ics.PlatformLineEnding(runtime.GOOS)
}

// Location loads the configured timezone, or time.Local when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DocumentOptions translates the config into ics.Options.
func (c *Config) DocumentOptions() (ics.Options, error) {
	loc, err := c.Location()
	if err != nil {
		return ics.Options{}, err
	}
	return ics.Options{
		UIDDomain:    c.UIDDomain,
		ProductID:    c.ProductID,
		LineEnding:   c.ResolveLineEnding(),
		Location:     loc,
		EscapeText:   c.EscapeText,
		NaturalDates: c.NaturalDates,
	}, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".icsgen-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
