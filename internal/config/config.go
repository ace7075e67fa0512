// Package config loads and validates the optional .secmcp.yaml file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up from the working directory upward.
const FileName = ".secmcp.yaml"

// Environment variables consulted by Load and Resolve.
const (
	EnvConfig   = "SECMCP_CONFIG"
	EnvLogLevel = "SECMCP_LOG_LEVEL"
	EnvPort     = "PORT"
)

// Default values for runner, server and web configuration.
const (
	DefaultTimeout        = 5 * time.Minute
	DefaultMaxTimeout     = 30 * time.Minute
	DefaultMaxOutput      = 1 << 20 // 1 MB
	DefaultMaxConcurrent  = 4
	DefaultWebTimeout     = 30 * time.Second
	DefaultHTTPPath       = "/mcp"
	DefaultPort           = "8000"
	DefaultUserAgent      = "Mozilla/5.0 (Security Header Check)"
	DefaultCrtshURL       = "https://crt.sh/"
	DefaultNucleiStatsURL = "https://raw.githubusercontent.com/projectdiscovery/nuclei-templates/main/TEMPLATES-STATS.json"
)

// Config holds the parsed configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version          int                   `yaml:"version"`
	RawTimeout       string                `yaml:"timeout"`     // e.g. "5m", "30s"
	RawMaxTimeout    string                `yaml:"max_timeout"` // upper bound for per-call timeouts
	RawMaxOutput     int                   `yaml:"max_output"`  // bytes per stream
	RawMaxConcurrent int                   `yaml:"max_concurrent"`
	Log              LogConfig             `yaml:"log"`
	HTTP             HTTPConfig            `yaml:"http"`
	Web              WebConfig             `yaml:"web"`
	Tools            map[string]ToolConfig `yaml:"tools"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error, disabled
	Format string `yaml:"format"` // console (default) or json
}

// HTTPConfig controls the streamable HTTP transport.
type HTTPConfig struct {
	Addr        string   `yaml:"addr"` // e.g. ":8000"
	Path        string   `yaml:"path"` // default /mcp
	CorsOrigins []string `yaml:"cors_origins"`
}

// WebConfig controls the outbound HTTP lookups.
type WebConfig struct {
	RawTimeout     string `yaml:"timeout"`
	UserAgent      string `yaml:"user_agent"`
	CrtshURL       string `yaml:"crtsh_url"`
	NucleiStatsURL string `yaml:"nuclei_stats_url"`
}

// ToolConfig overrides the built-in definition of one tool.
type ToolConfig struct {
	Binary      string            `yaml:"binary"`        // absolute path or PATH name
	RawTimeout  string            `yaml:"timeout"`       // replaces the tool's default timeout
	Disabled    bool              `yaml:"disabled"`      // hide the tool entirely
	Defaults    map[string]string `yaml:"defaults"`      // parameter defaults, e.g. wordlist
	OKExitCodes []int             `yaml:"ok_exit_codes"` // extra non-zero codes reported as success
}

// Timeout returns the configured timeout, or zero to keep the built-in default.
func (t ToolConfig) Timeout() time.Duration {
	return parseDuration(t.RawTimeout, 0)
}

// Timeout returns the configured default timeout or the default.
func (c *Config) Timeout() time.Duration {
	return parseDuration(c.RawTimeout, DefaultTimeout)
}

// MaxTimeout returns the upper bound for caller-supplied timeouts.
func (c *Config) MaxTimeout() time.Duration {
	return parseDuration(c.RawMaxTimeout, DefaultMaxTimeout)
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// MaxConcurrent returns how many tool processes may run at once.
func (c *Config) MaxConcurrent() int {
	if c.RawMaxConcurrent > 0 {
		return c.RawMaxConcurrent
	}
	return DefaultMaxConcurrent
}

// Tool returns the override block for a tool, if any.
func (c *Config) Tool(name string) ToolConfig {
	return c.Tools[name]
}

// HTTPAddr returns the listen address, falling back to $PORT and then :8000.
func (c *Config) HTTPAddr() string {
	if c.HTTP.Addr != "" {
		return c.HTTP.Addr
	}
	if port := os.Getenv(EnvPort); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			return ":" + port
		}
	}
	return ":" + DefaultPort
}

// HTTPPath returns the route serving MCP over HTTP.
func (c *Config) HTTPPath() string {
	if c.HTTP.Path != "" {
		return c.HTTP.Path
	}
	return DefaultHTTPPath
}

// WebTimeout returns the per-request timeout for outbound lookups.
func (c *Config) WebTimeout() time.Duration {
	return parseDuration(c.Web.RawTimeout, DefaultWebTimeout)
}

// UserAgent returns the User-Agent sent by outbound lookups.
func (c *Config) UserAgent() string {
	if c.Web.UserAgent != "" {
		return c.Web.UserAgent
	}
	return DefaultUserAgent
}

// CrtshURL returns the certificate transparency search endpoint.
func (c *Config) CrtshURL() string {
	if c.Web.CrtshURL != "" {
		return c.Web.CrtshURL
	}
	return DefaultCrtshURL
}

// NucleiStatsURL returns the location of the nuclei template statistics file.
func (c *Config) NucleiStatsURL() string {
	if c.Web.NucleiStatsURL != "" {
		return c.Web.NucleiStatsURL
	}
	return DefaultNucleiStatsURL
}

// LogLevel returns the log level, preferring $SECMCP_LOG_LEVEL.
func (c *Config) LogLevel() string {
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		return lvl
	}
	if c.Log.Level != "" {
		return c.Log.Level
	}
	return "info"
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw != "" {
		d, err := time.ParseDuration(raw)
		if err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// Validate reports malformed values that would otherwise be silently ignored.
func (c *Config) Validate() error {
	durations := map[string]string{
		"timeout":     c.RawTimeout,
		"max_timeout": c.RawMaxTimeout,
		"web.timeout": c.Web.RawTimeout,
	}
	for name, tc := range c.Tools {
		durations["tools."+name+".timeout"] = tc.RawTimeout
	}
	for field, raw := range durations {
		if raw == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err != nil || d <= 0 {
			return fmt.Errorf("%s: invalid duration %q", field, raw)
		}
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	return nil
}

// LoadResult holds the parsed config and the file it came from.
type LoadResult struct {
	Config *Config
	Path   string // empty when no file was found
}

// Resolve loads the explicit path when set, then $SECMCP_CONFIG, and
// otherwise searches upward from dir.
func Resolve(path, dir string) (*LoadResult, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		cfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Path: path}, nil
	}
	return Load(dir)
}

// Load reads the .secmcp.yaml file found by walking upward from dir.
// If no file exists, a default Config is returned.
func Load(dir string) (*LoadResult, error) {
	path, err := findConfig(dir)
	if err != nil {
		return &LoadResult{Config: &Config{}}, nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Path: path}, nil
}

// LoadFile parses and validates one configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return cfg, nil
}

// findConfig walks upward from dir looking for FileName.
func findConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found", FileName)
		}
		dir = parent
	}
}
