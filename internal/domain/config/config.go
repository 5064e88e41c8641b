// Package config loads wslkit settings and defines user-facing errors.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName names the config and state directories.
const AppName = "wslkit"

// Defaults.
const (
	DefaultProbeTimeout  = 10 * time.Second
	DefaultRetryAttempts = 1
	DefaultRetryBackoff  = 2 * time.Second
	DefaultNodeVersion   = "lts/*"
	DefaultNVMVersion    = "v0.40.1"
)

// Duration is a time.Duration written as "10s" in YAML and TOML.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// Paths are the directories wslkit reads and writes.
type Paths struct {
	ConfigDir string
	StateDir  string
}

// DefaultPaths returns the XDG locations for wslkit.
func DefaultPaths() Paths {
	return Paths{
		ConfigDir: filepath.Join(xdg.ConfigHome, AppName),
		StateDir:  filepath.Join(xdg.StateHome, AppName),
	}
}

// Config is the complete runtime configuration.
type Config struct {
	LogFile string       `yaml:"log_file" toml:"log_file"`
	DryRun  bool         `yaml:"dry_run" toml:"dry_run"`
	Probe   ProbeConfig  `yaml:"probe" toml:"probe"`
	Retry   RetryConfig  `yaml:"retry" toml:"retry"`
	Apt     AptConfig    `yaml:"apt" toml:"apt"`
	Node    NodeConfig   `yaml:"node" toml:"node"`
	Python  PythonConfig `yaml:"python" toml:"python"`
	MCP     MCPConfig    `yaml:"mcp" toml:"mcp"`
	AWS     AWSConfig    `yaml:"aws" toml:"aws"`

	// ConfigDir holds mcp.json and aliases.sh. Not read from the file.
	ConfigDir string `yaml:"-" toml:"-"`
	// Source is the file the config was loaded from, if any.
	Source string `yaml:"-" toml:"-"`
}

// ProbeConfig tunes capability probing.
type ProbeConfig struct {
	Timeout Duration `yaml:"timeout" toml:"timeout"`
}

// RetryConfig tunes retries of transient failures.
type RetryConfig struct {
	Attempts int      `yaml:"attempts" toml:"attempts"`
	Backoff  Duration `yaml:"backoff" toml:"backoff"`
}

// AptConfig adds packages to the base component.
type AptConfig struct {
	ExtraPackages []string `yaml:"extra_packages" toml:"extra_packages"`
}

// NodeConfig selects the Node.js runtime installed through nvm.
type NodeConfig struct {
	Version    string `yaml:"version" toml:"version"`
	NVMVersion string `yaml:"nvm_version" toml:"nvm_version"`
}

// PythonConfig lists the AI and ML packages installed with pip.
type PythonConfig struct {
	AIPackages []string `yaml:"ai_packages" toml:"ai_packages"`
}

// MCPConfig lists MCP servers written to mcp.json.
type MCPConfig struct {
	Servers []MCPServer `yaml:"servers" toml:"servers"`
}

// MCPServer is one MCP server subprocess definition.
type MCPServer struct {
	Name    string            `yaml:"name" toml:"name" json:"-"`
	Package string            `yaml:"package" toml:"package" json:"-"`
	Command string            `yaml:"command" toml:"command" json:"command"`
	Args    []string          `yaml:"args" toml:"args" json:"args"`
	Env     map[string]string `yaml:"env" toml:"env" json:"env,omitempty"`
}

// AWSConfig configures the profile helper.
type AWSConfig struct {
	ConfigFile string       `yaml:"config_file" toml:"config_file"`
	Roles      RolePatterns `yaml:"roles" toml:"roles"`
}

// RolePatterns classifies profile names by environment. Each entry is a
// regular expression matched against the profile name.
type RolePatterns struct {
	Prod    []string `yaml:"prod" toml:"prod"`
	Staging []string `yaml:"staging" toml:"staging"`
	Dev     []string `yaml:"dev" toml:"dev"`
}

// DefaultAIPackages are installed by the ai-sdks component.
var DefaultAIPackages = []string{
	"anthropic",
	"openai",
	"langchain",
	"transformers",
	"numpy",
	"pandas",
}

// DefaultMCPServers are written to mcp.json by the mcp-servers component.
func DefaultMCPServers() []MCPServer {
	return []MCPServer{
		{
			Name:    "filesystem",
			Package: "@modelcontextprotocol/server-filesystem",
			Command: "npx",
			Args:    []string{"-y", "@modelcontextprotocol/server-filesystem", "~"},
		},
		{
			Name:    "memory",
			Package: "@modelcontextprotocol/server-memory",
			Command: "npx",
			Args:    []string{"-y", "@modelcontextprotocol/server-memory"},
		},
		{
			Name:    "sequential-thinking",
			Package: "@modelcontextprotocol/server-sequential-thinking",
			Command: "npx",
			Args:    []string{"-y", "@modelcontextprotocol/server-sequential-thinking"},
		},
	}
}

// Default returns the configuration used when no file is present.
func Default(paths Paths) *Config {
	return &Config{
		LogFile: filepath.Join(paths.StateDir, AppName+".log"),
		Probe:   ProbeConfig{Timeout: Duration(DefaultProbeTimeout)},
		Retry:   RetryConfig{Attempts: DefaultRetryAttempts, Backoff: Duration(DefaultRetryBackoff)},
		Apt:     AptConfig{ExtraPackages: []string{}},
		Node:    NodeConfig{Version: DefaultNodeVersion, NVMVersion: DefaultNVMVersion},
		Python:  PythonConfig{AIPackages: append([]string(nil), DefaultAIPackages...)},
		MCP:     MCPConfig{Servers: DefaultMCPServers()},
		AWS: AWSConfig{
			ConfigFile: "~/.aws/config",
			Roles: RolePatterns{
				Prod:    []string{segment(`prod|production|prd|live`)},
				Staging: []string{segment(`stag|stage|staging|stg|uat|qa`)},
				Dev:     []string{segment(`dev|develop|development|sandbox|test|testing`)},
			},
		},
		ConfigDir: paths.ConfigDir,
	}
}

// MCPFile is the path of the generated MCP server definitions.
func (c *Config) MCPFile() string {
	return filepath.Join(c.ConfigDir, "mcp.json")
}

// AliasFile is the path of the generated alias file.
func (c *Config) AliasFile() string {
	return filepath.Join(c.ConfigDir, "aliases.sh")
}

// segment matches any of the alternatives as a whole segment of a
// profile name split on "-", "_", "." or "/". A trailing number is
// allowed, as in "dev2". "acme-prod" matches prod, "delivery" does not
// match live.
func segment(alternatives string) string {
	return `(?i)(^|[-_./])(` + alternatives + `)\d*($|[-_./])`
}

var (
	aptPackagePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]*$`)
	pipPackagePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-\[\],<>=!~]*$`)
	mcpNamePattern    = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	errs := NewErrorList()

	if c.LogFile == "" {
		errs.AddValidation("log_file", "must not be empty", "Remove the key to use the default location.")
	}
	if c.Probe.Timeout <= 0 {
		errs.AddValidation("probe.timeout", "must be positive", "Use a value like 10s.")
	}
	if c.Retry.Attempts < 0 || c.Retry.Attempts > 5 {
		errs.AddValidation("retry.attempts", "must be between 0 and 5", "The default is one retry.")
	}
	if c.Retry.Backoff < 0 || c.Retry.Backoff.Std() > time.Minute {
		errs.AddValidation("retry.backoff", "must be between 0s and 1m", "The default is 2s.")
	}
	for _, pkg := range c.Apt.ExtraPackages {
		if !aptPackagePattern.MatchString(pkg) {
			errs.AddValidation("apt.extra_packages", fmt.Sprintf("invalid package name %q", pkg), "Use Debian package names such as 'jq' or 'build-essential'.")
		}
	}
	if strings.TrimSpace(c.Node.Version) == "" {
		errs.AddValidation("node.version", "must not be empty", "Use a version such as 20 or lts/*.")
	}
	if len(c.Python.AIPackages) == 0 {
		errs.AddValidation("python.ai_packages", "must list at least one package", "Remove the key to use the default SDKs.")
	}
	for _, pkg := range c.Python.AIPackages {
		if !pipPackagePattern.MatchString(pkg) {
			errs.AddValidation("python.ai_packages", fmt.Sprintf("invalid package name %q", pkg), "Use PyPI names optionally followed by a version specifier.")
		}
	}

	seen := make(map[string]bool, len(c.MCP.Servers))
	for i, s := range c.MCP.Servers {
		field := fmt.Sprintf("mcp.servers[%d]", i)
		if !mcpNamePattern.MatchString(s.Name) {
			errs.AddValidation(field+".name", fmt.Sprintf("invalid server name %q", s.Name), "Use lowercase letters, digits, '-' and '_'.")
		}
		if seen[s.Name] {
			errs.AddValidation(field+".name", fmt.Sprintf("duplicate server name %q", s.Name), "Each MCP server needs a unique name.")
		}
		seen[s.Name] = true
		if s.Command == "" {
			errs.AddValidation(field+".command", "must not be empty", "Most servers run with 'npx'.")
		}
	}

	roles := map[string][]string{
		"aws.roles.prod":    c.AWS.Roles.Prod,
		"aws.roles.staging": c.AWS.Roles.Staging,
		"aws.roles.dev":     c.AWS.Roles.Dev,
	}
	fields := make([]string, 0, len(roles))
	for field := range roles {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		for _, pattern := range roles[field] {
			if _, err := regexp.Compile(pattern); err != nil {
				errs.AddValidation(field, fmt.Sprintf("invalid pattern %q", pattern), "Patterns are Go regular expressions.")
			}
		}
	}

	return errs.AsError()
}
