package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"envsync/internal/domain/envvar"
	"envsync/internal/infrastructure/envfile"
	"envsync/internal/infrastructure/projectfile"

	"github.com/BurntSushi/toml"
)

// Supported providers
const (
	ProviderVercel = "vercel"
	ProviderConvex = "convex"
)

// DefaultConfigPath is read when present and no other path is given
const DefaultConfigPath = "envsync.toml"

// DefaultTimeout bounds every remote call
const DefaultTimeout = 30 * time.Second

// Config holds everything one run needs
type Config struct {
	Provider string
	Source   SourceConfig
	Vercel   VercelConfig
	Convex   ConvexConfig
	Confirm  bool
	DryRun   bool
	JSON     bool
	Timeout  time.Duration
	Log      LogConfig
}

// SourceConfig says where the desired set comes from
type SourceConfig struct {
	File  string
	Stdin bool
}

// VercelConfig holds Vercel configuration
type VercelConfig struct {
	Project    string
	Team       string
	Token      string
	Target     string
	APIBaseURL string
}

// ConvexConfig holds Convex configuration
type ConvexConfig struct {
	Deployment string
	DeployKey  string
	Command    string
}

// LogConfig holds raw logging settings
type LogConfig struct {
	Level   string
	NoColor string
	Verbose bool
}

// Env is the process environment, read exactly once at startup
type Env struct {
	VercelToken     string
	VercelTeamID    string
	ConvexDeployKey string
	ConfigPath      string
	LogLevel        string
	LogNoColor      string
}

// EnvFromOS snapshots the environment variables envsync consumes
func EnvFromOS() Env {
	return Env{
		VercelToken:     getEnv("VERCEL_TOKEN", ""),
		VercelTeamID:    getEnv("VERCEL_TEAM_ID", ""),
		ConvexDeployKey: getEnv("CONVEX_DEPLOY_KEY", ""),
		ConfigPath:      getEnv("ENVSYNC_CONFIG", ""),
		LogLevel:        getEnv("ENVSYNC_LOG_LEVEL", ""),
		LogNoColor:      getEnv("ENVSYNC_LOG_NOCOLOR", ""),
	}
}

// Flags are the parsed command-line options. Empty strings mean "not given".
type Flags struct {
	Provider   string
	Project    string
	Team       string
	Token      string
	File       string
	Target     string
	Deployment string
	ConfigPath string
	Stdin      bool
	Yes        bool
	DryRun     bool
	JSON       bool
	Verbose    bool
	Timeout    time.Duration
}

// fileConfig mirrors envsync.toml
type fileConfig struct {
	Provider      string `toml:"provider"`
	Project       string `toml:"project"`
	Team          string `toml:"team"`
	File          string `toml:"file"`
	Target        string `toml:"target"`
	Deployment    string `toml:"deployment"`
	APIBaseURL    string `toml:"api_base_url"`
	ConvexCommand string `toml:"convex_command"`
	Timeout       string `toml:"timeout"`
}

// Options tune where Load looks for files
type Options struct {
	// DescriptorPath overrides the Vercel project descriptor location
	DescriptorPath string
}

// Load assembles the configuration. Precedence is flag, then environment,
// then envsync.toml, then defaults.
func Load(flags Flags, env Env, opts Options) (*Config, error) {
	cfg := &Config{
		Source:  SourceConfig{File: envfile.DefaultPath},
		Vercel:  VercelConfig{Target: envvar.TargetProduction},
		Timeout: DefaultTimeout,
	}

	if err := applyFile(cfg, flags.ConfigPath, env.ConfigPath); err != nil {
		return nil, err
	}

	applyEnv(cfg, env)
	applyFlags(cfg, flags)

	if cfg.Provider == ProviderVercel && cfg.Vercel.Project == "" {
		if err := applyDescriptor(cfg, opts.DescriptorPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyFile(cfg *Config, flagPath, envPath string) error {
	path, explicit := flagPath, true
	if path == "" {
		path = envPath
	}
	if path == "" {
		path, explicit = DefaultConfigPath, false
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return envvar.ErrConfiguration(fmt.Sprintf("load config %s: %v", path, err), "")
	}

	if meta.IsDefined("provider") {
		cfg.Provider = normalize(raw.Provider)
	}
	if meta.IsDefined("project") {
		cfg.Vercel.Project = strings.TrimSpace(raw.Project)
	}
	if meta.IsDefined("team") {
		cfg.Vercel.Team = strings.TrimSpace(raw.Team)
	}
	if meta.IsDefined("file") {
		cfg.Source.File = strings.TrimSpace(raw.File)
	}
	if meta.IsDefined("target") {
		cfg.Vercel.Target = strings.TrimSpace(raw.Target)
	}
	if meta.IsDefined("deployment") {
		cfg.Convex.Deployment = strings.TrimSpace(raw.Deployment)
	}
	if meta.IsDefined("api_base_url") {
		cfg.Vercel.APIBaseURL = strings.TrimSpace(raw.APIBaseURL)
	}
	if meta.IsDefined("convex_command") {
		cfg.Convex.Command = strings.TrimSpace(raw.ConvexCommand)
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return envvar.ErrConfiguration(fmt.Sprintf("parse timeout in %s: %v", path, err), "use a duration such as \"45s\"")
		}
		cfg.Timeout = d
	}
	return nil
}

func applyEnv(cfg *Config, env Env) {
	if env.VercelToken != "" {
		cfg.Vercel.Token = strings.TrimSpace(env.VercelToken)
	}
	if env.VercelTeamID != "" {
		cfg.Vercel.Team = strings.TrimSpace(env.VercelTeamID)
	}
	if env.ConvexDeployKey != "" {
		cfg.Convex.DeployKey = strings.TrimSpace(env.ConvexDeployKey)
	}
	cfg.Log.Level = env.LogLevel
	cfg.Log.NoColor = env.LogNoColor
}

func applyFlags(cfg *Config, flags Flags) {
	if v := normalize(flags.Provider); v != "" {
		cfg.Provider = v
	}
	if v := strings.TrimSpace(flags.Project); v != "" {
		cfg.Vercel.Project = v
	}
	if v := strings.TrimSpace(flags.Team); v != "" {
		cfg.Vercel.Team = v
	}
	if v := strings.TrimSpace(flags.Token); v != "" {
		// one --token flag serves whichever provider is selected
		cfg.Vercel.Token = v
		cfg.Convex.DeployKey = v
	}
	if v := strings.TrimSpace(flags.File); v != "" {
		cfg.Source.File = v
	}
	if v := strings.TrimSpace(flags.Target); v != "" {
		cfg.Vercel.Target = v
	}
	if v := strings.TrimSpace(flags.Deployment); v != "" {
		cfg.Convex.Deployment = v
	}
	if flags.Timeout > 0 {
		cfg.Timeout = flags.Timeout
	}
	cfg.Source.Stdin = flags.Stdin
	cfg.Confirm = !flags.Yes
	cfg.DryRun = flags.DryRun
	cfg.JSON = flags.JSON
	cfg.Log.Verbose = flags.Verbose
}

func applyDescriptor(cfg *Config, path string) error {
	d, err := projectfile.Read(path)
	if err != nil {
		if errors.Is(err, projectfile.ErrNotFound) {
			return envvar.ErrConfiguration(
				"no Vercel project specified",
				"pass --project <id> or run `vercel link` to create .vercel/project.json",
			)
		}
		return envvar.ErrConfiguration(
			fmt.Sprintf("invalid project descriptor: %v", err),
			"pass --project <id> or re-run `vercel link`",
		)
	}
	cfg.Vercel.Project = d.ProjectID
	if cfg.Vercel.Team == "" {
		cfg.Vercel.Team = d.TeamID()
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderVercel:
		if c.Vercel.Project == "" {
			return envvar.ErrConfiguration("Vercel project is required", "pass --project <id>")
		}
		if c.Vercel.Token == "" {
			return envvar.ErrConfiguration("Vercel token is required", "pass --token or set VERCEL_TOKEN")
		}
	case ProviderConvex:
	case "":
		return envvar.ErrConfiguration("provider is required", "usage: envsync <vercel|convex> [options]")
	default:
		return envvar.ErrConfiguration(
			fmt.Sprintf("unknown provider %q", c.Provider),
			"supported providers: vercel, convex",
		)
	}
	if c.Timeout <= 0 {
		return envvar.ErrConfiguration("timeout must be positive", "")
	}
	if c.Confirm && !c.DryRun && c.JSON {
		return envvar.ErrConfiguration("--json output cannot be combined with an interactive confirmation", "add --yes or --dry-run")
	}
	return nil
}

// Scope returns the raw scope identifier for the selected provider
func (c *Config) Scope() string {
	if c.Provider == ProviderConvex {
		return c.Convex.Deployment
	}
	return c.Vercel.Target
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
