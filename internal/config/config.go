package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DotEnvFile is the optional env file read from the working
// directory before the process environment.
const DotEnvFile = ".env"

// Config holds all application configuration. It is built once
// at process entry and passed to every component.
type Config struct {
	ConfigDir      string `json:"config_dir"`
	ProjectsDir    string `json:"projects_dir"`
	SettingsFile   string `json:"settings_file"`
	UserClaudeMd   string `json:"user_claude_md"`
	UserSkillsDir  string `json:"user_skills_dir"`
	UserRulesDir   string `json:"user_rules_dir"`
	UserConfigFile string `json:"user_config_file"`

	Host       string `json:"host"`
	Port       int    `json:"port"`
	CORSOrigin string `json:"cors_origin"`

	WriteTimeout  time.Duration `json:"-"`
	WatchDebounce time.Duration `json:"-"`
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	cfg := Config{
		ConfigDir:      filepath.Join(home, ".claude"),
		UserConfigFile: filepath.Join(home, ".claude.json"),
		Host:           "127.0.0.1",
		Port:           3581,
		CORSOrigin:     "http://localhost:5173",
		WriteTimeout:   30 * time.Second,
		WatchDebounce:  500 * time.Millisecond,
	}
	cfg.derivePaths()
	return cfg, nil
}

// ForDir returns a default Config rooted at configDir. Used by
// tests and by callers that bypass the environment entirely.
func ForDir(configDir string) Config {
	cfg := Config{
		ConfigDir:      configDir,
		UserConfigFile: filepath.Join(configDir, ".claude.json"),
		Host:           "127.0.0.1",
		Port:           3581,
		CORSOrigin:     "http://localhost:5173",
		WriteTimeout:   30 * time.Second,
		WatchDebounce:  500 * time.Millisecond,
	}
	cfg.derivePaths()
	return cfg
}

// Load builds a Config by layering: defaults < .env < env < flags.
// The provided FlagSet must already be parsed by the caller.
// Only flags that were explicitly set override the lower layers.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg, err := LoadMinimal()
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg, fs)
	cfg.derivePaths()
	return cfg, nil
}

// LoadMinimal builds a Config from defaults, the .env file, and
// the environment, without looking at CLI flags.
func LoadMinimal() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if err := loadDotEnv(DotEnvFile); err != nil {
		return cfg, fmt.Errorf("loading %s: %w", DotEnvFile, err)
	}
	if err := cfg.loadEnv(); err != nil {
		return cfg, err
	}
	cfg.derivePaths()
	return cfg, nil
}

// loadDotEnv populates unset environment variables from path.
// Variables already present in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func (c *Config) loadEnv() error {
	if v := os.Getenv("CLAUDE_CONFIG_DIR"); v != "" {
		c.ConfigDir = expandHome(v)
	}
	if v := os.Getenv("CLAUDESESSIONS_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("invalid PORT %q", v)
		}
		c.Port = port
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		c.CORSOrigin = v
	}
	return nil
}

// derivePaths recomputes every path that hangs off ConfigDir.
func (c *Config) derivePaths() {
	c.ProjectsDir = filepath.Join(c.ConfigDir, "projects")
	c.SettingsFile = filepath.Join(c.ConfigDir, "settings.json")
	c.UserClaudeMd = filepath.Join(c.ConfigDir, "CLAUDE.md")
	c.UserSkillsDir = filepath.Join(c.ConfigDir, "skills")
	c.UserRulesDir = filepath.Join(c.ConfigDir, "rules")
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RegisterFlags registers the configuration flags on fs.
// The caller must parse fs before passing it to Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config-dir", "", "Claude Code config directory (default ~/.claude)")
	fs.String("host", "127.0.0.1", "Host to bind to")
	fs.Int("port", 3581, "Port to listen on")
	fs.String("cors-origin", "http://localhost:5173", "Allowed CORS origin")
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "config-dir":
			if v := f.Value.String(); v != "" {
				cfg.ConfigDir = expandHome(v)
			}
		case "host":
			cfg.Host = f.Value.String()
		case "port":
			// pflag already validated the int; ignore parse error
			cfg.Port, _ = strconv.Atoi(f.Value.String())
		case "cors-origin":
			cfg.CORSOrigin = f.Value.String()
		}
	})
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
