// Package config is the typed configuration of the purchase automation.
// It is read from config.json5 (merged with config.local.json5) and then
// overridden by the process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"purchase-automation/internal/browser"
	"purchase-automation/internal/notify"
	"purchase-automation/internal/site"
	"purchase-automation/lib/configutil"
	configlibsql "purchase-automation/lib/configutil/libsql"
	"strconv"
	"strings"
	"time"
)

type RunMode string

const (
	Sequential RunMode = "sequential"
	Parallel   RunMode = "parallel"
)

type Browser struct {
	Type     browser.BrowserType `json:"type"`
	Headless bool                `json:"headless"`
	// UserDataDir keeps cookies between runs, it is empty by default.
	UserDataDir string      `json:"user_data_dir"`
	SlowMo      site.Millis `json:"slow_mo"`
	Install     bool        `json:"install"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Config struct {
	Browser        Browser     `json:"browser"`
	DefaultTimeout site.Millis `json:"default_timeout"`
	// DefaultWait is how long visibility checks wait for an element.
	DefaultWait site.Millis `json:"default_wait"`
	RetryCount  uint        `json:"retry_count"`
	HumanTyping bool        `json:"human_typing"`

	RunMode         RunMode `json:"run_mode"`
	MaxParallelRuns int     `json:"max_parallel_runs"`

	LogLevel       string `json:"log_level"`
	LogsDir        string `json:"logs_dir"`
	DataDir        string `json:"data_dir"`
	ScreenshotsDir string `json:"screenshots_dir"`

	Notification notify.Options      `json:"notification"`
	Database     configlibsql.Struct `json:"database"`

	Sites       map[string]site.Site   `json:"sites"`
	Credentials map[string]Credentials `json:"credentials"`
}

const (
	DefaultTimeout     site.Millis = 30000
	DefaultWait        site.Millis = 5000
	DefaultRetryCount  = 3
	DefaultParallelRun = 2
)

// Load reads the configuration file at `path`, a missing file leaves
// every value at its default. The environment is applied last.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Browser.Type == "" {
		c.Browser.Type = browser.Chromium
	}
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = DefaultTimeout
	}
	if c.DefaultWait == 0 {
		c.DefaultWait = DefaultWait
	}
	if c.RetryCount == 0 {
		c.RetryCount = DefaultRetryCount
	}
	if c.RunMode == "" {
		c.RunMode = Sequential
	}
	if c.MaxParallelRuns <= 0 {
		c.MaxParallelRuns = DefaultParallelRun
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogsDir == "" {
		c.LogsDir = "logs"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.ScreenshotsDir == "" {
		c.ScreenshotsDir = "screenshots"
	}
	if c.Database.File == "" && c.Database.Url == "" {
		c.Database.File = filepath.Join(c.DataDir, "history.db")
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// applyEnv overrides the file configuration with HEADLESS, BROWSER_TYPE,
// LOG_LEVEL, RUN_MODE, MAX_PARALLEL_RUNS and NOTIFICATION_*.
func (c *Config) applyEnv(getenv func(string) string) {
	if v, ok := parseBool(getenv("HEADLESS")); ok {
		c.Browser.Headless = v
	}
	if v := getenv("BROWSER_TYPE"); v != "" {
		c.Browser.Type = browser.BrowserType(strings.ToLower(v))
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := getenv("RUN_MODE"); v != "" {
		c.RunMode = RunMode(strings.ToLower(v))
	}
	if v, err := strconv.Atoi(getenv("MAX_PARALLEL_RUNS")); err == nil {
		c.MaxParallelRuns = v
	}
	if v, ok := parseBool(getenv("NOTIFICATION_ENABLED")); ok {
		c.Notification.Enabled = v
	}
	if v := getenv("NOTIFICATION_EMAIL"); v != "" {
		c.Notification.Email = v
	}
	if v := getenv("NOTIFICATION_SMS"); v != "" {
		c.Notification.SMS = v
	}

	for name, creds := range c.Credentials {
		c.Credentials[name] = c.envCredentials(name, creds, getenv)
	}
}

func envPrefix(siteName string) string {
	return strings.ToUpper(site.Key(siteName))
}

func (c *Config) envCredentials(siteName string, creds Credentials, getenv func(string) string) Credentials {
	prefix := envPrefix(siteName)
	if v := getenv(prefix + "_EMAIL"); v != "" {
		creds.Email = v
	}
	if v := getenv(prefix + "_PASSWORD"); v != "" {
		creds.Password = v
	}
	return creds
}

// CredentialsFor returns the login of a site, `<SITE>_EMAIL` and
// `<SITE>_PASSWORD` take precedence over the file. The boolean is false
// when no complete login is known.
func (c Config) CredentialsFor(siteName string) (Credentials, bool) {
	return c.credentialsFor(siteName, os.Getenv)
}

func (c Config) credentialsFor(siteName string, getenv func(string) string) (Credentials, bool) {
	var creds Credentials
	for name, configured := range c.Credentials {
		if site.Key(name) == site.Key(siteName) {
			creds = configured
			break
		}
	}
	creds = c.envCredentials(siteName, creds, getenv)
	return creds, creds.Email != "" && creds.Password != ""
}

func (c Config) Validate() error {
	switch c.Browser.Type {
	case browser.Chromium, browser.Firefox, browser.WebKit:
	default:
		return fmt.Errorf("unknown browser type %q", c.Browser.Type)
	}
	switch c.RunMode {
	case Sequential, Parallel:
	default:
		return fmt.Errorf("unknown run mode %q", c.RunMode)
	}
	if c.MaxParallelRuns < 1 {
		return fmt.Errorf("max_parallel_runs must be at least 1, got %d", c.MaxParallelRuns)
	}
	return nil
}

func (c Config) LaunchOptions() browser.LaunchOptions {
	return browser.LaunchOptions{
		Type:        c.Browser.Type,
		Headless:    c.Browser.Headless,
		UserDataDir: c.Browser.UserDataDir,
		SlowMo:      c.Browser.SlowMo.Duration(),
		Install:     c.Browser.Install,
	}
}

// LogFile is where the plain text log of every run is appended.
func (c Config) LogFile() string {
	return filepath.Join(c.LogsDir, "automation.log")
}

func (c Config) VisibleTimeout() time.Duration {
	return c.DefaultWait.Duration()
}
