// Package config loads gemrank settings from YAML, .env and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all gemrank configuration
type Config struct {
	Browser  BrowserConfig  `yaml:"browser"`
	Sites    SitesConfig    `yaml:"sites"`
	Ciphers  []string       `yaml:"ciphers"`
	Ranking  RankingConfig  `yaml:"ranking"`
	History  HistoryConfig  `yaml:"history"`
	Database DatabaseConfig `yaml:"database"`
}

// BrowserConfig configures the Chrome instance driven by go-rod
type BrowserConfig struct {
	Headless    bool   `yaml:"headless"`
	Bin         string `yaml:"bin"`          // Chrome binary, empty for rod's default
	DebuggerURL string `yaml:"debugger_url"` // connect to a running Chrome instead of launching
	NavTimeout  string `yaml:"nav_timeout"`
	WaitTimeout string `yaml:"wait_timeout"`
}

// SitesConfig holds the scraped site addresses
type SitesConfig struct {
	CalculatorURL string `yaml:"calculator_url"`
	MoonURL       string `yaml:"moon_url"`
}

// RankingConfig holds the display thresholds
type RankingConfig struct {
	MinimumCount  int `yaml:"minimum_count"`
	TierThreshold int `yaml:"tier_threshold"`
}

// HistoryConfig points at the phrase and result spreadsheets
type HistoryConfig struct {
	PhrasesPath string `yaml:"phrases_path"`
	ResultsPath string `yaml:"results_path"`
	BatchSize   int    `yaml:"batch_size"`
}

// DatabaseConfig configures the run store
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the settings used when no file is present
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Browser: BrowserConfig{
			Headless:    true,
			NavTimeout:  "30s",
			WaitTimeout: "10s",
		},
		Sites: SitesConfig{
			CalculatorURL: "https://gematrinator.com/calculator",
			MoonURL:       "https://mooncalendar.astro-seek.com",
		},
		Ciphers: []string{"chaldean"},
		Ranking: RankingConfig{
			MinimumCount:  2,
			TierThreshold: 2,
		},
		History: HistoryConfig{
			PhrasesPath: "teams.csv",
			ResultsPath: "team_nums.csv",
			BatchSize:   5,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(home, ".gemrank", "gemrank.db"),
		},
	}
}

// DefaultPath is the config file looked up when --config is not given
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gemrank", "config.yaml")
}

// Load reads a YAML config file. A missing file yields the defaults.
// A .env file in the working directory is loaded before environment overrides apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Missing .env is fine
	_ = godotenv.Load()

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML, creating the directory if needed
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Browser.NavTimeout); err != nil {
		return fmt.Errorf("browser.nav_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Browser.WaitTimeout); err != nil {
		return fmt.Errorf("browser.wait_timeout: %w", err)
	}
	if c.History.BatchSize < 1 {
		return fmt.Errorf("history.batch_size must be positive, got %d", c.History.BatchSize)
	}
	if c.Ranking.MinimumCount < 1 {
		return fmt.Errorf("ranking.minimum_count must be positive, got %d", c.Ranking.MinimumCount)
	}
	return nil
}

// NavigationTimeout returns the page navigation timeout
func (c BrowserConfig) NavigationTimeout() time.Duration {
	d, err := time.ParseDuration(c.NavTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// ElementTimeout returns how long to wait for a DOM element
func (c BrowserConfig) ElementTimeout() time.Duration {
	d, err := time.ParseDuration(c.WaitTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("GEMRANK_DB"); path != "" {
		c.Database.Path = path
	}
	if bin := os.Getenv("GEMRANK_CHROME_BIN"); bin != "" {
		c.Browser.Bin = bin
	}
	if url := os.Getenv("GEMRANK_DEBUGGER_URL"); url != "" {
		c.Browser.DebuggerURL = url
	}
	if v := os.Getenv("GEMRANK_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Browser.Headless = b
		}
	}
	if url := os.Getenv("GEMRANK_CALCULATOR_URL"); url != "" {
		c.Sites.CalculatorURL = url
	}
	if url := os.Getenv("GEMRANK_MOON_URL"); url != "" {
		c.Sites.MoonURL = url
	}
}
