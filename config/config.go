package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/forecast-trader/sim"
)

// Config represents the complete forecast-trader configuration
type Config struct {
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Data       DataConfig       `json:"data" yaml:"data"`
	Explain    ExplainConfig    `json:"explain" yaml:"explain"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// SimulationConfig contains the decision parameters
type SimulationConfig struct {
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
	Lookahead      int     `json:"lookahead" yaml:"lookahead"`
	Threshold      float64 `json:"threshold" yaml:"threshold"`
	HistoryWindow  int     `json:"history_window" yaml:"history_window"`
}

// DataConfig says where prices and forecasts come from
type DataConfig struct {
	Dir          string   `json:"dir" yaml:"dir"`
	Tickers      []string `json:"tickers" yaml:"tickers"`
	Steps        int      `json:"steps" yaml:"steps"`
	SeqLength    int      `json:"seq_length" yaml:"seq_length"`
	Predictor    string   `json:"predictor" yaml:"predictor"` // "csv" or "http"
	PredictorURL string   `json:"predictor_url,omitempty" yaml:"predictor_url,omitempty"`
}

// ExplainConfig controls trade explanations
type ExplainConfig struct {
	Mode       string `json:"mode" yaml:"mode"`       // "off", "static" or "gemini"
	Spacing    string `json:"spacing" yaml:"spacing"` // e.g. "3s"
	Workers    int    `json:"workers" yaml:"workers"`
	Endpoint   string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	APIKeyEnv  string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	StaticText string `json:"static_text,omitempty" yaml:"static_text,omitempty"`
	Timeout    string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	EntriesFile string `json:"entries_file,omitempty" yaml:"entries_file,omitempty"`
	RunsFile    string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LogConfig selects the logger
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	JSON  bool   `json:"json" yaml:"json"`
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// SpacingDuration converts the spacing string to time.Duration
func (e ExplainConfig) SpacingDuration() (time.Duration, error) {
	return parseDuration(e.Spacing)
}

// TimeoutDuration converts the timeout string to time.Duration
func (e ExplainConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration(e.Timeout)
}

// APIKey reads the explainer key from the environment. A .env file in
// the working directory is loaded first if present; variables already
// set win.
func (e ExplainConfig) APIKey() string {
	if e.APIKeyEnv == "" {
		return ""
	}
	_ = godotenv.Load()
	return os.Getenv(e.APIKeyEnv)
}

// SimOptions converts the simulation section to run options.
func (c *Config) SimOptions() sim.Options {
	return sim.Options{
		InitialBalance: c.Simulation.InitialBalance,
		Lookahead:      c.Simulation.Lookahead,
		Threshold:      c.Simulation.Threshold,
		HistoryWindow:  c.Simulation.HistoryWindow,
	}
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Simulation.InitialBalance < 0 {
		return fmt.Errorf("simulation.initial_balance must not be negative")
	}
	if c.Simulation.Lookahead < 1 {
		return fmt.Errorf("simulation.lookahead must be at least 1")
	}
	if c.Simulation.Threshold < 0 {
		return fmt.Errorf("simulation.threshold must not be negative")
	}
	if c.Simulation.HistoryWindow < 0 {
		return fmt.Errorf("simulation.history_window must not be negative")
	}

	if c.Data.Steps < 1 {
		return fmt.Errorf("data.steps must be at least 1")
	}
	if c.Data.SeqLength < 1 {
		return fmt.Errorf("data.seq_length must be at least 1")
	}
	switch c.Data.Predictor {
	case "csv", "":
	case "http":
		if c.Data.PredictorURL == "" {
			return fmt.Errorf("data.predictor_url required for http predictor")
		}
	default:
		return fmt.Errorf("data.predictor must be 'csv' or 'http'")
	}

	switch c.Explain.Mode {
	case "off", "", "static":
	case "gemini":
		if c.Explain.APIKeyEnv == "" {
			return fmt.Errorf("explain.api_key_env required for gemini mode")
		}
	default:
		return fmt.Errorf("explain.mode must be 'off', 'static' or 'gemini'")
	}
	if _, err := c.Explain.SpacingDuration(); err != nil {
		return fmt.Errorf("explain.spacing: %w", err)
	}
	if _, err := c.Explain.TimeoutDuration(); err != nil {
		return fmt.Errorf("explain.timeout: %w", err)
	}
	if c.Explain.Workers < 0 {
		return fmt.Errorf("explain.workers must not be negative")
	}

	switch c.Journal.Type {
	case "none", "":
	case "csv":
		if c.Journal.EntriesFile == "" || c.Journal.RunsFile == "" {
			return fmt.Errorf("journal entries_file and runs_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	return nil
}

// Default returns a configuration with the stock simulation parameters
func Default() *Config {
	opts := sim.DefaultOptions()
	return &Config{
		Simulation: SimulationConfig{
			InitialBalance: opts.InitialBalance,
			Lookahead:      opts.Lookahead,
			Threshold:      opts.Threshold,
			HistoryWindow:  opts.HistoryWindow,
		},
		Data: DataConfig{
			Dir:       "./data",
			Tickers:   []string{"AAPL"},
			Steps:     50,
			SeqLength: 100,
			Predictor: "csv",
		},
		Explain: ExplainConfig{
			Mode:      "off",
			Spacing:   "3s",
			Workers:   1,
			APIKeyEnv: "GEMINI_API_KEY",
			Timeout:   "30s",
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
