// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	FMP    FMPConfig    `yaml:"fmp" mapstructure:"fmp"`
	Ledger LedgerConfig `yaml:"ledger" mapstructure:"ledger"`
	Gate   GateConfig   `yaml:"gate" mapstructure:"gate"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// FMPConfig holds Financial Modeling Prep API settings.
type FMPConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	StatementLimit int     `yaml:"statement_limit" mapstructure:"statement_limit"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// LedgerConfig configures the ledger store backend and the bounded row block.
type LedgerConfig struct {
	Driver       string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL  string `yaml:"database_url" mapstructure:"database_url"`
	DashboardTab string `yaml:"dashboard_tab" mapstructure:"dashboard_tab"`
	LogTab       string `yaml:"log_tab" mapstructure:"log_tab"`
	BlockStart   int    `yaml:"block_start" mapstructure:"block_start"`
	BlockEnd     int    `yaml:"block_end" mapstructure:"block_end"`
}

// GateConfig holds the promotion gate thresholds.
type GateConfig struct {
	PromoteThreshold       float64 `yaml:"promote_threshold" mapstructure:"promote_threshold"`
	HighPriorityThreshold  float64 `yaml:"high_priority_threshold" mapstructure:"high_priority_threshold"`
	MoatGate               int     `yaml:"moat_gate" mapstructure:"moat_gate"`
	RequireFCFPositive     bool    `yaml:"require_fcf_positive" mapstructure:"require_fcf_positive"`
	RequireROICAboveMedian bool    `yaml:"require_roic_above_median" mapstructure:"require_roic_above_median"`
	RequireThesisIntact    bool    `yaml:"require_thesis_intact" mapstructure:"require_thesis_intact"`
	MaxRiskFlags           int     `yaml:"max_risk_flags" mapstructure:"max_risk_flags"`
	NetDebtToEBITDAMax     float64 `yaml:"net_debt_to_ebitda_max" mapstructure:"net_debt_to_ebitda_max"`
}

// BatchConfig configures batch evaluation.
type BatchConfig struct {
	PrefetchConcurrency int `yaml:"prefetch_concurrency" mapstructure:"prefetch_concurrency"`
}

// ServerConfig configures the HTTP evaluation endpoint.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// OutputConfig configures local result artifacts.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INVESTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("fmp.base_url", "https://financialmodelingprep.com/api/v3")
	v.SetDefault("fmp.timeout_secs", 15)
	v.SetDefault("fmp.statement_limit", 5)
	v.SetDefault("fmp.requests_per_sec", 4)
	v.SetDefault("fmp.max_retries", 4)
	v.SetDefault("ledger.driver", "sqlite")
	v.SetDefault("ledger.database_url", "investor.db")
	v.SetDefault("ledger.dashboard_tab", "Dashboard")
	v.SetDefault("ledger.log_tab", "Promotion Log")
	v.SetDefault("ledger.block_start", 2)
	v.SetDefault("ledger.block_end", 51)
	v.SetDefault("gate.promote_threshold", 70)
	v.SetDefault("gate.high_priority_threshold", 85)
	v.SetDefault("gate.moat_gate", 7)
	v.SetDefault("gate.require_fcf_positive", true)
	v.SetDefault("gate.require_roic_above_median", false)
	v.SetDefault("gate.require_thesis_intact", true)
	v.SetDefault("gate.max_risk_flags", 2)
	v.SetDefault("gate.net_debt_to_ebitda_max", 3.0)
	v.SetDefault("batch.prefetch_concurrency", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("output.dir", "out")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that required settings are present and internally
// consistent. Validation failures are fatal at startup and never retried.
func (c *Config) Validate() error {
	var errs []string

	if c.FMP.Key == "" {
		errs = append(errs, "fmp.key is required")
	}
	switch c.Ledger.Driver {
	case "sqlite", "postgres", "memory":
	default:
		errs = append(errs, fmt.Sprintf("ledger.driver must be sqlite, postgres, or memory, got %q", c.Ledger.Driver))
	}
	if c.Ledger.Driver != "memory" && c.Ledger.DatabaseURL == "" {
		errs = append(errs, "ledger.database_url is required")
	}
	if c.Ledger.DashboardTab == "" {
		errs = append(errs, "ledger.dashboard_tab is required")
	}
	if c.Ledger.LogTab == "" {
		errs = append(errs, "ledger.log_tab is required")
	}
	if c.Ledger.BlockStart < 1 {
		errs = append(errs, "ledger.block_start must be >= 1")
	}
	if c.Ledger.BlockEnd < c.Ledger.BlockStart {
		errs = append(errs, "ledger.block_end must be >= ledger.block_start")
	}

	if err := c.Gate.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks gate thresholds for internal consistency.
func (g GateConfig) Validate() error {
	var errs []string

	if g.PromoteThreshold < 0 || g.PromoteThreshold > 100 {
		errs = append(errs, "gate.promote_threshold must be between 0 and 100")
	}
	if g.HighPriorityThreshold < 0 || g.HighPriorityThreshold > 100 {
		errs = append(errs, "gate.high_priority_threshold must be between 0 and 100")
	}
	if g.HighPriorityThreshold < g.PromoteThreshold {
		errs = append(errs, "gate.high_priority_threshold must be >= gate.promote_threshold")
	}
	if g.MoatGate < 0 || g.MoatGate > 10 {
		errs = append(errs, "gate.moat_gate must be between 0 and 10")
	}
	if g.MaxRiskFlags < 0 {
		errs = append(errs, "gate.max_risk_flags must be >= 0")
	}
	if g.NetDebtToEBITDAMax < 0 || math.IsNaN(g.NetDebtToEBITDAMax) {
		errs = append(errs, "gate.net_debt_to_ebitda_max must be >= 0")
	}

	if len(errs) > 0 {
		return eris.New(strings.Join(errs, "; "))
	}
	return nil
}

// Redacted returns a copy with secrets masked, suitable for display.
func (c *Config) Redacted() Config {
	out := *c
	if out.FMP.Key != "" {
		out.FMP.Key = "********"
	}
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
