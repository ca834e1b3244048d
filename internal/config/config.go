package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/cosmicmind/internal/engine"
	"github.com/danielpatrickdp/cosmicmind/internal/scheduler"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "mind.yaml"

// #region types
// Config is the on-disk configuration of one agent process.
type Config struct {
	Agent     AgentConfig     `yaml:"agent"`
	Cognition CognitionConfig `yaml:"cognition"`
	Storage   StorageConfig   `yaml:"storage"`
	Peers     PeersConfig     `yaml:"peers"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AgentConfig is identity and purpose.
type AgentConfig struct {
	ID            string       `yaml:"id"`
	Identity      string       `yaml:"identity"`
	Telos         string       `yaml:"telos"`
	Ethics        []string     `yaml:"ethics"`
	CoreValues    []string     `yaml:"core_values"`
	Limitations   []string     `yaml:"limitations"`
	Understanding string       `yaml:"understanding"`
	Goals         []GoalConfig `yaml:"goals"`
}

// GoalConfig seeds one goal.
type GoalConfig struct {
	Description string  `yaml:"description"`
	Priority    float64 `yaml:"priority"`
}

// CognitionConfig tunes the cycle.
type CognitionConfig struct {
	FocusSize           int     `yaml:"focus_size"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	InitialDelay        string  `yaml:"initial_delay"`
	Interval            string  `yaml:"interval"`
}

// StorageConfig places snapshots and the history archive.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	Archive bool   `yaml:"archive"`
}

// PeersConfig controls the peer network.
type PeersConfig struct {
	Listen      string   `yaml:"listen"`
	Addrs       []string `yaml:"addrs"`
	TrustWeight float64  `yaml:"trust_weight"`
	Timeout     string   `yaml:"timeout"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// #endregion types

// #region defaults
// DefaultConfig returns the bootstrap agent with local storage and no peers.
func DefaultConfig() *Config {
	e := engine.DefaultConfig()
	goals := make([]GoalConfig, len(e.Goals))
	for i, g := range e.Goals {
		goals[i] = GoalConfig{Description: g.Description, Priority: g.Priority}
	}
	return &Config{
		Agent: AgentConfig{
			Identity:      e.Identity,
			Telos:         e.Telos,
			Ethics:        e.Ethics,
			CoreValues:    e.CoreValues,
			Limitations:   e.Limitations,
			Understanding: e.Understanding,
			Goals:         goals,
		},
		Cognition: CognitionConfig{
			FocusSize:           e.FocusSize,
			SimilarityThreshold: e.SimilarityThreshold,
			InitialDelay:        scheduler.DefaultInitialDelay.String(),
			Interval:            scheduler.DefaultInterval.String(),
		},
		Storage: StorageConfig{
			DataDir: "data",
			Archive: true,
		},
		Peers: PeersConfig{
			Listen:      "127.0.0.1:7400",
			TrustWeight: e.ShareTrustWeight,
			Timeout:     "5s",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// #endregion defaults

// #region load
// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("MIND_AGENT_ID"); v != "" {
		c.Agent.ID = v
	}
	if v := os.Getenv("MIND_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("MIND_LISTEN"); v != "" {
		c.Peers.Listen = v
	}
	if v := os.Getenv("MIND_PEERS"); v != "" {
		c.Peers.Addrs = splitList(v)
	}
	if v := os.Getenv("MIND_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MIND_ARCHIVE"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MIND_ARCHIVE: %w", err)
		}
		c.Storage.Archive = on
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// #endregion load

// #region validate
// Validate checks ranges and durations.
func (c *Config) Validate() error {
	if c.Cognition.FocusSize <= 0 {
		return fmt.Errorf("cognition.focus_size must be positive, got %d", c.Cognition.FocusSize)
	}
	if c.Cognition.SimilarityThreshold <= 0 {
		return fmt.Errorf("cognition.similarity_threshold must be positive, got %g", c.Cognition.SimilarityThreshold)
	}
	if c.Peers.TrustWeight < 0 || c.Peers.TrustWeight > 1 {
		return fmt.Errorf("peers.trust_weight must be within [0,1], got %g", c.Peers.TrustWeight)
	}
	for name, v := range map[string]string{
		"cognition.initial_delay": c.Cognition.InitialDelay,
		"cognition.interval":      c.Cognition.Interval,
		"peers.timeout":           c.Peers.Timeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// #endregion validate

// #region conversions
// Engine returns the engine configuration.
func (c *Config) Engine() engine.Config {
	goals := make([]engine.GoalSeed, len(c.Agent.Goals))
	for i, g := range c.Agent.Goals {
		goals[i] = engine.GoalSeed{Description: g.Description, Priority: g.Priority}
	}
	return engine.Config{
		AgentID:             c.Agent.ID,
		Identity:            c.Agent.Identity,
		Telos:               c.Agent.Telos,
		Ethics:              c.Agent.Ethics,
		CoreValues:          c.Agent.CoreValues,
		Limitations:         c.Agent.Limitations,
		Understanding:       c.Agent.Understanding,
		Goals:               goals,
		FocusSize:           c.Cognition.FocusSize,
		SimilarityThreshold: c.Cognition.SimilarityThreshold,
		ShareTrustWeight:    c.Peers.TrustWeight,
	}
}

// Scheduler returns the cycle cadence. Durations were checked by Validate.
func (c *Config) Scheduler() scheduler.Config {
	return scheduler.Config{
		InitialDelay: parseDuration(c.Cognition.InitialDelay, scheduler.DefaultInitialDelay),
		Interval:     parseDuration(c.Cognition.Interval, scheduler.DefaultInterval),
	}
}

// PeerTimeout returns the per-exchange timeout.
func (c *Config) PeerTimeout() time.Duration {
	return parseDuration(c.Peers.Timeout, 5*time.Second)
}

// ArchivePath returns the sqlite history file, or "" when disabled.
func (c *Config) ArchivePath() string {
	if !c.Storage.Archive {
		return ""
	}
	return filepath.Join(c.Storage.DataDir, "history.db")
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// #endregion conversions
