package config

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Addr         string `json:"addr"`
	WebDir       string `json:"web_dir"`
	MobileWebDir string `json:"mobile_web_dir"`

	DefaultDepth int  `json:"default_depth"`
	MaxDepth     int  `json:"max_depth"`
	Mobility     bool `json:"mobility"`

	AnalysisWorkers   int  `json:"analysis_workers"`
	AnalysisTimeoutMs int  `json:"analysis_timeout_ms"`
	LogSearchStats    bool `json:"log_search_stats"`

	ShutdownTimeoutMs int `json:"shutdown_timeout_ms"`
}

func Default() Config {
	return Config{
		Addr:   ":2888",
		WebDir: "./web",

		DefaultDepth: 4,
		MaxDepth:     8,
		Mobility:     true,

		AnalysisWorkers:   2,
		AnalysisTimeoutMs: 30000,
		LogSearchStats:    false,

		ShutdownTimeoutMs: 5000,
	}
}

// Load reads a JSON file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.WithMessagef(err, "config %s", path)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs *multierror.Error
	if c.Addr == "" {
		errs = multierror.Append(errs, errors.Wrap(ErrInvalidConfig, "addr is empty"))
	}
	if c.DefaultDepth < 1 {
		errs = multierror.Append(errs, errors.Wrapf(ErrInvalidConfig, "default_depth %d < 1", c.DefaultDepth))
	}
	if c.MaxDepth < c.DefaultDepth {
		errs = multierror.Append(errs, errors.Wrapf(ErrInvalidConfig, "max_depth %d below default_depth %d", c.MaxDepth, c.DefaultDepth))
	}
	if c.AnalysisWorkers < 1 {
		errs = multierror.Append(errs, errors.Wrapf(ErrInvalidConfig, "analysis_workers %d < 1", c.AnalysisWorkers))
	}
	if c.AnalysisTimeoutMs < 0 {
		errs = multierror.Append(errs, errors.Wrapf(ErrInvalidConfig, "analysis_timeout_ms %d < 0", c.AnalysisTimeoutMs))
	}
	if c.ShutdownTimeoutMs < 0 {
		errs = multierror.Append(errs, errors.Wrapf(ErrInvalidConfig, "shutdown_timeout_ms %d < 0", c.ShutdownTimeoutMs))
	}
	return errs.ErrorOrNil()
}

// AnalysisTimeout is zero when searches have no deadline.
func (c Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.AnalysisTimeoutMs) * time.Millisecond
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMs) * time.Millisecond
}

// MobileDir falls back to the desktop directory.
func (c Config) MobileDir() string {
	if c.MobileWebDir == "" {
		return c.WebDir
	}
	return c.MobileWebDir
}

// Store holds the live config. Depths, the analysis timeout and search stats
// are read per request and change through Update. The rest is wired once at
// startup, so Update refuses to change it.
type Store struct {
	mu     sync.RWMutex
	config Config
}

func NewStore(c Config) *Store {
	return &Store{config: c}
}

func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Store) Update(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fixedChanges(s.config, c); err != nil {
		return err
	}
	s.config = c
	return nil
}

func fixedChanges(cur, next Config) error {
	var errs *multierror.Error
	fixed := func(name string, changed bool) {
		if changed {
			errs = multierror.Append(errs, errors.Wrapf(ErrInvalidConfig, "%s is fixed at startup", name))
		}
	}
	fixed("addr", cur.Addr != next.Addr)
	fixed("web_dir", cur.WebDir != next.WebDir)
	fixed("mobile_web_dir", cur.MobileWebDir != next.MobileWebDir)
	fixed("mobility", cur.Mobility != next.Mobility)
	fixed("analysis_workers", cur.AnalysisWorkers != next.AnalysisWorkers)
	fixed("shutdown_timeout_ms", cur.ShutdownTimeoutMs != next.ShutdownTimeoutMs)
	return errs.ErrorOrNil()
}
