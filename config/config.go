// Package config provides loading and parsing of ffplan.yaml configuration files.
// The file configures the solver, problem synthesis, the queue worker, service
// registration and logging.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/ffplan/problem"
	"github.com/zero-day-ai/ffplan/solver"
)

// FileName is the configuration file looked up in directories.
const FileName = "ffplan.yaml"

// ErrNotFound is wrapped when a directory search finds no configuration
// file. A file that exists but cannot be read or parsed is a different error.
var ErrNotFound = errors.New("config file not found")

// Environment variables that override file values.
const (
	EnvSolverBinary = "FFPLAN_SOLVER_BINARY"
	EnvWorkDir      = "FFPLAN_WORK_DIR"
	EnvRedisURL     = "FFPLAN_REDIS_URL"

	// EnvRegistryEndpoints is a comma-separated list of etcd endpoints.
	EnvRegistryEndpoints = "FFPLAN_REGISTRY_ENDPOINTS"
)

// Config represents an ffplan.yaml configuration file.
type Config struct {
	Solver   SolverConfig    `yaml:"solver"`
	Problem  ProblemConfig   `yaml:"problem"`
	Worker   *WorkerConfig   `yaml:"worker,omitempty"`
	Registry *RegistryConfig `yaml:"registry,omitempty"`
	Log      LogConfig       `yaml:"log"`
}

// SolverConfig locates the planner and its PDDL directory.
type SolverConfig struct {
	// Binary is the planner executable. Default "./Metric-FF-v2.1/ff".
	Binary string `yaml:"binary,omitempty"`

	// WorkDir holds the domain file, the template and generated problems.
	// Default "pddl".
	WorkDir string `yaml:"work_dir,omitempty"`

	// Domain is the domain file name inside WorkDir. Default "domain.pddl".
	Domain string `yaml:"domain,omitempty"`

	// Mode is the search mode passed with -s. Default 0.
	Mode int `yaml:"mode,omitempty"`

	// Timeout bounds each solve.
	// Format: Go duration string (e.g., "30s"). Default: no limit.
	Timeout string `yaml:"timeout,omitempty"`
}

// GetTimeout parses the timeout string. Returns zero if not set or invalid.
func (s *SolverConfig) GetTimeout() time.Duration {
	if s.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// DomainPath returns the domain file path.
func (s *SolverConfig) DomainPath() string {
	return filepath.Join(s.WorkDir, s.Domain)
}

// ProblemConfig configures problem synthesis.
type ProblemConfig struct {
	Name           string            `yaml:"name,omitempty"`
	Domain         string            `yaml:"domain,omitempty"`
	Template       string            `yaml:"template,omitempty"` // relative to solver.work_dir
	Output         string            `yaml:"output,omitempty"`   // relative to solver.work_dir
	Baseline       []string          `yaml:"baseline,omitempty"`
	Types          map[string]string `yaml:"types,omitempty"`
	StackCategory  string            `yaml:"stack_category,omitempty"`
	TargetCategory string            `yaml:"target_category,omitempty"`
	GoalCondition  string            `yaml:"goal_condition,omitempty"`
	StrictObjects  bool              `yaml:"strict_objects,omitempty"`
}

// Options converts the section to synthesizer options. Unset fields take
// the synthesizer defaults.
func (p *ProblemConfig) Options() problem.Options {
	return problem.Options{
		Name:           p.Name,
		Domain:         p.Domain,
		Baseline:       p.Baseline,
		Types:          p.Types,
		StackCategory:  p.StackCategory,
		TargetCategory: p.TargetCategory,
		GoalCondition:  p.GoalCondition,
		StrictObjects:  p.StrictObjects,
	}
}

// WorkerConfig defines configuration for queue-based execution.
type WorkerConfig struct {
	// RedisURL is the Redis connection URL. Default "redis://localhost:6379".
	RedisURL string `yaml:"redis_url,omitempty"`

	// Queue is the Redis list plan requests are pushed to.
	// Default "ffplan:requests".
	Queue string `yaml:"queue,omitempty"`

	// Concurrency is the number of worker goroutines.
	// Plans that write the same problem file never run in parallel, so
	// values above 1 only help with distinct output files. Default: 1
	Concurrency int `yaml:"concurrency,omitempty"`

	// ShutdownTimeout is the time to wait for in-flight plans.
	// Format: Go duration string (e.g., "30s", "1m"). Default: 30s
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`

	// HeartbeatInterval is the interval between health heartbeats.
	// Default: 10s
	HeartbeatInterval string `yaml:"heartbeat_interval,omitempty"`

	// HealthAddr serves the gRPC health service when set (e.g., ":50051").
	HealthAddr string `yaml:"health_addr,omitempty"`
}

// GetShutdownTimeout parses the shutdown timeout string and returns a duration.
// Returns the default value if not set or invalid.
func (w *WorkerConfig) GetShutdownTimeout() time.Duration {
	if w == nil || w.ShutdownTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(w.ShutdownTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetHeartbeatInterval parses the heartbeat interval string and returns a duration.
// Returns the default value if not set or invalid.
func (w *WorkerConfig) GetHeartbeatInterval() time.Duration {
	if w == nil || w.HeartbeatInterval == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(w.HeartbeatInterval)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetConcurrency returns the configured concurrency or the default value.
func (w *WorkerConfig) GetConcurrency() int {
	if w == nil || w.Concurrency <= 0 {
		return 1
	}
	return w.Concurrency
}

// GetQueue returns the queue name or the default value.
func (w *WorkerConfig) GetQueue() string {
	if w == nil || w.Queue == "" {
		return "ffplan:requests"
	}
	return w.Queue
}

// GetHealthAddr returns the gRPC health address, empty when disabled.
func (w *WorkerConfig) GetHealthAddr() string {
	if w == nil {
		return ""
	}
	return w.HealthAddr
}

// GetRedisURL returns the Redis URL or the default value.
func (w *WorkerConfig) GetRedisURL() string {
	if w == nil || w.RedisURL == "" {
		return "redis://localhost:6379"
	}
	return w.RedisURL
}

// RegistryConfig configures etcd service registration.
type RegistryConfig struct {
	Endpoints []string `yaml:"endpoints,omitempty"`

	// Namespace prefixes every key. Default "ffplan".
	Namespace string `yaml:"namespace,omitempty"`

	// Name is the registered service name. Default "ffplan".
	Name string `yaml:"name,omitempty"`

	// TTL is the lease time-to-live. Default: 30s
	TTL string `yaml:"ttl,omitempty"`

	// Client certificate files. Setting any of them enables mutual TLS.
	CertFile string `yaml:"cert_file,omitempty"`
	KeyFile  string `yaml:"key_file,omitempty"`
	CAFile   string `yaml:"ca_file,omitempty"`
}

// TLSEnabled reports whether any certificate file is set.
func (r *RegistryConfig) TLSEnabled() bool {
	return r != nil && (r.CertFile != "" || r.KeyFile != "" || r.CAFile != "")
}

// Enabled reports whether registration is configured.
func (r *RegistryConfig) Enabled() bool {
	return r != nil && len(r.Endpoints) > 0
}

// GetNamespace returns the namespace or the default value.
func (r *RegistryConfig) GetNamespace() string {
	if r == nil || r.Namespace == "" {
		return "ffplan"
	}
	return r.Namespace
}

// GetName returns the service name or the default value.
func (r *RegistryConfig) GetName() string {
	if r == nil || r.Name == "" {
		return "ffplan"
	}
	return r.Name
}

// GetTTL parses the TTL string. Returns 30s if not set or invalid.
func (r *RegistryConfig) GetTTL() time.Duration {
	if r == nil || r.TTL == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(r.TTL)
	if err != nil || d < time.Second {
		return 30 * time.Second
	}
	return d
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text or json
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Solver.Binary == "" {
		c.Solver.Binary = solver.DefaultBinary
	}
	if c.Solver.WorkDir == "" {
		c.Solver.WorkDir = "pddl"
	}
	if c.Solver.Domain == "" {
		c.Solver.Domain = solver.DefaultDomainFile
	}
	if c.Problem.Template == "" {
		c.Problem.Template = "problem_save.pddl"
	}
	if c.Problem.Output == "" {
		c.Problem.Output = "problem_dummy.pddl"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSolverBinary); v != "" {
		c.Solver.Binary = v
	}
	if v := os.Getenv(EnvWorkDir); v != "" {
		c.Solver.WorkDir = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		if c.Worker == nil {
			c.Worker = &WorkerConfig{}
		}
		c.Worker.RedisURL = v
	}
	if v := os.Getenv(EnvRegistryEndpoints); v != "" {
		if c.Registry == nil {
			c.Registry = &RegistryConfig{}
		}
		c.Registry.Endpoints = nil
		for _, ep := range strings.Split(v, ",") {
			if ep = strings.TrimSpace(ep); ep != "" {
				c.Registry.Endpoints = append(c.Registry.Endpoints, ep)
			}
		}
	}
}

// TemplatePath returns the template path, joined with the work directory
// unless absolute.
func (c *Config) TemplatePath() string {
	return c.inWorkDir(c.Problem.Template)
}

// OutputPath returns the default problem output path.
func (c *Config) OutputPath() string {
	return c.inWorkDir(c.Problem.Output)
}

// ProblemPath returns the path of a problem file name inside the work
// directory, or the name itself when absolute.
func (c *Config) ProblemPath(name string) string {
	return c.inWorkDir(name)
}

func (c *Config) inWorkDir(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Solver.WorkDir, name)
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	var errs []error
	if c.Solver.Mode < 0 {
		errs = append(errs, fmt.Errorf("solver.mode must be non-negative, got %d", c.Solver.Mode))
	}
	if c.Solver.Timeout != "" {
		if d, err := time.ParseDuration(c.Solver.Timeout); err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("solver.timeout %q is not a valid duration", c.Solver.Timeout))
		}
	}
	if strings.ContainsRune(c.Solver.Domain, filepath.Separator) {
		errs = append(errs, fmt.Errorf("solver.domain must be a file name inside work_dir, got %q", c.Solver.Domain))
	}
	if c.Problem.GoalCondition != "" {
		if _, err := problem.New(c.Problem.Options()); err != nil {
			errs = append(errs, fmt.Errorf("problem.goal_condition: %w", err))
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	if c.Worker != nil && c.Worker.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be non-negative, got %d", c.Worker.Concurrency))
	}
	return errors.Join(errs...)
}

// Parse decodes configuration from YAML, then applies defaults and
// environment overrides.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyEnv()
	config.applyDefaults()
	return &config, nil
}

// Load reads and parses an ffplan.yaml file from the given path.
// If the path is a directory, it looks for ffplan.yaml or ffplan.yml in that directory.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		configPath = ""
		for _, name := range []string{FileName, "ffplan.yml"} {
			candidate := filepath.Join(path, name)
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
		if configPath == "" {
			return nil, fmt.Errorf("%w: no ffplan.yaml or ffplan.yml in %s", ErrNotFound, path)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// LoadFromDir searches for ffplan.yaml starting from the given directory
// and walking up to parent directories until found or root is reached.
// The first file found is used; if it is broken, its error is returned.
func LoadFromDir(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		config, err := Load(absDir)
		if err == nil {
			return config, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			return nil, fmt.Errorf("%w: no ffplan.yaml in %s or parent directories", ErrNotFound, dir)
		}
		absDir = parent
	}
}

// LoadOrDefault loads path when given, otherwise searches from the current
// directory. Only when no file exists does it fall back to Default with
// environment overrides.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	cfg, err := LoadFromDir(cwd)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	cfg = &Config{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}
