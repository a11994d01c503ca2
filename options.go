package quality

import "log/slog"

// evalConfig holds the resolved options for one evaluation.
type evalConfig struct {
	config     *Config
	configPath string
	analyzers  []string
	resultDir  string
	logger     *slog.Logger
	onAnalyzer func(kind AnalyzerKind, index, total int)
	cargo      string
	workers    int
}

// Option configures an evaluation.
type Option func(*evalConfig)

// WithConfig uses an already loaded configuration.
func WithConfig(cfg *Config) Option {
	return func(c *evalConfig) {
		c.config = cfg
	}
}

// WithConfigPath loads the configuration from path instead of
// <project>/quality-evaluation.toml.
func WithConfigPath(path string) Option {
	return func(c *evalConfig) {
		c.configPath = path
	}
}

// WithAnalyzers restricts the run to the named analyzers
// (static_check, license, measure).
func WithAnalyzers(names ...string) Option {
	return func(c *evalConfig) {
		c.analyzers = append(c.analyzers, names...)
	}
}

// WithResultDir sets the directory that receives per-analyzer artifacts
// (default: ./quality_evaluation).
func WithResultDir(dir string) Option {
	return func(c *evalConfig) {
		c.resultDir = dir
	}
}

// WithLogger routes progress and analyzer failures to l (default: discarded).
func WithLogger(l *slog.Logger) Option {
	return func(c *evalConfig) {
		c.logger = l
	}
}

// WithProgress calls fn before each analyzer starts.
func WithProgress(fn func(kind AnalyzerKind, index, total int)) Option {
	return func(c *evalConfig) {
		c.onAnalyzer = fn
	}
}

// WithCargo runs clippy and cargo metadata through the given cargo binary
// instead of the one found on PATH.
func WithCargo(path string) Option {
	return func(c *evalConfig) {
		c.cargo = path
	}
}

// WithWorkers sets the number of code-metrics workers
// (default: max(2, NumCPU) - 1).
func WithWorkers(n int) Option {
	return func(c *evalConfig) {
		c.workers = n
	}
}
